package store

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// MarkerStore is the local snapshot of acked read markers, keyed by
// group ID. It exists so a fresh session starts from the last value
// the server acknowledged instead of from nothing, which keeps the
// monotonic floor across restarts. All methods are nil-safe: a nil
// store disables local persistence without sprinkling checks at the
// call sites.
type MarkerStore struct {
	path string
	log  zerolog.Logger

	mu      sync.Mutex
	markers map[uint]uint
}

func NewMarkerStore(path string, log zerolog.Logger) *MarkerStore {
	return &MarkerStore{
		path:    path,
		log:     log,
		markers: make(map[uint]uint),
	}
}

// Load reads the snapshot file. A missing file is a clean start, not
// an error.
func (s *MarkerStore) Load() error {
	if s == nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var markers map[uint]uint
	if err := msgpack.Unmarshal(data, &markers); err != nil {
		// A corrupt snapshot is discarded; the server remains the
		// source of truth.
		s.log.Warn().Err(err).Str("path", s.path).Msg("discarding unreadable marker snapshot")
		return nil
	}

	s.mu.Lock()
	s.markers = markers
	s.mu.Unlock()
	return nil
}

// Save writes the snapshot file.
func (s *MarkerStore) Save() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	data, err := msgpack.Marshal(s.markers)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o600)
}

// Get returns the stored marker for a group. ok is false when the
// group has no stored marker.
func (s *MarkerStore) Get(groupID uint) (id uint, ok bool) {
	if s == nil {
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok = s.markers[groupID]
	return id, ok
}

// Advance raises a group's stored marker, never lowering it, and
// persists the snapshot best-effort.
func (s *MarkerStore) Advance(groupID, messageID uint) {
	if s == nil {
		return
	}

	s.mu.Lock()
	if messageID <= s.markers[groupID] {
		s.mu.Unlock()
		return
	}
	s.markers[groupID] = messageID
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.log.Warn().Err(err).Uint("group_id", groupID).Msg("marker snapshot write failed")
	}
}
