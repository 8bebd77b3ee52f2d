package stream

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sroberts03/pickup-sub000/internal/models"
)

// ProfileFetcher is the external collaborator that resolves a user
// ID to a display profile.
type ProfileFetcher interface {
	FetchUser(ctx context.Context, userID uint) (*models.Profile, error)
}

// Resolver resolves sender IDs to profiles, caching per sender for
// the life of the session. The local user's own profile is answered
// without a fetch, and a failed lookup degrades to a nil profile so
// the message stays displayable without a resolved name.
type Resolver struct {
	fetcher ProfileFetcher
	self    models.Profile
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[uint]*models.Profile
}

func NewResolver(fetcher ProfileFetcher, self models.Profile, log zerolog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		self:    self,
		log:     log,
		cache:   make(map[uint]*models.Profile),
	}
}

// Resolve returns the sender's profile, or nil when it cannot be
// resolved. A definitive "no such user" is cached; a transient fetch
// failure is not, so a later resolve may still succeed.
func (r *Resolver) Resolve(ctx context.Context, senderID uint) *models.Profile {
	if senderID == r.self.ID {
		self := r.self
		return &self
	}

	r.mu.Lock()
	cached, ok := r.cache[senderID]
	r.mu.Unlock()
	if ok {
		return cached
	}

	profile, err := r.fetcher.FetchUser(ctx, senderID)
	if err != nil {
		r.log.Warn().Err(err).Uint("user_id", senderID).Msg("profile lookup failed, rendering unresolved")
		return nil
	}

	r.mu.Lock()
	r.cache[senderID] = profile
	r.mu.Unlock()
	return profile
}

// Self returns the local user's profile.
func (r *Resolver) Self() models.Profile {
	return r.self
}
