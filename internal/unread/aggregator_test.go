package unread

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// mockStatusFetcher is a hand-rolled StatusFetcher for tests.
type mockStatusFetcher struct {
	statuses map[uint]bool
	failing  map[uint]bool
	calls    []uint
}

func (f *mockStatusFetcher) FetchUnreadStatus(ctx context.Context, groupID uint) (bool, error) {
	f.calls = append(f.calls, groupID)
	if f.failing[groupID] {
		return false, errors.New("502")
	}
	return f.statuses[groupID], nil
}

func TestHasAnyUnread(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[uint]bool
		failing  map[uint]bool
		groups   []uint
		want     bool
	}{
		{
			name:   "no groups",
			groups: nil,
			want:   false,
		},
		{
			name:     "all read",
			statuses: map[uint]bool{1: false, 2: false},
			groups:   []uint{1, 2},
			want:     false,
		},
		{
			name:     "one unread",
			statuses: map[uint]bool{1: false, 2: true},
			groups:   []uint{1, 2},
			want:     true,
		},
		{
			name:     "failing sibling does not mask an unread group",
			statuses: map[uint]bool{1: true},
			failing:  map[uint]bool{2: true},
			groups:   []uint{1, 2},
			want:     true,
		},
		{
			name:     "failing sibling first",
			statuses: map[uint]bool{2: true},
			failing:  map[uint]bool{1: true},
			groups:   []uint{1, 2},
			want:     true,
		},
		{
			name:    "all fetches fail",
			failing: map[uint]bool{1: true, 2: true},
			groups:  []uint{1, 2},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mockStatusFetcher{statuses: tt.statuses, failing: tt.failing}
			a := NewAggregator(fetcher, zerolog.Nop())

			if got := a.HasAnyUnread(context.Background(), tt.groups); got != tt.want {
				t.Errorf("HasAnyUnread(%v) = %v, want %v", tt.groups, got, tt.want)
			}
		})
	}
}

func TestHasAnyUnreadNotCached(t *testing.T) {
	fetcher := &mockStatusFetcher{statuses: map[uint]bool{1: false}}
	a := NewAggregator(fetcher, zerolog.Nop())

	a.HasAnyUnread(context.Background(), []uint{1})
	a.HasAnyUnread(context.Background(), []uint{1})

	if len(fetcher.calls) != 2 {
		t.Errorf("fetch calls = %d, want 2 (recomputed per focus, never cached)", len(fetcher.calls))
	}
}
