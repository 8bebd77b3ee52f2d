package unread

import (
	"context"

	"github.com/rs/zerolog"
)

// StatusFetcher is the external collaborator that answers whether a
// group holds unread messages for the caller. The server computes it
// by comparing the group's last message ID against the caller's
// marker, excluding a self-authored last message.
type StatusFetcher interface {
	FetchUnreadStatus(ctx context.Context, groupID uint) (bool, error)
}

// Aggregator rolls per-group unread status up into the single "has
// any unread" signal behind the navigation badge. It is recomputed
// on every call so the badge tracks near-real-time membership and
// read changes; nothing is cached here.
type Aggregator struct {
	fetcher StatusFetcher
	log     zerolog.Logger
}

func NewAggregator(fetcher StatusFetcher, log zerolog.Logger) *Aggregator {
	return &Aggregator{fetcher: fetcher, log: log}
}

// HasAnyUnread reports whether any of the given groups has unread
// messages. A group whose status fetch fails counts as false rather
// than aborting the aggregate: the badge fails closed instead of
// breaking navigation.
func (a *Aggregator) HasAnyUnread(ctx context.Context, groupIDs []uint) bool {
	for _, groupID := range groupIDs {
		unread, err := a.fetcher.FetchUnreadStatus(ctx, groupID)
		if err != nil {
			a.log.Warn().Err(err).Uint("group_id", groupID).Msg("unread status fetch failed, counting as read")
			continue
		}
		if unread {
			return true
		}
	}
	return false
}
