package app

import (
	"context"
	"fmt"

	"guestline_hotels/internal/domain"
)

// SnapshotService aggregates a collection ahead of time and stores the
// result, so pages can be served without touching the upstream API.
type SnapshotService struct {
	agg   domain.HotelAggregator
	repo  domain.HotelRepository
	cache domain.Cache
}

func NewSnapshotService(a domain.HotelAggregator, r domain.HotelRepository, cache domain.Cache) *SnapshotService {
	return &SnapshotService{agg: a, repo: r, cache: cache}
}

func (s *SnapshotService) Refresh(ctx context.Context, collectionID string) (domain.AggregateStats, error) {
	hs, stats, err := s.agg.Aggregate(ctx, collectionID)
	if err != nil {
		// keep the previous snapshot; a failed refresh must not wipe it
		return stats, err
	}
	if err := s.repo.SaveCollection(ctx, collectionID, hs); err != nil {
		return stats, fmt.Errorf("save snapshot of %s: %w", collectionID, err)
	}
	// evict after the write so the next read picks up the new snapshot
	if s.cache != nil {
		_ = s.cache.Del(ctx, hotelsKey(collectionID))
	}
	return stats, nil
}
