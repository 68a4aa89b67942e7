package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"guestline_hotels/internal/domain"
)

// QueryService serves the read path: cache, then the stored snapshot, then a
// live aggregation. repo and cache may be nil.
type QueryService struct {
	agg      domain.HotelAggregator
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(a domain.HotelAggregator, r domain.HotelRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{agg: a, repo: r, cache: c, cacheTTL: ttl}
}

func hotelsKey(collectionID string) string { return fmt.Sprintf("hotels:%s", collectionID) }

func (s *QueryService) Hotels(ctx context.Context, collectionID string) ([]domain.Hotel, error) {
	key := hotelsKey(collectionID)
	if s.cache != nil {
		var hs []domain.Hotel
		ok, err := s.cache.Get(ctx, key, &hs)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if ok {
			return hs, nil
		}
	}

	if s.repo != nil {
		hs, err := s.repo.ListHotels(ctx, collectionID)
		switch {
		case err == nil:
			s.store(ctx, key, hs)
			return hs, nil
		case errors.Is(err, domain.ErrNotFound):
			log.Debug().Str("collection", collectionID).Msg("no snapshot, aggregating live")
		default:
			// the upstream API is the source of truth; a broken snapshot store is not fatal
			log.Warn().Err(err).Str("collection", collectionID).Msg("snapshot read failed, aggregating live")
		}
	}

	hs, _, err := s.agg.Aggregate(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, hs)
	return hs, nil
}

// Listing returns the hotels of a collection after applying the filters.
func (s *QueryService) Listing(ctx context.Context, collectionID string, f domain.FilterState) (domain.Listing, error) {
	hs, err := s.Hotels(ctx, collectionID)
	if err != nil {
		return domain.Listing{}, err
	}
	return Apply(collectionID, hs, f), nil
}

func (s *QueryService) store(ctx context.Context, key string, hs []domain.Hotel) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, hs, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
