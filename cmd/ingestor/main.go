package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"guestline_hotels/internal/adapters/guestline"
	"guestline_hotels/internal/adapters/observability"
	redisad "guestline_hotels/internal/adapters/redis"
	"guestline_hotels/internal/app"
	"guestline_hotels/internal/domain"
	"guestline_hotels/internal/shared"
	mysqlrepo "guestline_hotels/internal/storage/mysql"
)

// ingestor refreshes the stored snapshot of every configured collection.
func main() {
	// SIGINT/SIGTERM cancel in-flight refreshes; their transactions roll back
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.GuestlineBase).
		Strs("collections", cfg.Collections).
		Int("workers", cfg.IngestWorkers).
		Msg("ingestor starting")

	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required for snapshots")
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := guestline.New(cfg.GuestlineBase, cfg.GuestlineRPS, cfg.GuestlineRetry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Guestline client")
	}
	policy := app.FailAll
	if cfg.AggSkipFailed {
		policy = app.SkipFailed
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	snap := app.NewSnapshotService(app.NewAggregator(client, cfg.AggWorkers, policy), repo, cache)

	if n := refreshAll(ctx, snap, cfg.Collections, cfg.IngestWorkers); n > 0 {
		stop()
		log.Error().Int32("failed", n).Msg("ingestion completed with failures")
		os.Exit(1)
	}
	log.Info().Msg("ingestion completed")
}

type refresher interface {
	Refresh(ctx context.Context, collectionID string) (domain.AggregateStats, error)
}

// refreshAll refreshes every collection with at most workers in flight and
// returns the number of collections that were not refreshed. Collections not
// yet started when ctx is cancelled count as failed.
func refreshAll(ctx context.Context, snap refresher, collections []string, workers int) int32 {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for i, id := range collections {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			left := len(collections) - i
			failed.Add(int32(left))
			log.Warn().Err(err).Int("skipped", left).Msg("ingestion cancelled")
			break
		}

		wg.Add(1)
		go func(collectionID string) {
			defer wg.Done()
			defer sem.Release(1)

			stats, err := snap.Refresh(ctx, collectionID)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("collection", collectionID).Err(err).Msg("snapshot refresh failed")
				return
			}
			log.Info().
				Str("collection", collectionID).
				Int("hotels", stats.Succeeded).
				Int("skipped", stats.Failed).
				Dur("duration", stats.Duration).
				Msg("snapshot refreshed")
		}(id)
	}

	wg.Wait()
	return failed.Load()
}
