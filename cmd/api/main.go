package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"guestline_hotels/internal/adapters/guestline"
	server "guestline_hotels/internal/adapters/http_server"
	"guestline_hotels/internal/adapters/observability"
	redisad "guestline_hotels/internal/adapters/redis"
	"guestline_hotels/internal/app"
	"guestline_hotels/internal/domain"
	"guestline_hotels/internal/shared"
	mysqlrepo "guestline_hotels/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve(cfg.MetricsAddr)

	client, err := guestline.New(cfg.GuestlineBase, cfg.GuestlineRPS, cfg.GuestlineRetry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Guestline client")
	}
	policy := app.FailAll
	if cfg.AggSkipFailed {
		policy = app.SkipFailed
	}
	agg := app.NewAggregator(client, cfg.AggWorkers, policy)

	// optional layers; keep the interfaces nil when disabled
	var repo domain.HotelRepository
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cache disabled")
		} else {
			cache = rc
		}
	}

	q := app.NewQueryService(agg, repo, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.HTTPTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(q, cfg.Collection))

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("collection", cfg.Collection).
		Bool("snapshot_store", repo != nil).
		Bool("cache", cache != nil).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
