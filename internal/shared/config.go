package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const DefaultCollection = "OBMNG"

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	HTTPTimeout    time.Duration
	MetricsAddr    string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	GuestlineBase  string
	GuestlineRPS   int
	GuestlineRetry int
	Collection     string
	Collections    []string
	AggWorkers     int
	AggSkipFailed  bool
	IngestWorkers  int
	CacheTTL       time.Duration
}

// Load reads the environment, after merging an optional .env file (real
// environment variables win).
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		HTTPTimeout:    time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", ""),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		GuestlineBase:  env("GUESTLINE_BASE_URL", "https://obmng.dbm.guestline.net"),
		GuestlineRPS:   atoi("GUESTLINE_RPS", 10),
		GuestlineRetry: atoi("GUESTLINE_RETRIES", 0),
		Collection:     env("COLLECTION_ID", DefaultCollection),
		AggWorkers:     atoi("AGGREGATE_WORKERS", 0),
		AggSkipFailed:  envBool("AGGREGATE_SKIP_FAILED", false),
		IngestWorkers:  atoi("INGEST_WORKERS", 2),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	c.Collections = splitList(env("COLLECTIONS", c.Collection))
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid boolean, using default")
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
