package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"

	"github.com/joho/godotenv"
)

type config struct {
	listenAddr  string
	upstreamURL string
	logLevel    string

	quotaEnabled    bool
	quotaResource   domain.ResourceType
	quotaCost       int64
	quotaMode       application.Mode
	principalHeader string
	quotaFile       string
	quotaWatch      bool
	retryAfter      time.Duration

	concurrencyMax          int
	concurrencyTimeout      time.Duration
	connectionsPerPrincipal bool

	adminAddr   string
	metricsAddr string

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackKeys     bool
}

// loadDotEnv carrega .env.local e .env quando existirem; variáveis já
// definidas no ambiente têm precedência.
func loadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")

	cfg.quotaEnabled = getenvBoolDefault("QUOTA_ENABLED", true)
	cfg.quotaCost = int64(getenvIntDefault("QUOTA_COST", 1))
	cfg.principalHeader = getenvDefault("QUOTA_PRINCIPAL_HEADER", "X-Principal")
	cfg.quotaFile = os.Getenv("QUOTA_FILE")
	cfg.quotaWatch = getenvBoolDefault("QUOTA_WATCH", true)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", 0)

	rt, err := domain.ParseResourceType(getenvDefault("QUOTA_RESOURCE", "queries"))
	if err != nil {
		return config{}, fmt.Errorf("QUOTA_RESOURCE: %w", err)
	}
	cfg.quotaResource = rt

	mode, err := application.ParseMode(os.Getenv("QUOTA_MODE"))
	if err != nil {
		return config{}, fmt.Errorf("QUOTA_MODE: %w", err)
	}
	cfg.quotaMode = mode

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)
	cfg.connectionsPerPrincipal = getenvBoolDefault("CONNECTIONS_PER_PRINCIPAL", false)

	cfg.adminAddr = getenvDefault("ADMIN_ADDR", "127.0.0.1:8090")
	cfg.metricsAddr = getenvDefault("METRICS_ADDR", ":9090")

	cfg.statsEnabled = getenvBoolDefault("QUOTA_STATS_ENABLED", false)
	cfg.statsRedisAddr = os.Getenv("QUOTA_STATS_REDIS_ADDR")
	cfg.statsRedisPassword = os.Getenv("QUOTA_STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("QUOTA_STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("QUOTA_STATS_PREFIX", "quota:stats")
	cfg.statsTTL = getenvDurationDefault("QUOTA_STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("QUOTA_STATS_BUCKET", "minute")
	cfg.statsTrackKeys = getenvBoolDefault("QUOTA_STATS_TRACK_PRINCIPALS", false)

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	// o middleware trata custo 0 como "não informado" e usa 1
	if cfg.quotaCost <= 0 {
		return config{}, errors.New("QUOTA_COST must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	// ConnectionSlots reserva e libera o par (principal, connections); o gate
	// de quota gravando no mesmo par corromperia a contagem de vagas.
	if cfg.connectionsPerPrincipal && cfg.quotaEnabled && cfg.quotaResource == domain.ResourceConnections {
		return config{}, errors.New("QUOTA_RESOURCE=connections cannot be combined with CONNECTIONS_PER_PRINCIPAL=true")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("QUOTA_STATS_REDIS_ADDR is required when QUOTA_STATS_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
