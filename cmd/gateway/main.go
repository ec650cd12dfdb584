package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quota-gateway/internal/logging"
	"quota-gateway/internal/metrics"
	"quota-gateway/middleware/quota"
	"quota-gateway/middleware/quota/admin"
	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"
	"quota-gateway/middleware/quota/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewLogger("quota-gateway", cfg.logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}

func run(ctx context.Context, cfg config, log zerolog.Logger) error {
	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}

	store := infra.NewStore()
	ctrl := application.NewController(store)

	if cfg.quotaFile != "" {
		as, err := infra.LoadQuotaFile(cfg.quotaFile)
		if err != nil {
			return err
		}
		infra.ApplyQuotas(store, as)
		log.Info().Str("file", cfg.quotaFile).Int("quotas", len(as)).Msg("quota file loaded")

		if cfg.quotaWatch {
			if err := infra.WatchQuotaFile(ctx, cfg.quotaFile, store, log); err != nil {
				return err
			}
		}
	}

	reg := prometheus.NewRegistry()
	stats, closeStats, err := newStatsStore(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer closeStats()

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	gateway := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           buildHandler(cfg, ctrl, stats, log, proxy),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	servers := []*http.Server{gateway}

	if cfg.adminAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.adminAddr,
			Handler:           admin.NewRouter(admin.NewHandler(ctrl, log.With().Str("component", "admin").Logger())),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}
	if cfg.metricsAddr != "" {
		servers = append(servers, metrics.NewServer(cfg.metricsAddr, reg))
	}

	log.Info().
		Str("listen", cfg.listenAddr).
		Str("upstream", target.String()).
		Str("admin", cfg.adminAddr).
		Str("metrics", cfg.metricsAddr).
		Msg("gateway starting")
	log.Info().
		Bool("enabled", cfg.quotaEnabled).
		Stringer("resource", cfg.quotaResource).
		Int64("cost", cfg.quotaCost).
		Stringer("mode", cfg.quotaMode).
		Str("principalHeader", cfg.principalHeader).
		Msg("quota")
	log.Info().
		Int("max", cfg.concurrencyMax).
		Dur("acquireTimeout", cfg.concurrencyTimeout).
		Bool("perPrincipal", cfg.connectionsPerPrincipal).
		Msg("concurrency")

	return serve(ctx, log, servers...)
}

// buildHandler monta a cadeia identidade -> quota -> concorrência -> upstream.
func buildHandler(cfg config, ctrl application.Controller, stats domain.StatsStore, log zerolog.Logger, upstream http.Handler) http.Handler {
	h := upstream

	copts := quota.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         &log,
	}
	if cfg.connectionsPerPrincipal {
		copts.Pool = application.ConnectionSlots{Controller: ctrl}
	}
	h = quota.ConcurrencyMiddleware(copts)(h)

	if cfg.quotaEnabled {
		h = quota.Middleware(quota.Options{
			Controller:   ctrl,
			Resource:     cfg.quotaResource,
			Cost:         cfg.quotaCost,
			Mode:         cfg.quotaMode,
			RejectStatus: http.StatusTooManyRequests,
			RetryAfter:   cfg.retryAfter,
			Stats:        stats,
			Logger:       &log,
		})(h)
	}

	return quota.IdentityMiddleware(cfg.principalHeader)(h)
}

func newStatsStore(ctx context.Context, cfg config, reg prometheus.Registerer) (domain.StatsStore, func(), error) {
	sinks := infra.MultiStatsStore{infra.NewPrometheusStatsStore(reg)}
	if !cfg.statsEnabled {
		return sinks, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.statsRedisAddr,
		Password: cfg.statsRedisPassword,
		DB:       cfg.statsRedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping error: %w", err)
	}

	sinks = append(sinks, infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(cfg.statsPrefix),
		infra.WithStatsTTL(cfg.statsTTL),
		infra.WithStatsBucket(cfg.statsBucket),
		infra.WithStatsTrackPrincipals(cfg.statsTrackKeys),
	))
	return sinks, func() { _ = rdb.Close() }, nil
}

// serve roda os servidores até ctx encerrar ou algum deles falhar.
func serve(ctx context.Context, log zerolog.Logger, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
