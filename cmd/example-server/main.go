package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quota-gateway/internal/logging"
	"quota-gateway/middleware/quota"
	"quota-gateway/middleware/quota/application"
	"quota-gateway/middleware/quota/domain"
	"quota-gateway/middleware/quota/infra"
)

func main() {
	// Exemplo: injetando o middleware diretamente no seu webserver (sem proxy)
	log := logging.NewLogger("example-server", os.Getenv("LOG_LEVEL"))

	ctrl := application.NewController(infra.NewStore())
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceQueries, Limit: 100, Unit: "req"})
	ctrl.SetQuota("tenant-1", domain.ResourceQuota{Type: domain.ResourceConnections, Limit: 5})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok " + string(quota.PrincipalFromContext(r.Context())) + "\n"))
	})

	h := http.Handler(mux)
	h = quota.ConcurrencyMiddleware(quota.ConcurrencyOptions{
		Pool:           application.ConnectionSlots{Controller: ctrl},
		AcquireTimeout: time.Second,
		Logger:         &log,
	})(h)
	h = quota.Middleware(quota.Options{
		Controller: ctrl,
		Resource:   domain.ResourceQueries,
		Mode:       application.ModeStrict, // acumula; ModeAdvisory só compara o custo da chamada
		RetryAfter: time.Second,
		Logger:     &log,
	})(h)
	h = quota.IdentityMiddleware("X-Api-Key")(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("example server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}
