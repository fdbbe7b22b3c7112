package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"meridianbank.org/internal/audit"
	"meridianbank.org/internal/auth"
	"meridianbank.org/internal/config"
	"meridianbank.org/internal/httpapi"
	"meridianbank.org/internal/obs"
	"meridianbank.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.SetBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		// A missing signing secret must abort startup, never degrade.
		log.Fatalf("config: %v", err)
	}

	tokens, err := auth.NewAuthority(cfg.AuthSecret,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token authority: %v", err)
	}

	var (
		store    auth.IdentityStore
		recorder auth.AuditRecorder = audit.LogRecorder{}
		probe    httpapi.ReadyProbe
	)
	if cfg.PGDSN != "" {
		pgStore, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		recorder = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Print("MERIDIAN_PG_DSN not set; using in-memory identity store")
		store = auth.NewMemoryStore()
	}

	svc, err := auth.NewService(store, tokens, auth.WithAudit(recorder))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	apiOpts := []httpapi.Option{
		httpapi.WithReadyProbe(probe),
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSecond),
		httpapi.WithVersion(version),
	}
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		client := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("ping redis: %v", err)
		}
		defer client.Close()
		apiOpts = append(apiOpts, httpapi.WithLoginLimiter(
			httpapi.NewLoginLimiter(client, cfg.LoginPerMinute)))
	}

	api := httpapi.New(svc, tokens, apiOpts...)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting meridian-auth %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
