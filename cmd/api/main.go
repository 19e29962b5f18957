package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/devnet/internal/auth"
	"github.com/geocoder89/devnet/internal/config"
	"github.com/geocoder89/devnet/internal/db"
	httpx "github.com/geocoder89/devnet/internal/http"
	"github.com/geocoder89/devnet/internal/http/handlers"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/geocoder89/devnet/internal/redisclient"
	"github.com/geocoder89/devnet/internal/repo/memory"
	"github.com/geocoder89/devnet/internal/repo/postgres"
	"github.com/geocoder89/devnet/internal/revocation"
	"github.com/geocoder89/devnet/internal/security"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "devnet-api", cfg.Env, cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Error("token manager init failed", "err", err)
		os.Exit(1)
	}

	hasher, err := security.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Error("password hasher init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Config:   cfg,
		Tokens:   tokens,
		Hasher:   hasher,
		Prom:     prom,
		Gatherer: reg,
	}

	// stores
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on restart")

		store := memory.NewStore()
		deps.Users = store.Users()
		deps.Profiles = store.Profiles()
		deps.Posts = store.Posts()

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("db migrate failed", "err", err)
			os.Exit(1)
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Profiles = postgres.NewProfilesRepo(pool, prom)
		deps.Posts = postgres.NewPostsRepo(pool, prom)
		deps.Checks = append(deps.Checks, handlers.ReadyCheck{Name: "postgres", Ping: pool.Ping})
	}

	// revocation denylist
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := config.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Error("redis ping failed", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}

		store := revocation.NewRedisStore(rdb.Raw())
		deps.Revoked = store
		deps.Checker = store
		deps.Checks = append(deps.Checks, handlers.ReadyCheck{Name: "redis", Ping: rdb.Ping})
	} else {
		store := revocation.NewMemoryStore()
		deps.Revoked = store
		deps.Checker = store
	}

	// set up routers with the deps
	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		shutdownCtx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
