package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tetoca.org/internal/auth"
	"tetoca.org/internal/config"
	"tetoca.org/internal/httpapi"
	"tetoca.org/internal/obs"
	"tetoca.org/internal/schema"
	"tetoca.org/internal/store"
	"tetoca.org/internal/store/memory"
	"tetoca.org/internal/store/pg"
)

var version = "1.2.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is required")
	}

	reg := schema.TeToca()

	// Without database parameters the server runs entirely in memory,
	// which is what the integration tests use.
	var (
		st   store.Store
		gate auth.SessionGate
	)
	if dsn := cfg.DatabaseDSN(); dsn != "" {
		pgs, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := schema.Apply(ctx, pgs.DB(), reg); err != nil {
			cancel()
			log.Fatalf("apply schema: %v", err)
		}
		if err := schema.Seed(ctx, pgs.DB()); err != nil {
			cancel()
			log.Fatalf("seed: %v", err)
		}
		cancel()
		st = pgs
		gate = auth.NewPGGate(pgs.DB())
	} else {
		log.Print("no database configured, using in-memory store")
		st = memory.NewStore(reg)
		gate = auth.NewMemoryGate()
	}

	authsvc := auth.NewService(st, reg, auth.TokenConfig{
		Secret:    []byte(cfg.SecretKey),
		Algorithm: cfg.Algorithm,
		TTL:       cfg.TokenTTL(),
	}, gate)

	api := httpapi.New(st, reg, authsvc, version, httpapi.Options{
		RateBurst:  cfg.RateBurst,
		RatePerSec: cfg.RatePerSec,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting tetoca-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		var err error
		if cfg.SSLCert != "" && cfg.SSLKey != "" {
			err = srv.ListenAndServeTLS(cfg.SSLCert, cfg.SSLKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = st.Close()
	log.Println("Stopped")
}
