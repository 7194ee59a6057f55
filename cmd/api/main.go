package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/emilythestrangee/newsboard/internal/config"
	"github.com/emilythestrangee/newsboard/internal/database"
	"github.com/emilythestrangee/newsboard/internal/middleware"
	"github.com/emilythestrangee/newsboard/internal/search"
	"github.com/emilythestrangee/newsboard/internal/server"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")
	done <- true
}

func main() {
	cfg := config.Load()

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var limiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		limiter, err = middleware.NewRateLimiter(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer limiter.Close()
	} else {
		log.Println("⚠️ REDIS_URL not set, comment rate limiting disabled")
	}

	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meili.Close()
	}

	srv := server.New(cfg, db, limiter, meili)
	if meili != nil {
		go func() {
			if err := srv.Searcher().Reindex(context.Background()); err != nil {
				log.Printf("search: reindex failed: %v", err)
			}
		}()
	}
	apiServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, done)

	log.Println("📝 Press Ctrl+C to stop the server")
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %s", err)
	}

	<-done
	log.Println("Graceful shutdown complete.")
}
