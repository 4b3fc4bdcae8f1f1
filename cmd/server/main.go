package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/leadline/leadline/internal/api"
	"github.com/leadline/leadline/internal/classify"
	"github.com/leadline/leadline/internal/config"
	"github.com/leadline/leadline/internal/domain"
	"github.com/leadline/leadline/internal/ingest"
	"github.com/leadline/leadline/internal/repository/postgres"
	"github.com/leadline/leadline/internal/service/reconcile"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}
	log.Printf("[server] database connected (table prefix %q)", cfg.TablePrefix())

	// Redis backs upload sessions; without it there is nowhere to stage
	// uploads, so unlike a cache this connection is required.
	redisURL := cfg.Redis.URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatalf("Redis connection failed (%s): %v", redisURL, err)
	}
	cancelPing()
	log.Printf("[server] redis connected: %s", redisURL)

	var allowed []domain.LeadStatus
	for _, s := range cfg.Ingest.AllowedStatuses {
		allowed = append(allowed, domain.LeadStatus(s))
	}
	normalizer := ingest.NewNormalizer(allowed)
	sessions := ingest.NewSessionStore(redisClient, normalizer, cfg.Ingest.SessionTTL())
	store := postgres.NewStore(db, cfg.TablePrefix())

	var notifier reconcile.Notifier
	if cfg.Classify.Enabled && cfg.Classify.BaseURL != "" {
		notifier = classify.NewNotifier(classify.NewClient(cfg.Classify.BaseURL, cfg.Classify.Timeout()))
		log.Printf("[server] classification hook enabled: %s", cfg.Classify.BaseURL)
	}

	server := api.NewServer(sessions, store, notifier, cfg.Ingest.BatchSize, cfg.Ingest.MaxFileSize())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
