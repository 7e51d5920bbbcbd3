package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"lan-drop/internal/drop"
	"lan-drop/internal/server"
	"lan-drop/internal/storage"
)

func main() {
	// Optional .env for local development; real deployments set env
	// vars directly.
	_ = godotenv.Load()

	addr := getenvDefault("DROP_ADDR", ":8080")

	build := server.BuildInfo{
		Version: getenvDefault("DROP_VERSION", "dev"),
		Commit:  getenvDefault("DROP_COMMIT", "unknown"),
	}

	clock := clockwork.NewRealClock()

	store, err := newStore()
	if err != nil {
		log.Printf("service=dropd msg=%q err=%v", "storage_init_failed", err)
		os.Exit(1)
	}

	registry := drop.NewRegistry(store, clock)

	ttl := getenvDuration("DROP_SESSION_TTL", drop.DefaultTTL)
	interval := getenvDuration("DROP_SWEEP_INTERVAL", drop.DefaultSweepInterval)
	sweeper := drop.NewSweeper(registry, ttl, interval, clock)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	maxUpload := int64(2 << 30) // 2 GiB
	if v := os.Getenv("DROP_MAX_UPLOAD_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			maxUpload = parsed
		}
	}

	srv := server.New(server.Config{
		Addr:           addr,
		Build:          build,
		Registry:       registry,
		Store:          store,
		MaxUploadBytes: maxUpload,
	})

	// Host on all interfaces so other devices on the LAN can reach us;
	// print the candidate URLs the sender can share.
	for _, ip := range server.LocalIPCandidates() {
		log.Printf("service=dropd msg=%q url=http://%s%s", "reachable_at", ip, addr)
	}

	// Start the HTTP server in a background goroutine so we can listen
	// for OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=dropd msg=%q addr=%s version=%s commit=%s ttl=%s sweep=%s",
			"starting", addr, build.Version, build.Commit, ttl, interval)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=dropd msg=%q signal=%s", "shutting_down", sig.String())
		stopSweeper()
		// Give the server 5 seconds to finish in-flight transfers.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=dropd msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=dropd msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=dropd msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// newStore picks the storage backend: MinIO when an S3 endpoint is
// configured, a local directory otherwise.
func newStore() (storage.Store, error) {
	if endpoint := os.Getenv("DROP_S3_ENDPOINT"); endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:  endpoint,
			AccessKey: os.Getenv("DROP_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("DROP_S3_SECRET_KEY"),
			Bucket:    os.Getenv("DROP_BUCKET"),
		})
	}
	root := getenvDefault("DROP_DATA_DIR", filepath.Join(os.TempDir(), "lan-drop"))
	return storage.NewDisk(root)
}

// getenvDefault reads an environment variable and returns a default
// value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
