// clipd is the per-device capture agent: it watches the system
// clipboard, records what it sees into the local store, and (when a
// sync endpoint is configured) exchanges changes with the server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"main/capture"
	"main/clipboard"
	"main/config"
	"main/localstore"
	"main/syncclient"
	"main/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	if os.Getenv("OWNER_ID") == "" {
		log.Fatal("Required environment variable OWNER_ID is not set")
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "clips.json"
	}
	return filepath.Join(home, ".clipd", "clips.json")
}

func main() {
	cfg := config.LoadCaptureConfig()
	ownerID := os.Getenv("OWNER_ID")
	deviceID := utils.GetEnvAsString("DEVICE_ID", "")
	if deviceID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = utils.GenerateID()
		}
		deviceID = host
	}

	storePath := utils.GetEnvAsString("CLIP_STORE_PATH", defaultStorePath())
	if err := os.MkdirAll(filepath.Dir(storePath), 0o700); err != nil {
		log.Fatalf("Failed to create store directory: %v", err)
	}
	store, err := localstore.Open(storePath, cfg.RetentionDays, cfg.MaxClips)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}

	reader, err := clipboard.NewReader()
	if err != nil {
		log.Fatalf("Failed to initialize clipboard: %v", err)
	}

	session := capture.NewSession(store, cfg, ownerID, deviceID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var client *syncclient.Client
	if syncURL := os.Getenv("SYNC_URL"); syncURL != "" {
		headerAuth := utils.GetEnvAsString("AUTH_MODE", "") == "header"
		client = syncclient.NewClient(syncURL, ownerID, deviceID, headerAuth)
		if !headerAuth {
			password := os.Getenv("SYNC_PASSWORD")
			if password == "" {
				log.Fatal("SYNC_URL is set but SYNC_PASSWORD is not")
			}
			if err := client.Login(ctx, password); err != nil {
				log.Fatalf("Failed to open sync session: %v", err)
			}
		}
		log.Printf("Syncing with %s as device %s", syncURL, deviceID)
	} else {
		log.Println("No SYNC_URL configured, running local-only")
	}

	go watchClipboard(ctx, reader, session, cfg.PollInterval)
	if client != nil {
		go syncLoop(ctx, client, store)
	}

	log.Printf("clipd watching clipboard every %v (store: %s)", cfg.PollInterval, storePath)
	<-ctx.Done()
	log.Println("Shutting down")
}

func watchClipboard(ctx context.Context, reader *clipboard.Reader, session *capture.Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := reader.Read(ctx)
			if err != nil {
				log.Printf("Clipboard read failed: %v", err)
				continue
			}
			if snap.Empty() {
				continue
			}
			result := session.CaptureAuto(ctx, snap)
			switch result.Status {
			case capture.StatusCaptured:
				log.Printf("Captured clip %s (%s)", result.Clip.ID, result.Clip.Kind)
			case capture.StatusRejected:
				if result.Reason != "" {
					log.Printf("Capture rejected: %s", result.Reason)
				}
			}
		}
	}
}

func syncLoop(ctx context.Context, client *syncclient.Client, store *localstore.Store) {
	interval := utils.GetEnvAsDuration("SYNC_INTERVAL", 30*time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Sync(ctx, store); err != nil {
				log.Printf("Sync failed: %v", err)
			}
		}
	}
}
