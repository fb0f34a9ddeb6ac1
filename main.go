package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/bodytrace/mocap/internal/api"
	"github.com/bodytrace/mocap/internal/broadcast"
	"github.com/bodytrace/mocap/internal/config"
	"github.com/bodytrace/mocap/internal/db"
	"github.com/bodytrace/mocap/internal/detector"
	"github.com/bodytrace/mocap/internal/rig"
	"github.com/bodytrace/mocap/internal/skeleton"
	"github.com/bodytrace/mocap/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode with the synthetic pose generator")
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", "", "Path to a JSON config file")
	modeFlag   = flag.String("mode", "", "Transport mode: passthrough or bvh (overrides config)")
)

// runCapture pumps detector frames into the hub until the source is
// exhausted or the context is cancelled.
func runCapture(ctx context.Context, det detector.Detector, hub *broadcast.Hub) {
	// Detect blocks without a context; unblock it by closing the
	// backend when we are told to stop.
	go func() {
		<-ctx.Done()
		det.Close()
	}()

	for {
		res, err := det.Detect()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("detector error: %v", err)
			}
			return
		}
		if err := hub.Publish(res); err != nil {
			if !errors.Is(err, broadcast.ErrClosed) {
				log.Printf("failed to publish frame: %v", err)
			}
			return
		}
	}
}

// saveCapture writes the accumulated motion document to the capture
// directory and archives it in the session database. A session with no
// frames is skipped.
func saveCapture(hub *broadcast.Hub, database *db.DB, captureDir string, started time.Time) (string, error) {
	acc := hub.Accumulator()
	if acc.Len() == 0 {
		return "", nil
	}

	doc, err := hub.ExportSnapshot()
	if err != nil {
		return "", fmt.Errorf("failed to render capture: %w", err)
	}

	if err := os.MkdirAll(captureDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create capture directory: %w", err)
	}
	path := filepath.Join(captureDir, fmt.Sprintf("mocap_%s.bvh", started.Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("failed to write capture file: %w", err)
	}

	id := uuid.NewString()
	if err := database.RecordSession(id, started, acc.Len(), acc.FrameTime(), doc); err != nil {
		return "", fmt.Errorf("failed to archive session: %w", err)
	}
	return path, nil
}

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	mode := cfg.GetMode()
	if *modeFlag != "" {
		mode = *modeFlag
	}
	if mode != string(broadcast.ModePassthrough) && mode != string(broadcast.ModeBVH) {
		log.Fatalf("invalid mode %q: must be passthrough or bvh", mode)
	}

	backend := cfg.GetDetectorBackend()
	if *devMode {
		backend = "mock"
	}
	interval := time.Second / time.Duration(cfg.GetFPS())
	det, err := detector.Open(backend, cfg.GetDetectorSource(), interval)
	if err != nil {
		log.Fatalf("failed to open %s detector: %v", backend, err)
	}
	defer det.Close()

	mapper := rig.Mapper{
		Scale:      cfg.GetScale(),
		DepthScale: cfg.GetDepthScale(),
		Mirror:     cfg.GetMirror(),
	}
	enc := rig.NewEncoder(mapper, skeleton.New())
	hub := broadcast.NewHub(broadcast.Mode(mode), enc, cfg.FrameTime())

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("failed to open session database: %v", err)
	}
	defer database.Close()

	started := time.Now()
	log.Printf("mocap %s starting: mode=%s detector=%s fps=%d", version.String(), mode, backend, cfg.GetFPS())

	// Wait group for the capture and HTTP server routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the capture routine to pump detector frames into the hub
	wg.Add(1)
	go func() {
		defer wg.Done()
		runCapture(ctx, det, hub)
		log.Print("capture routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the API handlers under /api and the live feed at /ws
		apiMux := api.NewServer(hub, database).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))
		mux.HandleFunc("/ws", hub.HandleWS)

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()

	// flush the recording before disconnecting the clients
	if path, err := saveCapture(hub, database, cfg.GetCaptureDir(), started); err != nil {
		log.Printf("failed to save capture: %v", err)
	} else if path != "" {
		log.Printf("saved capture to %s (%d frames)", path, hub.Accumulator().Len())
	}

	hub.Close()
	log.Printf("Graceful shutdown complete")
}
