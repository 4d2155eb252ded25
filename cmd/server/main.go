// Command server hosts the simulation over a WebSocket endpoint. Each
// connection may initialize and drive one run; every run is recorded to
// compressed JSONL logs, the sqlite archive and periodic snapshots, with
// an optional mirror to S3-compatible object storage.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"harvestsim.ai/internal/persistence/r2s3"
	"harvestsim.ai/internal/persistence/recorder"
	"harvestsim.ai/internal/persistence/rundb"
	"harvestsim.ai/internal/protocol"
	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/tuning"
	"harvestsim.ai/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		schemasDir  = flag.String("schemas", "./schemas", "inbound message schema directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		catalogPath = flag.String("catalog", "", "path to catalog.yaml (default: <configs>/catalog.yaml)")
		enablePprof = flag.Bool("pprof", false, "expose /debug/pprof")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tun, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("no tuning file at %s, using defaults", tp)
		tun = tuning.Defaults()
	}

	cp := strings.TrimSpace(*catalogPath)
	if cp == "" {
		cp = filepath.Join(*configDir, "catalog.yaml")
	}
	cat, err := catalogs.Load(cp)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	logger.Printf("catalog loaded items=%d recipes=%d items_digest=%s", len(cat.Items), len(cat.Recipes), cat.ItemsDigest)

	validator, err := protocol.LoadValidator(*schemasDir)
	if err != nil {
		logger.Fatalf("load schemas: %v", err)
	}

	_ = os.MkdirAll(*dataDir, 0o755)
	db, err := rundb.Open(filepath.Join(*dataDir, "runs.db"))
	if err != nil {
		logger.Fatalf("open run db: %v", err)
	}
	defer db.Close()

	mirror, err := buildMirror(*dataDir, logger)
	if err != nil {
		logger.Fatalf("configure mirror: %v", err)
	}
	if mirror != nil {
		defer mirror.Close()
	}

	rec := recorder.New(*dataDir, db, mirror, logger)

	srv := ws.NewServer(tun, cat, validator, ws.Hooks{
		OnRun:      rec.OnRun,
		OnTick:     rec.OnTick,
		OnComplete: rec.OnComplete,
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.ListRuns(r.Context(), 100)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})
	if *enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	logger.Printf("listening on %s (ws endpoint /v1/ws)", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Printf("signal %v, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Printf("serve: %v", err)
		}
	}
	_ = httpSrv.Close()
}

// buildMirror wires the object-store mirror from the environment. Unset
// HS_MIRROR leaves mirroring off.
func buildMirror(dataDir string, logger *log.Logger) (*r2s3.Mirror, error) {
	if v := strings.TrimSpace(os.Getenv("HS_MIRROR")); v != "true" && v != "1" {
		return nil, nil
	}
	endpoint := strings.TrimSpace(os.Getenv("HS_MIRROR_ENDPOINT"))
	bucket := strings.TrimSpace(os.Getenv("HS_MIRROR_BUCKET"))
	accessKey := strings.TrimSpace(os.Getenv("HS_MIRROR_ACCESS_KEY_ID"))
	secretKey := strings.TrimSpace(os.Getenv("HS_MIRROR_SECRET_ACCESS_KEY"))
	prefix := strings.TrimSpace(os.Getenv("HS_MIRROR_PREFIX"))
	if endpoint == "" || bucket == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("HS_MIRROR set but HS_MIRROR_ENDPOINT/HS_MIRROR_BUCKET/HS_MIRROR_ACCESS_KEY_ID/HS_MIRROR_SECRET_ACCESS_KEY are not fully set")
	}
	client, err := r2s3.New(endpoint, bucket, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return r2s3.NewMirror(client, dataDir, prefix, 2, logger), nil
}
