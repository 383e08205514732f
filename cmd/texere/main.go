// Command texere runs the revision-log server: the append-only
// per-document log with its two RPCs, plus the WebSocket wake-up
// notifier. Load config, open the store, wire the server, install a
// signal-triggered graceful shutdown, serve.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreseekdev/texere/internal/config"
	"github.com/coreseekdev/texere/internal/telemetry"
	"github.com/coreseekdev/texere/pkg/revisionlog"
	"github.com/coreseekdev/texere/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := telemetry.FromEnv("main")
		log.Error("failed to load config: %v", err)
		os.Exit(1)
	}

	log := telemetry.New("main", telemetry.ParseLevel(cfg.LogLevel))
	log.Info("starting texere revision-log server")
	log.Info("addr: %s", cfg.Addr)

	var revLog revisionlog.Log
	if cfg.SQLitePath != "" {
		log.Info("revision log: sqlite at %s", cfg.SQLitePath)
		store, err := revisionlog.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Error("failed to open sqlite revision log: %v", err)
			os.Exit(1)
		}
		defer store.Close()
		revLog = store
	} else {
		log.Info("revision log: in-memory")
		revLog = revisionlog.NewMemory()
	}

	notifier := server.NewNotifier()
	handler := server.NewHandler(revLog, server.AllowAllAuthorizer{}, notifier, cfg.MaxRevisionsPerResponse)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("/api/documents/watch", func(w http.ResponseWriter, r *http.Request) {
		docID := r.URL.Query().Get("doc_id")
		notifier.HandleWebSocket(docID)(w, r)
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed: %v", err)
		}
		os.Exit(0)
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error: %v", err)
		os.Exit(1)
	}
}
