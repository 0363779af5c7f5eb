package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipkeep/clipkeep/internal/api"
	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/download"
	"github.com/clipkeep/clipkeep/internal/folders"
	"github.com/clipkeep/clipkeep/internal/library"
	"github.com/clipkeep/clipkeep/internal/probe"
	"github.com/clipkeep/clipkeep/internal/transcode"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	DefaultAddr = "127.0.0.1:8090"

	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

func main() {
	addr := flag.String("addr", DefaultAddr, "listen address")
	settingsPath := flag.String("settings", "", "settings file path (default: platform config dir)")
	flag.Parse()

	log.Printf("ClipKeep v%s starting...", version)

	var cfg *config.Store
	var err error
	if *settingsPath != "" {
		cfg, err = config.NewAt(*settingsPath)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	prober := probe.NewService()
	lib := library.NewCatalog(cfg, prober)
	mgr := folders.NewManager(cfg, lib)
	if cfg.IsConfigured() {
		if err := mgr.EnsureStructure(); err != nil {
			log.Printf("ensure library structure: %v", err)
		}
	} else {
		log.Printf("content folder not configured yet, set it via POST /api/settings")
	}
	orch := download.NewOrchestrator(cfg, prober, lib, mgr, transcode.NewService())

	server := &http.Server{
		Addr:              *addr,
		Handler:           api.NewServer(cfg, prober, orch, lib, mgr, version),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	go func() {
		log.Printf("listening on http://%s", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	orch.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("bye")
}
