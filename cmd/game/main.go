package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pefman/tactics-duel/internal/catalog"
	"github.com/pefman/tactics-duel/internal/config"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/journal"
	"github.com/pefman/tactics-duel/internal/server"
	"github.com/pefman/tactics-duel/internal/session"
	"github.com/pefman/tactics-duel/internal/stats"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

func loadCatalog(path string) (*game.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	var (
		j      session.Journal
		reader server.JournalReader
	)
	if cfg.JournalPath != "" {
		store, err := journal.Open(cfg.JournalPath)
		if err != nil {
			log.Fatalf("journal: %v", err)
		}
		defer store.Close()
		j, reader = store, store
	}

	manager := session.NewManager(game.NewExecutor(cat), j, session.Options{DodgeTimeout: cfg.DodgeTimeout})
	defer manager.Close()
	srv := server.New(manager, server.Options{
		ScenarioDir: cfg.ScenarioDir,
		Journal:     reader,
		Stats:       stats.New(),
		Version:     buildVersion,
		BuildTime:   buildTime,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("tactics duel listening on %s (abilities=%d journal=%q dodge_timeout=%s)",
			httpServer.Addr, len(cat.Codes()), cfg.JournalPath, cfg.DodgeTimeout)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Printf("stopped")
}
