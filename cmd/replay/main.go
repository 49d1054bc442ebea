// Command replay re-executes journaled battles and reports any whose stored
// results can no longer be reproduced. Battles come from a local journal file
// or, with -remote, from a running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pefman/tactics-duel/internal/api"
	"github.com/pefman/tactics-duel/internal/catalog"
	"github.com/pefman/tactics-duel/internal/game"
	"github.com/pefman/tactics-duel/internal/journal"
	"github.com/pefman/tactics-duel/internal/session"
)

// source yields the journal of one battle.
type source interface {
	Journal(ctx context.Context, battleID string) ([]journal.Entry, error)
}

type localSource struct {
	*journal.Store
}

func (l localSource) Journal(ctx context.Context, battleID string) ([]journal.Entry, error) {
	return l.List(ctx, battleID)
}

func main() {
	var (
		dbPath      = flag.String("journal", "data/journal.db", "SQLite journal file")
		catalogPath = flag.String("catalog", "", "ability catalog YAML (built-in when empty)")
		battleID    = flag.String("battle", "", "replay only this battle")
		dump        = flag.Bool("dump", false, "print the final arena of each battle as JSON")
		remote      = flag.String("remote", "", "fetch -battle from a running server instead of the local journal")
	)
	flag.Parse()

	cat, err := catalog.Default()
	if *catalogPath != "" {
		cat, err = catalog.Load(*catalogPath)
	}
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	ctx := context.Background()
	var src source
	if *remote != "" {
		if *battleID == "" {
			log.Fatalf("-remote needs -battle")
		}
		src = api.NewClient(*remote)
	} else {
		store, err := journal.Open(*dbPath)
		if err != nil {
			log.Fatalf("journal: %v", err)
		}
		defer store.Close()
		src = localSource{store}
	}

	ids := []string{*battleID}
	if *battleID == "" {
		if ids, err = src.(localSource).Battles(ctx); err != nil {
			log.Fatalf("journal: %v", err)
		}
	}

	exec := game.NewExecutor(cat)
	failed := 0
	for _, id := range ids {
		entries, err := src.Journal(ctx, id)
		if err != nil {
			log.Fatalf("journal: %v", err)
		}
		arena, err := session.Replay(exec, entries)
		if err != nil {
			failed++
			fmt.Printf("%s: DIVERGED: %v\n", id, err)
			continue
		}
		winner, over := arena.Over()
		fmt.Printf("%s: ok entries=%d seq=%d over=%v winner=%q\n", id, len(entries), arena.Sequence, over, winner)
		if *dump {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(arena.Snapshot())
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
