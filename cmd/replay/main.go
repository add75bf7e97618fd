// Command replay loads a previously saved simulation snapshot and reports
// its contents, the read-only counterpart to cmd/simserver's save
// endpoint. Adapted from the teacher's cmd/importer/main.go: flag-driven,
// validates its required input up front, connects to the same pool the
// server uses, and logs a structured summary of what it found.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/transitsim/microsim/internal/persist"
)

func main() {
	name := flag.String("name", "", "name of the saved snapshot to replay (required)")
	flag.Parse()

	if *name == "" {
		fmt.Println("Usage: replay --name=<snapshot-name>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Printf("loading snapshot %q...", *name)

	pool, err := persist.GetPool()
	if err != nil {
		log.Fatalf("failed to connect to persistence store: %v", err)
	}
	defer persist.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := persist.LoadSnapshot(ctx, pool, *name)
	if err != nil {
		log.Fatalf("failed to load snapshot %q: %v", *name, err)
	}

	log.Printf("snapshot %q saved at %s", *name, snap.SavedAt.Format(time.RFC3339))
	log.Printf("  latest_time: %s", snap.LatestTime)
	log.Printf("  last_time:   %s", snap.LastTime)
	log.Printf("  cars:        %d", len(snap.Cars))
	log.Printf("  queues:      %d", len(snap.Queues))
	log.Printf("  path_requests pending at save time: %d", len(snap.PathRequests))
}
