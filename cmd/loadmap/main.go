// Command loadmap parses a lane/turn map description file and loads it
// into the worldmap singleton, the analogue of the teacher's
// cmd/rebuild-graph tool: both populate an in-memory routing structure
// from durable storage before anything else can run against it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/transitsim/microsim/internal/worldmap"
)

// mapFile is the on-disk JSON shape a scenario's map_path points at.
type mapFile struct {
	Lanes []worldmap.Lane `json:"lanes"`
	Turns []worldmap.Turn `json:"turns"`
}

func main() {
	path := flag.String("map", "", "path to a lane/turn map JSON file (required)")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: loadmap --map=<path.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*path); os.IsNotExist(err) {
		log.Fatalf("map file not found: %s", *path)
	}

	log.Printf("loading map from %s", *path)

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("failed to read map file: %v", err)
	}

	var mf mapFile
	if err := json.Unmarshal(data, &mf); err != nil {
		log.Fatalf("failed to parse map file: %v", err)
	}

	m := worldmap.GetMap()
	m.LoadLanesAndTurns(mf.Lanes, mf.Turns)

	log.Printf("map loaded: %d lanes, %d turns", len(mf.Lanes), len(mf.Turns))
}
