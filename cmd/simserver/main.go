// Command simserver runs a driving microsimulation until its scheduler
// drains while exposing the debug/control HTTP API over it. The scenario's
// duration is logged but does not bound the run. Adapted from the teacher's cmd/api/main.go: same
// fiber-app-plus-graceful-shutdown shape, generalized from a stateless
// routing API to a stateful simulation process with its own step loop.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/transitsim/microsim/internal/api"
	"github.com/transitsim/microsim/internal/collab"
	"github.com/transitsim/microsim/internal/drivingsim"
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/scenario"
	"github.com/transitsim/microsim/internal/scheduler"
	"github.com/transitsim/microsim/internal/simtime"
	"github.com/transitsim/microsim/internal/worldmap"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML file (required)")
	addr := flag.String("addr", ":8090", "debug API listen address")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Println("Usage: simserver --scenario=<path.yaml> [--addr=:8090]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Println("starting microsim simulation server...")

	cfg, err := scenario.FromYaml(*scenarioPath)
	if err != nil {
		log.Fatalf("failed to load scenario: %v", err)
	}
	log.Printf("loaded scenario: map=%s duration=%.0fs spawns=%d", cfg.MapPath, cfg.DurationS, len(cfg.Spawns))

	m := worldmap.GetMap()
	var mf struct {
		Lanes []worldmap.Lane `json:"lanes"`
		Turns []worldmap.Turn `json:"turns"`
	}
	if data, err := os.ReadFile(cfg.MapPath); err != nil {
		log.Fatalf("failed to read map file %s: %v", cfg.MapPath, err)
	} else if err := json.Unmarshal(data, &mf); err != nil {
		log.Fatalf("failed to parse map file %s: %v", cfg.MapPath, err)
	}
	m.LoadLanesAndTurns(mf.Lanes, mf.Turns)

	ds := drivingsim.New(m)
	for _, id := range m.AllLanes() {
		ds.AddQueue(model.Lane(id))
	}
	for _, id := range m.AllTurns() {
		ds.AddQueue(model.Turn(id))
	}

	co := drivingsim.Collaborators{
		Intersections: collab.NewInMemoryIntersections(),
		Parking:       collab.NewInMemoryParking(),
		Trips:         collab.NewInMemoryTrips(),
		Transit:       collab.NewInMemoryTransit(),
		Walking:       collab.NewInMemoryWalking(),
	}

	sched := scheduler.New()
	for _, spawn := range cfg.SortedSpawns() {
		t := simtime.T(0).Add(simtime.FromSeconds(spawn.AtSeconds))
		carID := model.NewCarID()
		sched.Push(t, model.SpawnCarCommand{
			Params: model.SpawnCarParams{
				CarID:   carID,
				Vehicle: model.Vehicle{ID: carID, Kind: spawn.VehicleKind, Length: defaultLength(spawn.VehicleKind)},
				Lane:    spawn.StartLane,
				FromSpot: spawn.FromSpot,
				Path:    model.PathRequest{Start: spawn.StartLane, Goal: spawn.GoalLane},
			},
		})
	}

	sim := api.NewSimulation(ds, sched, co)
	server := api.NewServer(sim)

	go runLoop(ds, sched, co, scheduler.NewRetryPolicy())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("shutting down gracefully...")
	}()

	log.Printf("debug API listening on %s", *addr)
	if err := server.Listen(*addr); err != nil {
		log.Fatalf("debug API server failed: %v", err)
	}
}

func defaultLength(kind model.VehicleKind) float64 {
	switch kind {
	case model.VehicleBus:
		return 12
	case model.VehicleBike:
		return 2
	default:
		return 4.5
	}
}

// runLoop pops scheduler commands and steps the driving sim for as long as
// commands remain, handling SpawnCarCommand directly here since path
// resolution (straight single-lane paths for this minimal scenario runner)
// doesn't warrant its own collaborator. A blocked spawn backs off via
// retry rather than retrying every tick, so sustained contention at one
// lane doesn't spin the scheduler (§7).
func runLoop(ds *drivingsim.DrivingSim, sched *scheduler.Scheduler, co drivingsim.Collaborators, retry *scheduler.RetryPolicy) {
	for {
		cmd, t, ok := sched.GetNext()
		if !ok {
			log.Println("simulation complete: scheduler drained")
			return
		}

		switch c := cmd.(type) {
		case model.SpawnCarCommand:
			path := []model.Traversable{model.Lane(c.Params.Lane)}
			started := ds.StartCarOnLane(t, c.Params.CarID, c.Params.Vehicle, c.Params.Lane, c.Params.FromSpot, path,
				router.ActionAtEnd{Kind: router.ActionVanishAtBorder}, 0, co)
			if started {
				retry.Clear(c.Key())
			} else if c.Retry {
				sched.Push(t.Add(retry.NextDelay(c.Key())), c)
			}
		}

		ds.Step(t, co)
		time.Sleep(time.Millisecond) // keep the loop from starving the debug API goroutine
	}
}
