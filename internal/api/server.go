// Package api exposes a debug/control HTTP surface over a running
// simulation: step, draw-cars, queue and per-car inspection, snapshot save
// and load, and a live car-position feed over a websocket. There is no
// endpoint for spawning cars. Adapted from the teacher's internal/api package
// (fiber app, fiber.Map JSON responses, the Health handler's multi-check
// shape) generalized from a transit-routing API to a simulation-control
// API, with the websocket feed grounded on niceyeti-tabular's
// server.publishUpdates (gorilla/websocket, periodic-drain loop).
package api

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/transitsim/microsim/internal/drivingsim"
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/pathcache"
	"github.com/transitsim/microsim/internal/persist"
	"github.com/transitsim/microsim/internal/scheduler"
	"github.com/transitsim/microsim/internal/simtime"
)

// Simulation is the subset of a running sim this API needs, small enough
// that callers can wire it up without exposing the scheduler's full
// command-handling internals.
type Simulation struct {
	DS        *drivingsim.DrivingSim
	Sched     *scheduler.Scheduler
	Co        drivingsim.Collaborators
	mu        sync.Mutex
}

// NewSimulation wraps a DrivingSim/Scheduler pair for concurrent-safe API
// access — the debug server and the step loop both touch this state, so
// every handler that reads or changes it takes the lock (§5: DrivingSim itself isn't safe for
// concurrent use, so the API is the one place that must serialize).
func NewSimulation(ds *drivingsim.DrivingSim, sched *scheduler.Scheduler, co drivingsim.Collaborators) *Simulation {
	return &Simulation{DS: ds, Sched: sched, Co: co}
}

// Step advances the scheduler and driving sim by one command pop.
func (s *Simulation) Step() (simtime.T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t, ok := s.Sched.GetNext()
	if !ok {
		return s.Sched.LatestTime(), false
	}
	s.DS.Step(t, s.Co)
	return t, true
}

// Server bundles the fiber app and websocket hub around a Simulation.
type Server struct {
	app  *fiber.App
	sim  *Simulation
	hub  *hub
}

// NewServer builds the fiber app with every debug/control route registered.
func NewServer(sim *Simulation) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "microsim debug API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{app: app, sim: sim, hub: newHub()}

	app.Get("/health", s.health)
	app.Post("/step", s.step)
	app.Get("/draw-cars", s.drawCars)
	app.Get("/queues", s.queues)
	app.Get("/car/:id", s.carDetail)
	app.Post("/save/:name", s.save)
	app.Post("/restore/:name", s.restore)
	app.Get("/ws/cars", adaptor.HTTPHandler(s.hub))

	return s
}

// Listen starts the HTTP server.
func (s *Server) Listen(addr string) error {
	go s.hub.run()
	return s.app.Listen(addr)
}

// health reports liveness of the simulation plus its persistence/cache
// backends, mirroring the teacher's multi-check Health handler.
func (s *Server) health(c *fiber.Ctx) error {
	ctx := c.Context()

	dbErr := persist.HealthCheck(ctx)
	dbStatus := "ok"
	if dbErr != nil {
		dbStatus = dbErr.Error()
	}

	cacheErr := pathcache.HealthCheck(ctx)
	cacheStatus := "ok"
	if cacheErr != nil {
		cacheStatus = cacheErr.Error()
	}

	s.sim.mu.Lock()
	latest := s.sim.Sched.LatestTime()
	s.sim.mu.Unlock()

	status := "healthy"
	httpStatus := 200
	if dbErr != nil || cacheErr != nil {
		status = "unhealthy"
		httpStatus = 503
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"persist":   dbStatus,
			"pathcache": cacheStatus,
		},
		"latest_time": latest.String(),
	})
}

func (s *Server) step(c *fiber.Ctx) error {
	t, advanced := s.sim.Step()
	if advanced {
		s.sim.mu.Lock()
		cars := s.sim.DS.GetAllDrawCars(t)
		s.sim.mu.Unlock()
		s.hub.broadcast(cars)
	}
	return c.JSON(fiber.Map{
		"time":     t.String(),
		"advanced": advanced,
	})
}

func (s *Server) drawCars(c *fiber.Ctx) error {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	t := s.sim.Sched.LatestTime()
	return c.JSON(s.sim.DS.GetAllDrawCars(t))
}

func (s *Server) queues(c *fiber.Ctx) error {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return c.JSON(s.sim.DS.DrawUnzoomed())
}

func (s *Server) carDetail(c *fiber.Ctx) error {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()

	idStr := c.Params("id")
	id, err := model.ParseCarID(idStr)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid car id"})
	}
	if !s.sim.DS.CarExists(id) {
		return c.Status(404).JSON(fiber.Map{"error": "no such car"})
	}
	return c.JSON(fiber.Map{
		"tooltip": s.sim.DS.TooltipLines(id),
		"path":    s.sim.DS.GetPath(id),
		"trace":   s.sim.DS.TraceRoute(id),
	})
}

// save stores the scheduler's latest/last times and the path requests of
// pending spawn commands under the given name. The snapshot's Cars and
// Queues are left empty.
func (s *Server) save(c *fiber.Ctx) error {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()

	name := c.Params("name")
	requests := s.sim.Sched.BeforeSavestate()
	defer s.sim.Sched.AfterSavestate(requests)

	snap := persist.Snapshot{
		SavedAt:      time.Now(),
		LatestTime:   s.sim.Sched.LatestTime(),
		LastTime:     s.sim.Sched.LastTime(),
		PathRequests: requests,
	}

	p, err := persist.GetPool()
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": err.Error()})
	}
	if err := persist.SaveSnapshot(c.Context(), p, name, snap); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"saved": name})
}

// restore loads the named snapshot and reports its latest time and pending
// path-request count. It does not apply the snapshot to the running
// simulation.
func (s *Server) restore(c *fiber.Ctx) error {
	name := c.Params("name")
	p, err := persist.GetPool()
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": err.Error()})
	}
	snap, err := persist.LoadSnapshot(c.Context(), p, name)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"restored":      name,
		"latest_time":   snap.LatestTime.String(),
		"path_requests": len(snap.PathRequests),
	})
}
