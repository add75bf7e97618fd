package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitsim/microsim/internal/collab"
	"github.com/transitsim/microsim/internal/drivingsim"
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/scheduler"
	"github.com/transitsim/microsim/internal/simtime"
	"github.com/transitsim/microsim/internal/worldmap"
)

// fakeMap is an empty worldmap.Map good enough to construct a DrivingSim
// without a real map loaded — the API tests here exercise routing and
// response shape, not the driving model itself.
type fakeMap struct{}

func (fakeMap) Lane(id model.LaneID) (worldmap.Lane, bool) { return worldmap.Lane{}, false }
func (fakeMap) Turn(id model.TurnID) (worldmap.Turn, bool) { return worldmap.Turn{}, false }
func (fakeMap) Length(t model.Traversable) float64         { return 0 }
func (fakeMap) SpeedLimit(t model.Traversable) float64     { return 0 }
func (fakeMap) Slice(t model.Traversable, start, end float64) []worldmap.Point { return nil }
func (fakeMap) AllLanes() []model.LaneID { return nil }
func (fakeMap) AllTurns() []model.TurnID { return nil }

func newTestSimulation() *Simulation {
	ds := drivingsim.New(fakeMap{})
	co := drivingsim.Collaborators{
		Intersections: collab.NewInMemoryIntersections(),
		Parking:       collab.NewInMemoryParking(),
		Trips:         collab.NewInMemoryTrips(),
		Transit:       collab.NewInMemoryTransit(),
		Walking:       collab.NewInMemoryWalking(),
	}
	return NewSimulation(ds, scheduler.New(), co)
}

func TestSimulationStep(t *testing.T) {
	t.Run("no pending commands leaves time unchanged and reports not advanced", func(t *testing.T) {
		sim := newTestSimulation()
		before := sim.Sched.LatestTime()

		at, advanced := sim.Step()
		assert.False(t, advanced)
		assert.Equal(t, before, at)
	})

	t.Run("a pending command advances time to its scheduled point", func(t *testing.T) {
		sim := newTestSimulation()
		at := simtime.T(0).Add(simtime.FromSeconds(5))
		sim.Sched.Push(at, model.CallbackCommand{Label: "tick"})

		got, advanced := sim.Step()
		assert.True(t, advanced)
		assert.Equal(t, at, got)
	})
}

func TestServerRoutes(t *testing.T) {
	t.Run("draw-cars returns an empty list for an empty simulation", func(t *testing.T) {
		srv := NewServer(newTestSimulation())
		req := httptest.NewRequest("GET", "/draw-cars", nil)
		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("queues returns an empty summary for an empty simulation", func(t *testing.T) {
		srv := NewServer(newTestSimulation())
		req := httptest.NewRequest("GET", "/queues", nil)
		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("car detail rejects a malformed id", func(t *testing.T) {
		srv := NewServer(newTestSimulation())
		req := httptest.NewRequest("GET", "/car/not-a-uuid", nil)
		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("car detail reports 404 for an unknown but well-formed id", func(t *testing.T) {
		srv := NewServer(newTestSimulation())
		req := httptest.NewRequest("GET", "/car/"+model.NewCarID().String(), nil)
		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("step advances and reports the new time", func(t *testing.T) {
		sim := newTestSimulation()
		at := simtime.T(0).Add(simtime.FromSeconds(1))
		sim.Sched.Push(at, model.CallbackCommand{Label: "tick"})
		srv := NewServer(sim)

		req := httptest.NewRequest("POST", "/step", nil)
		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}
