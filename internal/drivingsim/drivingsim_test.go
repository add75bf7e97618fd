package drivingsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitsim/microsim/internal/car"
	"github.com/transitsim/microsim/internal/collab"
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/simtime"
	"github.com/transitsim/microsim/internal/worldmap"
)

func newTestCar(id model.CarID, v model.Vehicle, r router.Router, state car.CarState) *car.Car {
	return car.New(id, v, r, state)
}

func carQueuedAt(_ float64) car.CarState {
	return car.Queued()
}

type fakeMap struct {
	lengths map[model.Traversable]float64
	speeds  map[model.Traversable]float64
}

func newFakeMap() *fakeMap {
	return &fakeMap{lengths: map[model.Traversable]float64{}, speeds: map[model.Traversable]float64{}}
}

func (m *fakeMap) withLane(id model.LaneID, length, speed float64) model.Traversable {
	t := model.Lane(id)
	m.lengths[t] = length
	m.speeds[t] = speed
	return t
}

func (m *fakeMap) Lane(id model.LaneID) (worldmap.Lane, bool) { return worldmap.Lane{}, false }
func (m *fakeMap) Turn(id model.TurnID) (worldmap.Turn, bool) { return worldmap.Turn{}, false }
func (m *fakeMap) Length(t model.Traversable) float64         { return m.lengths[t] }
func (m *fakeMap) SpeedLimit(t model.Traversable) float64     { return m.speeds[t] }
func (m *fakeMap) Slice(t model.Traversable, start, end float64) []worldmap.Point { return nil }
func (m *fakeMap) AllLanes() []model.LaneID                   { return nil }
func (m *fakeMap) AllTurns() []model.TurnID                   { return nil }

func freshCollaborators() Collaborators {
	return Collaborators{
		Intersections: collab.NewInMemoryIntersections(),
		Parking:       collab.NewInMemoryParking(),
		Trips:         collab.NewInMemoryTrips(),
		Transit:       collab.NewInMemoryTransit(),
		Walking:       collab.NewInMemoryWalking(),
	}
}

func TestEmptyMapTick(t *testing.T) {
	m := newFakeMap()
	ds := New(m)
	co := freshCollaborators()

	assert.NotPanics(t, func() { ds.Step(simtime.T(0), co) })
	assert.Empty(t, ds.GetAllDrawCars(simtime.T(0)))
}

func TestSingleCarCrossAndVanish(t *testing.T) {
	m := newFakeMap()
	lane := m.withLane(1, 100, 10) // 100m @ 10 units/sec -> 10s to cross
	ds := New(m)
	ds.AddQueue(lane)
	co := freshCollaborators()

	id := model.NewCarID()
	ok := ds.StartCarOnLane(simtime.T(0), id, model.Vehicle{ID: id, Length: 4}, 1, nil,
		[]model.Traversable{lane}, router.ActionAtEnd{Kind: router.ActionVanishAtBorder, Border: 7}, 99, co)
	require.True(t, ok)

	cars := ds.GetAllDrawCars(simtime.T(0))
	require.Len(t, cars, 1)
	assert.Equal(t, "CROSSING", cars[0].State)

	tCross := simtime.T(0).Add(simtime.FromSeconds(10))
	afterCross := tCross.Add(simtime.FromSeconds(1))

	ds.Step(afterCross, co)
	// First step: promotes to Queued, then Phase 2 resolves the vanish in
	// the same tick since the car is already on its last (only) step.
	assert.False(t, ds.CarExists(id))

	trips := co.Trips.(*collab.InMemoryTrips)
	assert.Len(t, trips.Events, 1)
}

func TestLeaderVanishFollowerAdvances(t *testing.T) {
	// Scenario 3 (§8): two cars 5m apart, leader VanishAtBorder at t=10s.
	// At t=10s the follower was Queued; on the next tick it must be
	// resynthesized to Crossing starting at 100 - leaderLength -
	// FOLLOWING_DISTANCE, not at the geometric end.
	m := newFakeMap()
	lane := m.withLane(1, 100, 10)
	ds := New(m)
	ds.AddQueue(lane)
	co := freshCollaborators()

	leaderID := model.NewCarID()
	leaderCursor := router.NewPathCursor([]model.Traversable{lane}, router.ActionAtEnd{Kind: router.ActionVanishAtBorder})
	leader := newTestCar(leaderID, model.Vehicle{ID: leaderID, Length: 4}, leaderCursor, carQueuedAt(0))
	ds.cars[leaderID] = leader

	followerID := model.NewCarID()
	followerCursor := router.NewPathCursor([]model.Traversable{lane}, router.ActionAtEnd{Kind: router.ActionVanishAtBorder})
	follower := newTestCar(followerID, model.Vehicle{ID: followerID, Length: 4}, followerCursor, carQueuedAt(0))
	ds.cars[followerID] = follower

	ds.queues[lane].PushTail(leaderID)
	ds.queues[lane].PushTail(followerID)

	tenSeconds := simtime.T(0).Add(simtime.FromSeconds(10))
	ds.Step(tenSeconds.Add(simtime.FromSeconds(1)), co)

	require.False(t, ds.CarExists(leaderID))
	require.True(t, ds.CarExists(followerID))

	qOf, ok := ds.QueueOf(followerID)
	require.True(t, ok)
	assert.Equal(t, lane, qOf)

	gotState := ds.cars[followerID].State
	assert.Equal(t, "CROSSING", string(gotState.Kind))
	assert.InDelta(t, 100-4-1.0, gotState.DistStart, 0.001)
}

func TestBusDwell(t *testing.T) {
	m := newFakeMap()
	stopLane := m.withLane(1, 50, 10)
	ds := New(m)
	ds.AddQueue(stopLane)
	co := freshCollaborators()

	busID := model.NewCarID()
	require.True(t, ds.StartCarOnLane(simtime.T(0), busID, model.Vehicle{ID: busID, Kind: model.VehicleBus, Length: 12}, 1, nil,
		[]model.Traversable{stopLane}, router.ActionAtEnd{Kind: router.ActionBusAtStop}, 99, co))

	arrival := simtime.T(0).Add(simtime.FromSeconds(50))
	ds.Step(arrival, co)

	cars := ds.GetAllDrawCars(arrival)
	require.Len(t, cars, 1)
	assert.Equal(t, "IDLING", cars[0].State)

	// Install a continuation and let the dwell complete.
	nextLane := m.withLane(2, 40, 10)
	transit := co.Transit.(*collab.InMemoryTransit)
	transit.SetContinuation(busID, router.NewPathCursor([]model.Traversable{nextLane}, router.ActionAtEnd{Kind: router.ActionVanishAtBorder}))
	ds.AddQueue(nextLane)

	afterDwell := arrival.Add(simtime.FromSeconds(11))
	ds.Step(afterDwell, co)

	cars = ds.GetAllDrawCars(afterDwell)
	require.Len(t, cars, 1)
	assert.Equal(t, "CROSSING", cars[0].State)
}

func TestParkingRaceFreedom(t *testing.T) {
	m := newFakeMap()
	lane := m.withLane(1, 100, 10)
	ds := New(m)
	ds.AddQueue(lane)
	co := freshCollaborators()

	spot := model.ParkingSpotID(42)
	leaderID := model.NewCarID()
	require.True(t, ds.StartCarOnLane(simtime.T(0), leaderID, model.Vehicle{ID: leaderID, Length: 4}, 1, nil,
		[]model.Traversable{lane}, router.ActionAtEnd{Kind: router.ActionStartParking, Spot: spot}, 99, co))

	tenSeconds := simtime.T(0).Add(simtime.FromSeconds(10))
	ds.Step(tenSeconds.Add(simtime.FromSeconds(1)), co)

	parking := co.Parking.(*collab.InMemoryParking)
	assert.True(t, parking.IsReserved(spot))

	cars := ds.GetAllDrawCars(tenSeconds.Add(simtime.FromSeconds(1)))
	require.Len(t, cars, 1)
	assert.Equal(t, "PARKING", cars[0].State)
}
