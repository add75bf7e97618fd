package car

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/simtime"
	"github.com/transitsim/microsim/internal/worldmap"
)

type fakeMap struct {
	lengths map[model.Traversable]float64
	speeds  map[model.Traversable]float64
}

func newFakeMap() *fakeMap {
	return &fakeMap{lengths: map[model.Traversable]float64{}, speeds: map[model.Traversable]float64{}}
}

func (m *fakeMap) Lane(id model.LaneID) (worldmap.Lane, bool) { return worldmap.Lane{}, false }
func (m *fakeMap) Turn(id model.TurnID) (worldmap.Turn, bool) { return worldmap.Turn{}, false }
func (m *fakeMap) Length(t model.Traversable) float64         { return m.lengths[t] }
func (m *fakeMap) SpeedLimit(t model.Traversable) float64     { return m.speeds[t] }
func (m *fakeMap) Slice(t model.Traversable, start, end float64) []worldmap.Point { return nil }
func (m *fakeMap) AllLanes() []model.LaneID                   { return nil }
func (m *fakeMap) AllTurns() []model.TurnID                   { return nil }

func TestCarCrossingState(t *testing.T) {
	lane := model.Lane(1)
	m := newFakeMap()
	m.lengths[lane] = 100
	m.speeds[lane] = 10 // 10 units/sec

	cursor := router.NewPathCursor([]model.Traversable{lane}, router.ActionAtEnd{Kind: router.ActionVanishAtBorder})
	c := New(model.NewCarID(), model.Vehicle{Length: 4}, cursor, Queued())

	state := c.CrossingState(0, simtime.T(0), m)
	require.Equal(t, StateCrossing, state.Kind)
	assert.Equal(t, 0.0, state.DistStart)
	assert.Equal(t, 100.0, state.DistEnd)
	assert.Equal(t, simtime.FromSeconds(10), state.Interval.Duration())
}

func TestCarFreeFrontPosition(t *testing.T) {
	lane := model.Lane(1)
	m := newFakeMap()
	m.lengths[lane] = 100
	m.speeds[lane] = 10

	cursor := router.NewPathCursor([]model.Traversable{lane}, router.ActionAtEnd{Kind: router.ActionVanishAtBorder})
	c := New(model.NewCarID(), model.Vehicle{Length: 4}, cursor, Queued())

	t.Run("queued car is pinned at the segment end", func(t *testing.T) {
		assert.Equal(t, 100.0, c.FreeFrontPosition(simtime.T(0), m))
	})

	t.Run("crossing car interpolates linearly through its interval", func(t *testing.T) {
		c.State = c.CrossingState(0, simtime.T(0), m)
		half := simtime.T(0).Add(simtime.FromSeconds(5))
		assert.InDelta(t, 50.0, c.FreeFrontPosition(half, m), 0.001)
	})

	t.Run("unparking/parking/idling report the stored front distance", func(t *testing.T) {
		c.State = Unparking(42, simtime.NewInterval(simtime.T(0), simtime.T(0).Add(simtime.TimeToUnpark)))
		assert.Equal(t, 42.0, c.FreeFrontPosition(simtime.T(0), m))
	})
}
