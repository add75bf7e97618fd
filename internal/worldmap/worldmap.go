// Package worldmap is the core's Map external collaborator (spec.md §6):
// it enumerates lanes and turns, supplies segment lengths and geometry,
// and slices a traversable by [start,end] into renderable geometry. It is
// adapted from the teacher's internal/graph package — an RWMutex-guarded
// in-memory graph, loadable from Postgres, exposed as a process-wide
// singleton — generalized from a transit stop/route graph to a lane/turn
// road network.
package worldmap

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/transitsim/microsim/internal/model"
)

// Point is a 2D map coordinate, matching the teacher's bare lat/lon float
// pair convention (models.Node.Lat/Lon) rather than a geometry library
// type — the core only ever slices and measures, never renders.
type Point struct {
	X, Y float64
}

// Lane describes one directed road segment.
type Lane struct {
	ID             model.LaneID
	Length         float64
	SpeedLimit     float64 // distance units per second
	SrcIntersection model.IntersectionID
	DstIntersection model.IntersectionID
	Geometry       []Point
}

// Turn describes one movement through an intersection linking two lanes.
type Turn struct {
	ID            model.TurnID
	Src           model.LaneID
	Dst           model.LaneID
	Intersection  model.IntersectionID
	Length        float64
	Geometry      []Point
}

// Map is the external Map contract named in spec.md §6.
type Map interface {
	Lane(id model.LaneID) (Lane, bool)
	Turn(id model.TurnID) (Turn, bool)
	Length(t model.Traversable) float64
	SpeedLimit(t model.Traversable) float64
	Slice(t model.Traversable, start, end float64) []Point
	AllLanes() []model.LaneID
	AllTurns() []model.TurnID
}

// InMemoryMap holds the entire lane/turn network in memory, following the
// teacher's InMemoryGraph: RWMutex-guarded, populated once via
// LoadLanesAndTurns and read concurrently thereafter. The
// driving simulation itself is single-threaded (§5), but the debug HTTP
// API reads the map from a different goroutine than the simulation loop,
// so the guard is not vestigial.
type InMemoryMap struct {
	mu     sync.RWMutex
	lanes  map[model.LaneID]Lane
	turns  map[model.TurnID]Turn
	loaded bool
}

var (
	globalMap     *InMemoryMap
	globalMapOnce sync.Once
)

// GetMap returns the process-wide singleton map, matching the teacher's
// GetGraph(). Most callers should prefer an explicitly constructed
// *InMemoryMap (via New) for testability; GetMap exists for cmd/simserver
// and cmd/loadmap, each of which loads a map file into the singleton of its
// own process.
func GetMap() *InMemoryMap {
	globalMapOnce.Do(func() {
		globalMap = New()
	})
	return globalMap
}

// New returns an empty, unloaded map.
func New() *InMemoryMap {
	return &InMemoryMap{
		lanes: make(map[model.LaneID]Lane),
		turns: make(map[model.TurnID]Turn),
	}
}

// IsLoaded reports whether the map has been populated.
func (m *InMemoryMap) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// LoadLanesAndTurns replaces the map's contents, matching the teacher's
// atomic Load-then-swap pattern in LoadFromDB — readers never observe a
// partially populated map.
func (m *InMemoryMap) LoadLanesAndTurns(lanes []Lane, turns []Turn) {
	laneMap := make(map[model.LaneID]Lane, len(lanes))
	for _, l := range lanes {
		laneMap[l.ID] = l
	}
	turnMap := make(map[model.TurnID]Turn, len(turns))
	for _, t := range turns {
		turnMap[t.ID] = t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lanes = laneMap
	m.turns = turnMap
	m.loaded = true
}

func (m *InMemoryMap) Lane(id model.LaneID) (Lane, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lanes[id]
	return l, ok
}

func (m *InMemoryMap) Turn(id model.TurnID) (Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.turns[id]
	return t, ok
}

// Length returns a traversable's geometric length, panicking if the id is
// unknown — a missing map entry for a live traversable is an invariant
// violation (§7), not an expected failure.
func (m *InMemoryMap) Length(t model.Traversable) float64 {
	if t.IsLane() {
		lane, ok := m.Lane(t.Lane)
		if !ok {
			panic(fmt.Sprintf("worldmap: unknown lane %d", t.Lane))
		}
		return lane.Length
	}
	turn, ok := m.Turn(t.Turn)
	if !ok {
		panic(fmt.Sprintf("worldmap: unknown turn %d", t.Turn))
	}
	return turn.Length
}

// SpeedLimit returns the travel speed for a traversable; turns inherit
// their destination lane's speed limit, matching driving.rs's crossing
// time computation which only varies speed per lane.
func (m *InMemoryMap) SpeedLimit(t model.Traversable) float64 {
	if t.IsLane() {
		lane, ok := m.Lane(t.Lane)
		if !ok {
			panic(fmt.Sprintf("worldmap: unknown lane %d", t.Lane))
		}
		return lane.SpeedLimit
	}
	turn, ok := m.Turn(t.Turn)
	if !ok {
		panic(fmt.Sprintf("worldmap: unknown turn %d", t.Turn))
	}
	dst, ok := m.Lane(turn.Dst)
	if !ok {
		return 1
	}
	return dst.SpeedLimit
}

// Slice returns the renderable geometry of a traversable restricted to
// [start,end] along its length, linearly interpolating along the stored
// polyline — the same segment-walking idiom as the teacher's
// routing/vehicle_position.go interpolatePosition, generalized from a
// single point query to a sub-slice.
func (m *InMemoryMap) Slice(t model.Traversable, start, end float64) []Point {
	var geom []Point
	var length float64
	if t.IsLane() {
		lane, ok := m.Lane(t.Lane)
		if !ok {
			return nil
		}
		geom, length = lane.Geometry, lane.Length
	} else {
		turn, ok := m.Turn(t.Turn)
		if !ok {
			return nil
		}
		geom, length = turn.Geometry, turn.Length
	}
	if len(geom) < 2 || length <= 0 {
		return geom
	}
	return sliceGeometry(geom, length, start, end)
}

func sliceGeometry(geom []Point, totalLen, start, end float64) []Point {
	if start < 0 {
		start = 0
	}
	if end > totalLen {
		end = totalLen
	}
	out := make([]Point, 0, len(geom))
	var travelled float64
	for i := 0; i+1 < len(geom); i++ {
		a, b := geom[i], geom[i+1]
		segLen := distance(a, b)
		segStart, segEnd := travelled, travelled+segLen
		if segEnd >= start && segStart <= end {
			lo := maxF(start, segStart)
			hi := minF(end, segEnd)
			out = append(out, interpolate(a, b, segLen, lo-segStart), interpolate(a, b, segLen, hi-segStart))
		}
		travelled = segEnd
	}
	return out
}

func interpolate(a, b Point, segLen, along float64) Point {
	if segLen <= 0 {
		return a
	}
	frac := along / segLen
	return Point{X: a.X + (b.X-a.X)*frac, Y: a.Y + (b.Y-a.Y)*frac}
}

func distance(a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// AllLanes returns every lane id in the map, in ascending order for
// deterministic iteration (§5).
func (m *InMemoryMap) AllLanes() []model.LaneID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.LaneID, 0, len(m.lanes))
	for id := range m.lanes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllTurns returns every turn id in the map, in ascending order.
func (m *InMemoryMap) AllTurns() []model.TurnID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.TurnID, 0, len(m.turns))
	for id := range m.turns {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
