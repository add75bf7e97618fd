package car

import (
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/simtime"
	"github.com/transitsim/microsim/internal/worldmap"
)

// maxLastSteps bounds the trailing traversable history kept per car
// (spec.md §3's "short trailing history"); driving.rs trims by geometric
// clearance rather than a fixed count, but a cap keeps the slice from
// growing unboundedly if clearance never catches up.
const maxLastSteps = 8

// Car is one vehicle's full state: identity, immutable attributes, its
// path cursor, its current state-machine variant, and a trailing history
// of recently finished traversables.
type Car struct {
	ID        model.CarID
	Vehicle   model.Vehicle
	Router    router.Router
	State     CarState
	LastSteps []model.Traversable
}

// New constructs a car in the given initial state.
func New(id model.CarID, vehicle model.Vehicle, r router.Router, initial CarState) *Car {
	return &Car{ID: id, Vehicle: vehicle, Router: r, State: initial}
}

// CrossingState computes the interval needed to cover [startDist,
// segment_end] of the car's current traversable at that segment's travel
// speed, per spec.md §4.3's crossing_state.
func (c *Car) CrossingState(startDist float64, t simtime.T, m worldmap.Map) CarState {
	head := c.Router.Head()
	segEnd := m.Length(head)
	speed := m.SpeedLimit(head)

	distToCover := segEnd - startDist
	if distToCover < 0 {
		distToCover = 0
	}
	var dur simtime.D
	if speed > 0 {
		dur = simtime.FromSeconds(distToCover / speed)
	}
	return Crossing(simtime.NewInterval(t, t.Add(dur)), startDist, segEnd)
}

// FreeFrontPosition reports the car's own unconstrained front position at
// t, ignoring any leader — the value queue.Queue clamps against a leader's
// rear. Implements queue.CarPositioner's per-car half together with
// drivingsim's car table wrapper.
func (c *Car) FreeFrontPosition(t simtime.T, m worldmap.Map) float64 {
	switch c.State.Kind {
	case StateCrossing:
		pct := c.State.Interval.PercentElapsed(t)
		return c.State.DistStart + (c.State.DistEnd-c.State.DistStart)*pct
	case StateQueued:
		return m.Length(c.Router.Head())
	case StateUnparking, StateParking, StateIdling:
		return c.State.FrontDist
	default:
		return 0
	}
}

// PushLastStep records a just-finished traversable at the front of the
// trailing history.
func (c *Car) PushLastStep(t model.Traversable) {
	c.LastSteps = append([]model.Traversable{t}, c.LastSteps...)
	if len(c.LastSteps) > maxLastSteps {
		c.LastSteps = c.LastSteps[:maxLastSteps]
	}
}

// TrimLastSteps drops history entries once the car's own rear has cleared
// past their combined length — approximated here as trimming to maxLastSteps,
// since precise clearance requires the full geometry the car has actually
// covered since finishing each step, an accounting spec.md leaves to the
// Map collaborator's internals (out of scope, §1).
func (c *Car) TrimLastSteps(m worldmap.Map) {
	if len(c.LastSteps) > maxLastSteps {
		c.LastSteps = c.LastSteps[:maxLastSteps]
	}
}
