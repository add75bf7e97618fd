// Package car implements the per-vehicle state machine named in spec.md
// §3/§4.3: Car, its tagged CarState variants, and the crossing_state timer
// synthesis driving.rs calls from every transition. Grounded on
// original_source/sim/src/mechanics/driving.rs's CarState usage (no
// separate car.rs was retrieved, so the struct shape is reconstructed from
// how driving.rs constructs and matches on it).
package car

import "github.com/transitsim/microsim/internal/simtime"

// StateKind discriminates CarState's variant, following the teacher's
// string-constant-enum idiom (models.EdgeType).
type StateKind string

const (
	StateCrossing  StateKind = "CROSSING"
	StateQueued    StateKind = "QUEUED"
	StateUnparking StateKind = "UNPARKING"
	StateParking   StateKind = "PARKING"
	StateIdling    StateKind = "IDLING"
)

// CarState is the tagged union from spec.md §3. Only the fields relevant
// to Kind are meaningful; Go has no sum type, so this mirrors the
// model.ActionAtEnd/router.ActionAtEnd convention used elsewhere.
type CarState struct {
	Kind StateKind

	// Crossing: the segment is covered linearly over Interval, from
	// DistStart to DistEnd.
	Interval  simtime.Interval
	DistStart float64
	DistEnd   float64

	// Unparking/Parking/Idling: the car's fixed front position while the
	// timer runs.
	FrontDist float64

	// Parking only: the reserved spot.
	Spot int64
}

// Queued returns the Queued state — the car is stopped at its
// head-blocked position; Queue computes that position, not CarState.
func Queued() CarState {
	return CarState{Kind: StateQueued}
}

// Crossing returns a Crossing state covering [distStart,distEnd] over interval.
func Crossing(interval simtime.Interval, distStart, distEnd float64) CarState {
	return CarState{Kind: StateCrossing, Interval: interval, DistStart: distStart, DistEnd: distEnd}
}

// Unparking returns the 10s lane-acquisition state.
func Unparking(frontDist float64, interval simtime.Interval) CarState {
	return CarState{Kind: StateUnparking, FrontDist: frontDist, Interval: interval}
}

// Parking returns the 15s release-into-spot state.
func Parking(frontDist float64, spot int64, interval simtime.Interval) CarState {
	return CarState{Kind: StateParking, FrontDist: frontDist, Spot: spot, Interval: interval}
}

// Idling returns the bus-dwell state.
func Idling(frontDist float64, interval simtime.Interval) CarState {
	return CarState{Kind: StateIdling, FrontDist: frontDist, Interval: interval}
}

// Blocked reports whether a car in this state can be "stuck behind" a
// leader the way a Queued car can — used by the follower-resynthesis
// logic in DrivingSim, which must only disturb Queued followers (§4.4).
func (s CarState) Blocked() bool {
	return s.Kind == StateQueued
}
