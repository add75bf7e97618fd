// Package queue implements the per-traversable ordered car list: the
// structure that answers "where is each car right now" and "is there room
// for a new car of this length at this distance" (spec.md §4.2). It has no
// counterpart kept in original_source/ (only driving.rs and scheduler.rs
// were retrieved) so its shape is grounded on spec.md directly, following
// the teacher's ordered-slice conventions (astar.go's searchPath handling,
// routing/vehicle_position.go's segment walking) rather than any single
// teacher file.
package queue

import (
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/simtime"
)

// FollowingDistance is the minimum gap between a leader's rear and a
// follower's front, named FOLLOWING_DISTANCE in the glossary.
const FollowingDistance = 1.0 // distance units

// CarFront reports a car's identity and its physical front position at the
// query time, ordered head-first within the queue.
type CarFront struct {
	CarID  model.CarID
	Front  float64
	Length float64
}

// CarPositioner is implemented by the car state-machine layer; the Queue
// asks it for each car's own unconstrained front position, then clamps
// followers against their leader. This mirrors driving.rs's separation
// between Car (owns the state machine) and Queue (owns ordering) — the
// Queue never inspects a Car's internal state directly.
type CarPositioner interface {
	FreeFrontPosition(id model.CarID, t simtime.T) float64
	VehicleLength(id model.CarID) float64
}

// Queue is the ordered list of cars on one traversable, head first (index
// 0 is closest to the segment end).
type Queue struct {
	ID      model.Traversable
	GeomLen float64
	cars    []model.CarID
}

// New returns an empty queue over the given traversable.
func New(id model.Traversable, geomLen float64) *Queue {
	return &Queue{ID: id, GeomLen: geomLen}
}

// Cars returns the queue's car ids, head first. The returned slice is
// owned by the caller; mutating it does not affect the queue.
func (q *Queue) Cars() []model.CarID {
	out := make([]model.CarID, len(q.cars))
	copy(out, q.cars)
	return out
}

// Len reports how many cars are on this queue.
func (q *Queue) Len() int { return len(q.cars) }

// IsEmpty reports whether the queue holds no cars.
func (q *Queue) IsEmpty() bool { return len(q.cars) == 0 }

// Head returns the car closest to the segment end, if any.
func (q *Queue) Head() (model.CarID, bool) {
	if len(q.cars) == 0 {
		return model.CarID{}, false
	}
	return q.cars[0], true
}

// PopHead removes and returns the head car.
func (q *Queue) PopHead() (model.CarID, bool) {
	head, ok := q.Head()
	if !ok {
		return model.CarID{}, false
	}
	q.cars = q.cars[1:]
	return head, true
}

// PushTail appends a car at the tail (the end furthest from the segment
// end) — used when a car hands off onto this queue from an upstream
// segment (§4.4 Phase 3 step 7) or spawns onto a lane with room at its end.
func (q *Queue) PushTail(id model.CarID) {
	q.cars = append(q.cars, id)
}

// RemoveAt deletes the car at the given index. Callers resolving several
// removals in one pass (§4.4 Phase 2) must apply them in descending index
// order so earlier indices stay valid, exactly as driving.rs's
// delete_indices does.
func (q *Queue) RemoveAt(idx int) model.CarID {
	id := q.cars[idx]
	q.cars = append(q.cars[:idx], q.cars[idx+1:]...)
	return id
}

// IndexOf returns the position of a car id in the queue, or -1.
func (q *Queue) IndexOf(id model.CarID) int {
	for i, c := range q.cars {
		if c == id {
			return i
		}
	}
	return -1
}

// GetCarPositions computes every car's front position at t, head first.
// The head car's position comes straight from its own state (via pos);
// each follower is clamped to at most leader.Front - leader.Length -
// FollowingDistance, so a blocked follower's recorded position reflects
// physical reality even while its stored state machine variant may still
// say Crossing until the next step promotes it (§4.2).
func (q *Queue) GetCarPositions(t simtime.T, pos CarPositioner) []CarFront {
	out := make([]CarFront, 0, len(q.cars))
	var prevFront, prevLength float64
	for i, id := range q.cars {
		length := pos.VehicleLength(id)
		free := pos.FreeFrontPosition(id, t)
		front := free
		if i > 0 {
			maxFront := prevFront - prevLength - FollowingDistance
			if front > maxFront {
				front = maxFront
			}
		}
		out = append(out, CarFront{CarID: id, Front: front, Length: length})
		prevFront, prevLength = front, length
	}
	return out
}

// GetIdxToInsertCar returns the index at which a car of the given length,
// wanting to start at startDist, may be inserted so it keeps
// FollowingDistance from the car ahead and leaves FollowingDistance for the
// car behind. ok is false if no such index exists.
func (q *Queue) GetIdxToInsertCar(startDist, length float64, t simtime.T, pos CarPositioner) (idx int, ok bool) {
	fronts := q.GetCarPositions(t, pos)
	// fronts is ordered head-first, i.e. by decreasing front distance.
	for i := 0; i <= len(fronts); i++ {
		var aheadFront, aheadLen float64
		haveAhead := false
		if i > 0 {
			aheadFront = fronts[i-1].Front
			aheadLen = fronts[i-1].Length
			haveAhead = true
		}
		var behindFront float64
		haveBehind := false
		if i < len(fronts) {
			behindFront = fronts[i].Front
			haveBehind = true
		}

		if haveAhead && startDist > aheadFront-aheadLen-FollowingDistance {
			continue // too close to the car ahead at this slot
		}
		if haveBehind && startDist-length < behindFront+FollowingDistance {
			continue // doesn't leave enough room for the car behind
		}
		return i, true
	}
	return 0, false
}

// RoomAtEnd reports whether a car could be admitted at the tail today:
// true if the queue is empty, or if the current tail's rear clears
// FollowingDistance from position 0 (spec.md §4.2).
func (q *Queue) RoomAtEnd(t simtime.T, pos CarPositioner) bool {
	if len(q.cars) == 0 {
		return true
	}
	fronts := q.GetCarPositions(t, pos)
	tail := fronts[len(fronts)-1]
	return tail.Front-tail.Length >= FollowingDistance
}
