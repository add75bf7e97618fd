// Introspection operations used by the debug HTTP API (internal/api)
// instead of a renderer — driving.rs's draw_unzoomed/get_all_draw_cars/
// get_draw_cars_on/tooltip_lines/get_path/get_owner_of_car return structured
// data here rather than pixels (SPEC_FULL.md §4 supplemented features).
package drivingsim

import (
	"fmt"
	"log"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/simtime"
)

// DrawCar is one car's renderer-agnostic snapshot: position, orientation
// inputs, and state label.
type DrawCar struct {
	ID       model.CarID
	On       model.Traversable
	Front    float64
	Length   float64
	State    string
	VehicleK model.VehicleKind
}

// GetAllDrawCars returns every car's snapshot across every queue, ordered
// by traversable then by queue position — deterministic for tests and API
// responses alike.
func (ds *DrivingSim) GetAllDrawCars(t simtime.T) []DrawCar {
	var out []DrawCar
	for _, qid := range ds.orderedQueueKeys() {
		out = append(out, ds.GetDrawCarsOn(t, qid)...)
	}
	return out
}

// GetDrawCarsOn returns the snapshot of every car on one traversable.
func (ds *DrivingSim) GetDrawCarsOn(t simtime.T, on model.Traversable) []DrawCar {
	q, ok := ds.queues[on]
	if !ok {
		return nil
	}
	fronts := q.GetCarPositions(t, ds.positioner())
	out := make([]DrawCar, 0, len(fronts))
	for _, cf := range fronts {
		c := ds.cars[cf.CarID]
		out = append(out, DrawCar{
			ID:       c.ID,
			On:       on,
			Front:    cf.Front,
			Length:   cf.Length,
			State:    string(c.State.Kind),
			VehicleK: c.Vehicle.Kind,
		})
	}
	return out
}

// QueueSummary reports waiting vs free-flowing car counts on a traversable,
// the structured analogue of driving.rs's draw_unzoomed waiting-polygon
// computation.
type QueueSummary struct {
	On          model.Traversable
	NumWaiting  int
	NumFreeflow int
}

// DrawUnzoomed summarizes every non-empty queue.
func (ds *DrivingSim) DrawUnzoomed() []QueueSummary {
	var out []QueueSummary
	for _, qid := range ds.orderedQueueKeys() {
		q := ds.queues[qid]
		if q.IsEmpty() {
			continue
		}
		var waiting, freeflow int
		for _, id := range q.Cars() {
			if ds.cars[id].State.Blocked() {
				waiting++
			} else {
				freeflow++
			}
		}
		out = append(out, QueueSummary{On: qid, NumWaiting: waiting, NumFreeflow: freeflow})
	}
	return out
}

// DebugCar dumps one car's full state to the log, matching the teacher's
// log.Printf idiom for structured diagnostic output.
func (ds *DrivingSim) DebugCar(id model.CarID) {
	c, ok := ds.cars[id]
	if !ok {
		log.Printf("debug_car: no such car %s", id)
		return
	}
	log.Printf("car %s: state=%s vehicle=%+v last_steps=%v", id, c.State.Kind, c.Vehicle, c.LastSteps)
}

// TooltipLines returns human-readable summary lines for one car, the
// structured-text analogue of driving.rs's tooltip_lines used by a UI.
func (ds *DrivingSim) TooltipLines(id model.CarID) []string {
	c, ok := ds.cars[id]
	if !ok {
		return nil
	}
	return []string{
		fmt.Sprintf("Car %s", id),
		fmt.Sprintf("State: %s", c.State.Kind),
		fmt.Sprintf("On: %s", c.Router.Head()),
	}
}

// GetPath returns the remaining traversables in a car's path.
func (ds *DrivingSim) GetPath(id model.CarID) []model.Traversable {
	c, ok := ds.cars[id]
	if !ok {
		return nil
	}
	type remainder interface{ Remaining() []model.Traversable }
	if r, ok := c.Router.(remainder); ok {
		return r.Remaining()
	}
	return []model.Traversable{c.Router.Head()}
}

// TraceRoute returns the already-finished traversables a car has crossed,
// most recent first — the last_steps trailing history.
func (ds *DrivingSim) TraceRoute(id model.CarID) []model.Traversable {
	c, ok := ds.cars[id]
	if !ok {
		return nil
	}
	out := make([]model.Traversable, len(c.LastSteps))
	copy(out, c.LastSteps)
	return out
}

// GetOwnerOfCar returns the building a car is associated with, if any.
func (ds *DrivingSim) GetOwnerOfCar(id model.CarID) (model.BuildingID, bool) {
	c, ok := ds.cars[id]
	if !ok || c.Vehicle.Owner == nil {
		return 0, false
	}
	return *c.Vehicle.Owner, true
}

// CarExists reports whether a car id is currently live — used by tests and
// the debug API rather than letting callers panic on a missing id.
func (ds *DrivingSim) CarExists(id model.CarID) bool {
	_, ok := ds.cars[id]
	return ok
}

// QueueOf reports which traversable currently holds a car, satisfying the
// "car locality" testable property (§8) directly.
func (ds *DrivingSim) QueueOf(id model.CarID) (model.Traversable, bool) {
	for _, qid := range ds.orderedQueueKeys() {
		if ds.queues[qid].IndexOf(id) >= 0 {
			return qid, true
		}
	}
	return model.Traversable{}, false
}
