// Package drivingsim owns all cars and queues and implements the per-tick
// step function described in spec.md §4.4: Phase 1 time-based promotions,
// Phase 2 last-step resolution, Phase 3 hand-offs at segment boundaries,
// and Phase 4 spawning. Grounded directly on
// original_source/sim/src/mechanics/driving.rs's DrivingSimState and
// step_if_needed, translated from Rust's borrow-checked mutation into Go's
// copy-scalars-out-first / deferred-write-buffer idiom spec.md §9 names.
package drivingsim

import (
	"fmt"
	"sort"

	"github.com/transitsim/microsim/internal/car"
	"github.com/transitsim/microsim/internal/collab"
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/queue"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/simtime"
	"github.com/transitsim/microsim/internal/worldmap"
)

// Collaborators bundles the external components Step needs per call
// (spec.md §5: "External collaborators ... are passed in mutably per
// call"). Bundled into one struct so Step's signature doesn't balloon
// every time a new collaborator is added.
type Collaborators struct {
	Intersections collab.IntersectionSimState
	Parking       collab.ParkingSimState
	Trips         collab.TripManager
	Transit       collab.TransitSimState
	Walking       collab.WalkingSimState
}

// DrivingSim owns the cars table and all queues. It is not safe for
// concurrent use — see §5; the outer simulation loop calls Step from a
// single goroutine.
type DrivingSim struct {
	cars   map[model.CarID]*car.Car
	queues map[model.Traversable]*queue.Queue
	m      worldmap.Map
}

// New returns an empty DrivingSim over the given map. Queues must be
// registered via AddQueue before cars can be spawned or handed off onto
// them.
func New(m worldmap.Map) *DrivingSim {
	return &DrivingSim{
		cars:   make(map[model.CarID]*car.Car),
		queues: make(map[model.Traversable]*queue.Queue),
		m:      m,
	}
}

// AddQueue registers an empty queue for a traversable — called once per
// lane/turn when the map is loaded.
func (ds *DrivingSim) AddQueue(t model.Traversable) {
	if _, exists := ds.queues[t]; exists {
		return
	}
	ds.queues[t] = queue.New(t, ds.m.Length(t))
}

// positioner adapts the car table to queue.CarPositioner.
type positioner struct {
	ds *DrivingSim
}

func (p positioner) FreeFrontPosition(id model.CarID, t simtime.T) float64 {
	c, ok := p.ds.cars[id]
	if !ok {
		panic(fmt.Sprintf("drivingsim: missing car record for %s", id))
	}
	return c.FreeFrontPosition(t, p.ds.m)
}

func (p positioner) VehicleLength(id model.CarID) float64 {
	c, ok := p.ds.cars[id]
	if !ok {
		panic(fmt.Sprintf("drivingsim: missing car record for %s", id))
	}
	return c.Vehicle.Length
}

func (ds *DrivingSim) positioner() queue.CarPositioner { return positioner{ds: ds} }

// orderedQueueKeys returns every registered traversable in a stable order
// (§5: iteration order must derive from stable identity, never map
// ranging order).
func (ds *DrivingSim) orderedQueueKeys() []model.Traversable {
	keys := make([]model.Traversable, 0, len(ds.queues))
	for k := range ds.queues {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func (ds *DrivingSim) orderedCarKeys() []model.CarID {
	keys := make([]model.CarID, 0, len(ds.cars))
	for k := range ds.cars {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		for b := range keys[i] {
			if keys[i][b] != keys[j][b] {
				return keys[i][b] < keys[j][b]
			}
		}
		return false
	})
	return keys
}

// Step runs one driving tick: Phase 1 through Phase 3, in strict order.
// Phase 4 (spawning) is StartCarOnLane, which the command handler calls
// separately.
func (ds *DrivingSim) Step(t simtime.T, co Collaborators) {
	ds.phase1Promotions(t)
	ds.phase2LastStepResolution(t, co)
	ds.phase3HandOffs(t, co)
}

// phase1Promotions promotes Crossing->Queued and completes
// Unparking->Crossing. Order among cars is irrelevant since each
// transition depends only on that car's own timer (§4.4 Phase 1).
func (ds *DrivingSim) phase1Promotions(t simtime.T) {
	for _, id := range ds.orderedCarKeys() {
		c := ds.cars[id]
		switch c.State.Kind {
		case car.StateCrossing:
			if t.After(c.State.Interval.End) {
				c.State = car.Queued()
			}
		case car.StateUnparking:
			if t.After(c.State.Interval.End) {
				front := c.State.FrontDist
				if c.Router.LastStep() {
					// Trigger the side effect of committing an end distance
					// before Crossing begins, ignoring the result here — if
					// it's something unusual (vanish/re-park immediately),
					// Phase 2 picks it up on its own pass.
					c.Router.MaybeHandleEnd(front)
				}
				c.State = c.CrossingState(front, t, ds.m)
			}
		}
	}
}

// deferredRemoval is one queue removal discovered during Phase 2, applied
// after the scan completes so slice indices stay valid.
type deferredRemoval struct {
	idx        int
	leaderDist float64
	leaderLen  float64
}

// phase2LastStepResolution resolves end actions, Parking completion and
// Idling completion for every queue with at least one car on its last
// step (§4.4 Phase 2).
func (ds *DrivingSim) phase2LastStepResolution(t simtime.T, co Collaborators) {
	pos := ds.positioner()
	for _, qid := range ds.orderedQueueKeys() {
		q := ds.queues[qid]
		if !ds.anyOnLastStep(q) {
			continue
		}

		fronts := q.GetCarPositions(t, pos)
		var removals []deferredRemoval

		for idx, cf := range fronts {
			c := ds.cars[cf.CarID]
			if !c.Router.LastStep() {
				continue
			}
			switch c.State.Kind {
			case car.StateQueued:
				// A follower held short of its own free position by its
				// leader has not reached the end yet; it waits.
				if cf.Front < c.FreeFrontPosition(t, ds.m) {
					continue
				}
				ds.resolveQueuedEndAction(t, c, cf, idx, co, &removals)
			case car.StateParking:
				if t.After(c.State.Interval.End) {
					spot := model.ParkingSpotID(c.State.Spot)
					removals = append(removals, deferredRemoval{idx: idx, leaderDist: cf.Front, leaderLen: cf.Length})
					co.Parking.AddParkedCar(model.ParkedCar{Vehicle: c.Vehicle, Spot: spot})
					co.Trips.CarReachedParkingSpot(t, c.ID, spot)
				}
			case car.StateIdling:
				if t.After(c.State.Interval.End) {
					c.Router = co.Transit.BusDepartedFromStop(c.ID)
					c.State = c.CrossingState(c.State.FrontDist, t, ds.m)
				}
			}
		}

		ds.applyRemovals(q, removals, t)
	}
}

func (ds *DrivingSim) anyOnLastStep(q *queue.Queue) bool {
	for _, id := range q.Cars() {
		if ds.cars[id].Router.LastStep() {
			return true
		}
	}
	return false
}

func (ds *DrivingSim) resolveQueuedEndAction(t simtime.T, c *car.Car, cf queue.CarFront, idx int, co Collaborators, removals *[]deferredRemoval) {
	action := c.Router.MaybeHandleEnd(cf.Front)
	switch action.Kind {
	case router.ActionVanishAtBorder:
		co.Trips.CarOrBikeReachedBorder(t, c.ID, action.Border)
		*removals = append(*removals, deferredRemoval{idx: idx, leaderDist: cf.Front, leaderLen: cf.Length})
	case router.ActionStartParking:
		c.State = car.Parking(cf.Front, int64(action.Spot), simtime.NewInterval(t, t.Add(simtime.TimeToPark)))
		// Reserve immediately so a follower arriving on the next tick
		// cannot also see the spot as available (§4.4, §8 scenario 5).
		co.Parking.ReserveSpot(action.Spot)
	case router.ActionGotoLaneEnd:
		c.State = c.CrossingState(cf.Front, t, ds.m)
	case router.ActionStopBiking:
		*removals = append(*removals, deferredRemoval{idx: idx, leaderDist: cf.Front, leaderLen: cf.Length})
		co.Trips.BikeReachedEnd(t, c.ID, action.Rack)
	case router.ActionBusAtStop:
		co.Transit.BusArrivedAtStop(t, c.ID)
		c.State = car.Idling(cf.Front, simtime.NewInterval(t, t.Add(simtime.TimeToWaitAtStop)))
	case router.ActionNone:
		// stays Queued
	}
}

// applyRemovals deletes finished cars in descending index order so earlier
// indices stay valid, then resynthesizes any newly-exposed Queued follower
// so it doesn't visually jump forward (§4.4 Phase 2).
func (ds *DrivingSim) applyRemovals(q *queue.Queue, removals []deferredRemoval, t simtime.T) {
	sort.Slice(removals, func(i, j int) bool { return removals[i].idx > removals[j].idx })
	for _, r := range removals {
		id := q.RemoveAt(r.idx)
		delete(ds.cars, id)

		if r.idx < q.Len() {
			followerID := q.Cars()[r.idx]
			follower := ds.cars[followerID]
			if follower.State.Blocked() {
				follower.State = follower.CrossingState(r.leaderDist-r.leaderLen-queue.FollowingDistance, t, ds.m)
			}
		}
	}
}

// phase3HandOffs advances every Queued head car that isn't on its last
// step across the boundary into its next traversable, subject to downstream
// room and intersection admission (§4.4 Phase 3).
func (ds *DrivingSim) phase3HandOffs(t simtime.T, co Collaborators) {
	pos := ds.positioner()
	var readyFrom []model.Traversable
	for _, qid := range ds.orderedQueueKeys() {
		q := ds.queues[qid]
		headID, ok := q.Head()
		if !ok {
			continue
		}
		head := ds.cars[headID]
		if head.State.Kind == car.StateQueued && !head.Router.LastStep() {
			readyFrom = append(readyFrom, qid)
		}
	}

	for _, from := range readyFrom {
		fromQ := ds.queues[from]
		leaderID, ok := fromQ.Head()
		if !ok {
			continue // already handed off earlier in this loop
		}
		leader := ds.cars[leaderID]
		goTo := leader.Router.Next()

		toQ, ok := ds.queues[goTo]
		if !ok {
			panic(fmt.Sprintf("drivingsim: missing queue for %s", goTo))
		}
		if !toQ.RoomAtEnd(t, pos) {
			continue
		}
		if goTo.IsTurn() {
			if !co.Intersections.MaybeStartTurn(collab.CarAgent(leaderID), goTo.Turn, t) {
				continue
			}
		}

		fromQ.PopHead()
		if newHeadID, ok := fromQ.Head(); ok {
			follower := ds.cars[newHeadID]
			if follower.State.Blocked() {
				follower.State = follower.CrossingState(ds.m.Length(from)-leader.Vehicle.Length-queue.FollowingDistance, t, ds.m)
			}
		}

		finished := leader.Router.Advance()
		leader.PushLastStep(finished)
		leader.TrimLastSteps(ds.m)
		leader.State = leader.CrossingState(0, t, ds.m)

		if goTo.IsLane() && finished.IsTurn() {
			co.Intersections.TurnFinished(collab.CarAgent(leaderID), finished.Turn)
		}

		toQ.PushTail(leaderID)
	}
}

