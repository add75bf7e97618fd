package drivingsim

import (
	"fmt"

	"github.com/transitsim/microsim/internal/car"
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/simtime"
)

// StartCarOnLane attempts to admit a new car onto its first lane (§4.4
// Phase 4). It checks that no other agent is headed into the upstream
// intersection, then defers to the queue's own admission test. On success
// the car is created Unparking (if it came from a parked spot) or
// directly Crossing, and true is returned; otherwise false, so the
// scheduler's command handler may retry if the spawn command's retry flag
// is set (§7).
func (ds *DrivingSim) StartCarOnLane(t simtime.T, id model.CarID, vehicle model.Vehicle, lane model.LaneID, fromSpot *model.ParkingSpotID, path []model.Traversable, endAction router.ActionAtEnd, src model.IntersectionID, co Collaborators) bool {
	if _, exists := ds.cars[id]; exists {
		panic(fmt.Sprintf("drivingsim: spawn of already-live car %s", id))
	}
	if !co.Intersections.NobodyHeadedTowards(lane, src) {
		return false
	}

	traversable := model.Lane(lane)
	q, ok := ds.queues[traversable]
	if !ok {
		panic(fmt.Sprintf("drivingsim: missing queue for lane %d", lane))
	}

	startDist := 0.0
	if !q.RoomAtEnd(t, ds.positioner()) {
		return false
	}

	cursor := router.NewPathCursor(path, endAction)
	c := car.New(id, vehicle, cursor, car.Queued())

	if fromSpot != nil {
		c.State = car.Unparking(startDist, simtime.NewInterval(t, t.Add(simtime.TimeToUnpark)))
	} else {
		c.State = c.CrossingState(startDist, t, ds.m)
	}

	ds.cars[id] = c
	q.PushTail(id)
	return true
}
