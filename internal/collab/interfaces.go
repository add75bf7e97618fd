// Package collab defines the external-collaborator interfaces named in
// spec.md §6 — intersections, parking, trips, transit, walking — plus an
// in-memory reference implementation of each, sufficient to drive the
// scenarios in spec.md §8. Their internals (admission policy, parking
// bookkeeping, trip accounting, transit schedules, pedestrian walking) are
// explicitly out of scope; these types exist only so DrivingSim has
// something concrete to call.
package collab

import (
	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/simtime"
)

// AgentID identifies whichever kind of agent (car or pedestrian) an
// intersection or trip notification concerns.
type AgentID struct {
	Car    model.CarID
	IsCar  bool
	Ped    model.PedestrianID
}

func CarAgent(c model.CarID) AgentID { return AgentID{Car: c, IsCar: true} }
func PedAgent(p model.PedestrianID) AgentID { return AgentID{Ped: p} }

// IntersectionSimState governs admission at intersections (§6).
type IntersectionSimState interface {
	NobodyHeadedTowards(lane model.LaneID, src model.IntersectionID) bool
	MaybeStartTurn(agent AgentID, turn model.TurnID, t simtime.T) bool
	TurnFinished(agent AgentID, turn model.TurnID)
}

// ParkingSimState governs parking spot reservation and release (§6).
type ParkingSimState interface {
	ReserveSpot(spot model.ParkingSpotID) bool
	AddParkedCar(parked model.ParkedCar)
	ReleaseSpot(spot model.ParkingSpotID)
}

// TripManager receives lifecycle notifications for trips (§6).
type TripManager interface {
	CarOrBikeReachedBorder(t simtime.T, car model.CarID, intersection model.IntersectionID)
	BikeReachedEnd(t simtime.T, car model.CarID, rack model.ParkingSpotID)
	CarReachedParkingSpot(t simtime.T, car model.CarID, spot model.ParkingSpotID)
}

// TransitSimState tracks bus routes and stop dwell (§6). Once a bus's dwell
// completes, it hands back a full Router continuation so the bus can
// resume crossing on its next route leg (§4.3's Idling transition).
type TransitSimState interface {
	BusArrivedAtStop(t simtime.T, bus model.CarID)
	BusDepartedFromStop(bus model.CarID) router.Router
}

// WalkingSimState tracks pedestrians (§6); the core only needs to notify
// it, never query it, so the interface is deliberately narrow.
type WalkingSimState interface {
	Notify(t simtime.T, ped model.PedestrianID, event string)
}
