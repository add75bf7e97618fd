package model

import "github.com/transitsim/microsim/internal/simtime"

// CommandKeyKind discriminates CommandKey's variant, mirroring
// scheduler.rs's CommandType enum — the dedup identity is a separate,
// coarser type than the command payload itself.
type CommandKeyKind string

const (
	KeyCar          CommandKeyKind = "CAR"
	KeyPedestrian   CommandKeyKind = "PEDESTRIAN"
	KeyIntersection CommandKeyKind = "INTERSECTION"
	KeyBus          CommandKeyKind = "BUS"
	KeyTrip         CommandKeyKind = "TRIP"
	KeyCallback     CommandKeyKind = "CALLBACK"
)

// CommandKey is the identity the Scheduler deduplicates on. It is a plain
// comparable struct so it can be used directly as a map key — Go has no
// tagged-union type, so unused fields for a given Kind are simply zero.
type CommandKey struct {
	Kind         CommandKeyKind
	Car          CarID
	Pedestrian   PedestrianID
	Intersection IntersectionID
	Trip         TripID
	Route        BusRouteID
	Time         simtime.T
	Label        string
}

func CarKey(c CarID) CommandKey { return CommandKey{Kind: KeyCar, Car: c} }

func PedestrianKey(p PedestrianID) CommandKey {
	return CommandKey{Kind: KeyPedestrian, Pedestrian: p}
}

func IntersectionKey(i IntersectionID) CommandKey {
	return CommandKey{Kind: KeyIntersection, Intersection: i}
}

func TripKey(t TripID) CommandKey { return CommandKey{Kind: KeyTrip, Trip: t} }

// BusKey carries the scheduled departure time inside the key itself, so
// that two StartBus commands for the same route at different times are
// distinct live commands — StartBus has no other natural identity.
func BusKey(route BusRouteID, at simtime.T) CommandKey {
	return CommandKey{Kind: KeyBus, Route: route, Time: at}
}

func CallbackKey(label string) CommandKey {
	return CommandKey{Kind: KeyCallback, Label: label}
}

// Command is anything the Scheduler can carry: its only required behavior
// is reporting the CommandKey identity it deduplicates on.
type Command interface {
	Key() CommandKey
}

// Less gives CommandKey a stable total order, used by the Scheduler to
// break ties between commands scheduled at the identical time (§4.1,
// §5). The specific ordering is arbitrary but must stay fixed across a
// run and across save/restore — changing it invalidates saved replays.
func (k CommandKey) Less(o CommandKey) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	switch k.Kind {
	case KeyCar:
		return carLess(k.Car, o.Car)
	case KeyPedestrian:
		return pedestrianLess(k.Pedestrian, o.Pedestrian)
	case KeyIntersection:
		return k.Intersection < o.Intersection
	case KeyTrip:
		return tripLess(k.Trip, o.Trip)
	case KeyBus:
		if k.Route != o.Route {
			return k.Route < o.Route
		}
		return k.Time < o.Time
	case KeyCallback:
		return k.Label < o.Label
	default:
		return false
	}
}

func carLess(a, b CarID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func pedestrianLess(a, b PedestrianID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func tripLess(a, b TripID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// SpawnCarParams describes how a new car should be admitted onto its first
// lane — the spawn side of the driving sim's Phase 4.
type SpawnCarParams struct {
	CarID    CarID
	Vehicle  Vehicle
	Lane     LaneID
	FromSpot *ParkingSpotID // nil if not originating from a parked spot
	Path     PathRequest
}

// SpawnCarCommand requests that a car be admitted onto its first lane.
// Shares CommandKey with UpdateCarCommand: a car cannot be simultaneously
// awaiting spawn and awaiting an update.
type SpawnCarCommand struct {
	Params SpawnCarParams
	Retry  bool
}

func (c SpawnCarCommand) Key() CommandKey { return CarKey(c.Params.CarID) }

// SpawnPedestrianCommand requests a pedestrian begin walking.
type SpawnPedestrianCommand struct {
	PedestrianID PedestrianID
}

func (c SpawnPedestrianCommand) Key() CommandKey { return PedestrianKey(c.PedestrianID) }

// StartTripCommand begins a trip's first leg.
type StartTripCommand struct {
	TripID TripID
}

func (c StartTripCommand) Key() CommandKey { return TripKey(c.TripID) }

// UpdateCarCommand asks DrivingSim to re-evaluate one car's state machine.
type UpdateCarCommand struct {
	CarID CarID
}

func (c UpdateCarCommand) Key() CommandKey { return CarKey(c.CarID) }

// UpdateLaggyHeadCommand re-checks a head car that was blocked by a leader
// which has since vanished, per §4.4's documented imprecision. Shares the
// car's key: a laggy-head recheck and any other pending update for the
// same car are the same live command.
type UpdateLaggyHeadCommand struct {
	CarID CarID
}

func (c UpdateLaggyHeadCommand) Key() CommandKey { return CarKey(c.CarID) }

// UpdatePedestrianCommand re-evaluates one pedestrian's walking state.
type UpdatePedestrianCommand struct {
	PedestrianID PedestrianID
}

func (c UpdatePedestrianCommand) Key() CommandKey { return PedestrianKey(c.PedestrianID) }

// UpdateIntersectionCommand asks an intersection to reconsider admission.
type UpdateIntersectionCommand struct {
	IntersectionID IntersectionID
}

func (c UpdateIntersectionCommand) Key() CommandKey { return IntersectionKey(c.IntersectionID) }

// CallbackCommand is a generic deferred callback identified by a label;
// its actual behavior is resolved by the caller that pops it (the core
// does not store closures in saved state).
type CallbackCommand struct {
	Label string
}

func (c CallbackCommand) Key() CommandKey { return CallbackKey(c.Label) }

// FinishRemoteTripCommand completes a trip leg handled by a remote/out of
// process simulation shard.
type FinishRemoteTripCommand struct {
	TripID TripID
}

func (c FinishRemoteTripCommand) Key() CommandKey { return TripKey(c.TripID) }

// PandemicCommand carries a domain-specific pandemic-model update; the
// model's internals are out of scope, this is a pass-through envelope.
type PandemicCommand struct {
	Label string
}

func (c PandemicCommand) Key() CommandKey { return CallbackKey("pandemic:" + c.Label) }

// StartBusCommand starts one bus run on a route at a scheduled time.
type StartBusCommand struct {
	Route BusRouteID
	At    simtime.T
}

func (c StartBusCommand) Key() CommandKey { return BusKey(c.Route, c.At) }

// PathRequest is what the Router asks the external path-computation
// collaborator for; kept opaque to the command/scheduler layer so the
// Scheduler's savestate placeholder swap (§4.1) can treat it uniformly.
type PathRequest struct {
	Start LaneID
	Goal  LaneID
}
