package collab

import (
	"log"
	"sync"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/router"
	"github.com/transitsim/microsim/internal/simtime"
)

// InMemoryIntersections is a reference IntersectionSimState that admits
// every spawn unconditionally and admits a turn unless another agent
// currently occupies it (until TurnFinished) — real admission policy is out of scope (spec.md §1), this just needs to be
// call-compatible so DrivingSim's Phase 3/4 have something to ask.
type InMemoryIntersections struct {
	mu       sync.Mutex
	occupied map[model.TurnID]AgentID
}

func NewInMemoryIntersections() *InMemoryIntersections {
	return &InMemoryIntersections{occupied: make(map[model.TurnID]AgentID)}
}

func (i *InMemoryIntersections) NobodyHeadedTowards(lane model.LaneID, src model.IntersectionID) bool {
	return true
}

func (i *InMemoryIntersections) MaybeStartTurn(agent AgentID, turn model.TurnID, t simtime.T) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, busy := i.occupied[turn]; busy {
		return false
	}
	i.occupied[turn] = agent
	return true
}

func (i *InMemoryIntersections) TurnFinished(agent AgentID, turn model.TurnID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.occupied, turn)
}

// InMemoryParking is a reference ParkingSimState. ReserveSpot is the
// collaborator half of the parking race-freedom property (§8 scenario 5):
// once a spot is reserved, a second reservation attempt fails until
// ReleaseSpot runs.
type InMemoryParking struct {
	mu       sync.Mutex
	reserved map[model.ParkingSpotID]bool
	parked   map[model.ParkingSpotID]model.ParkedCar
}

func NewInMemoryParking() *InMemoryParking {
	return &InMemoryParking{
		reserved: make(map[model.ParkingSpotID]bool),
		parked:   make(map[model.ParkingSpotID]model.ParkedCar),
	}
}

func (p *InMemoryParking) ReserveSpot(spot model.ParkingSpotID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reserved[spot] {
		return false
	}
	p.reserved[spot] = true
	return true
}

func (p *InMemoryParking) AddParkedCar(parked model.ParkedCar) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parked[parked.Spot] = parked
}

func (p *InMemoryParking) ReleaseSpot(spot model.ParkingSpotID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.reserved, spot)
	delete(p.parked, spot)
}

// IsReserved reports whether a spot is currently held — used by tests
// asserting the race-freedom property.
func (p *InMemoryParking) IsReserved(spot model.ParkingSpotID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reserved[spot]
}

// InMemoryTrips is a reference TripManager that records each notification
// in Events and logs it, matching the teacher's log.Printf idiom rather
// than println!.
type InMemoryTrips struct {
	mu     sync.Mutex
	Events []string
}

func NewInMemoryTrips() *InMemoryTrips {
	return &InMemoryTrips{}
}

func (t *InMemoryTrips) record(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Events = append(t.Events, event)
	log.Printf("trip event: %s", event)
}

func (t *InMemoryTrips) CarOrBikeReachedBorder(at simtime.T, car model.CarID, i model.IntersectionID) {
	t.record("border:" + car.String())
}

func (t *InMemoryTrips) BikeReachedEnd(at simtime.T, car model.CarID, rack model.ParkingSpotID) {
	t.record("bike_end:" + car.String())
}

func (t *InMemoryTrips) CarReachedParkingSpot(at simtime.T, car model.CarID, spot model.ParkingSpotID) {
	t.record("parked:" + car.String())
}

// InMemoryTransit is a reference TransitSimState tracking bus dwell at
// stops and handing back a continuation router on departure.
type InMemoryTransit struct {
	mu           sync.Mutex
	continuation map[model.CarID]router.Router
}

func NewInMemoryTransit() *InMemoryTransit {
	return &InMemoryTransit{continuation: make(map[model.CarID]router.Router)}
}

func (tr *InMemoryTransit) BusArrivedAtStop(at simtime.T, bus model.CarID) {
	log.Printf("bus %s arrived at stop at %s", bus, at)
}

// SetContinuation lets a scenario or the transitfeed package install the
// router a bus should resume with once its dwell completes.
func (tr *InMemoryTransit) SetContinuation(bus model.CarID, r router.Router) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.continuation[bus] = r
}

func (tr *InMemoryTransit) BusDepartedFromStop(bus model.CarID) router.Router {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.continuation[bus]
}

// InMemoryWalking is a reference WalkingSimState that just logs.
type InMemoryWalking struct{}

func NewInMemoryWalking() *InMemoryWalking { return &InMemoryWalking{} }

func (w *InMemoryWalking) Notify(at simtime.T, ped model.PedestrianID, event string) {
	log.Printf("pedestrian %s: %s at %s", ped, event, at)
}
