package collab

import (
	"context"
	"log"
	"time"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/pathcache"
)

// DistributedParking is a ParkingSimState for deployments where several
// simserver processes share one world map and redis instance: the
// in-process reservation alone can't prevent two processes from both
// winning the same spot, so ReserveSpot also takes pathcache's SetNX-backed
// lock, the distributed counterpart to InMemoryParking's mutex (§6's
// "parking race-freedom" property extended across process boundaries).
// A failed distributed acquisition releases the local reservation before
// reporting failure, so a process never believes it holds a spot it
// doesn't.
type DistributedParking struct {
	local *InMemoryParking
	ttl   time.Duration
}

// NewDistributedParking wraps a fresh InMemoryParking with a distributed
// lock held for ttl.
func NewDistributedParking(ttl time.Duration) *DistributedParking {
	return &DistributedParking{local: NewInMemoryParking(), ttl: ttl}
}

func (p *DistributedParking) ReserveSpot(spot model.ParkingSpotID) bool {
	if !p.local.ReserveSpot(spot) {
		return false
	}
	ok, err := pathcache.AcquireSpotLock(context.Background(), spot, p.ttl)
	if err != nil {
		log.Printf("distributed parking: lock check failed for spot %d: %v", spot, err)
		p.local.ReleaseSpot(spot)
		return false
	}
	if !ok {
		p.local.ReleaseSpot(spot)
		return false
	}
	return true
}

func (p *DistributedParking) AddParkedCar(parked model.ParkedCar) {
	p.local.AddParkedCar(parked)
}

func (p *DistributedParking) ReleaseSpot(spot model.ParkingSpotID) {
	if err := pathcache.ReleaseSpotLock(context.Background(), spot); err != nil {
		log.Printf("distributed parking: failed to release lock for spot %d: %v", spot, err)
	}
	p.local.ReleaseSpot(spot)
}

// IsReserved reports whether a spot is currently held locally — used by
// tests; the distributed lock itself is opaque to this process once held.
func (p *DistributedParking) IsReserved(spot model.ParkingSpotID) bool {
	return p.local.IsReserved(spot)
}
