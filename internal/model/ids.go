// Package model defines the core data types shared across the simulator:
// identifiers, traversables, commands, and the car/vehicle records that
// internal/car and internal/drivingsim operate on.
package model

import "github.com/google/uuid"

// CarID identifies a single vehicle in the simulation.
type CarID uuid.UUID

func NewCarID() CarID { return CarID(uuid.New()) }

func (id CarID) String() string { return uuid.UUID(id).String() }

// ParseCarID parses a car id from its string form, for the debug API.
func ParseCarID(s string) (CarID, error) {
	u, err := uuid.Parse(s)
	return CarID(u), err
}

// MarshalText and UnmarshalText let CarID serve as a JSON object key (e.g.
// persist.Snapshot's PathRequests map) — a defined type doesn't inherit
// uuid.UUID's own TextMarshaler, so it must be redeclared here.
func (id CarID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CarID) UnmarshalText(data []byte) error {
	u, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = CarID(u)
	return nil
}

// PedestrianID identifies a walking agent.
type PedestrianID uuid.UUID

func NewPedestrianID() PedestrianID { return PedestrianID(uuid.New()) }

func (id PedestrianID) String() string { return uuid.UUID(id).String() }

// TripID identifies a trip spanning possibly several vehicles/legs.
type TripID uuid.UUID

func NewTripID() TripID { return TripID(uuid.New()) }

func (id TripID) String() string { return uuid.UUID(id).String() }

// LaneID and TurnID are stable map-assigned identifiers, matching the
// teacher's models.Node.ID int64 style rather than generated UUIDs — lanes
// and turns come from the world map, not from runtime allocation.
type LaneID int64

// TurnID identifies a turn movement at an intersection.
type TurnID int64

// IntersectionID identifies an intersection in the world map.
type IntersectionID int64

// ParkingSpotID identifies a single on-street or off-street parking spot.
type ParkingSpotID int64

// BusRouteID identifies a transit route.
type BusRouteID string

// BuildingID identifies a building a car may be associated with as owner.
type BuildingID int64
