package model

// VehicleKind distinguishes car/bike/bus bodies, following the teacher's
// TransitMode string-enum idiom.
type VehicleKind string

const (
	VehicleCar  VehicleKind = "CAR"
	VehicleBike VehicleKind = "BIKE"
	VehicleBus  VehicleKind = "BUS"
)

// Vehicle holds a car's immutable physical attributes.
type Vehicle struct {
	ID     CarID
	Kind   VehicleKind
	Length float64 // distance units, e.g. meters
	Owner  *BuildingID
}

// ParkedCar is a record describing a car sitting in a reserved spot, which
// DrivingSim hands to the parking collaborator when a car finishes parking.
type ParkedCar struct {
	Vehicle Vehicle
	Spot    ParkingSpotID
}
