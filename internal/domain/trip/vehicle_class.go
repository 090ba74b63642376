package trip

import (
	"errors"
	"strings"
)

// VehicleClass is the category of vehicle requested by the rider.
type VehicleClass string

const (
	VehicleSedan     VehicleClass = "SEDAN"
	VehicleSUV       VehicleClass = "SUV"
	VehicleHatchback VehicleClass = "HATCHBACK"
	VehicleLuxury    VehicleClass = "LUXURY"
)

var ErrInvalidVehicleClass = errors.New("invalid vehicle class")

// ParseVehicleClass normalizes (uppercases+trims) and validates a vehicle class string.
func ParseVehicleClass(in string) (VehicleClass, error) {
	vc := VehicleClass(strings.ToUpper(strings.TrimSpace(in)))
	if vc.Valid() {
		return vc, nil
	}
	return "", ErrInvalidVehicleClass
}

// Valid reports whether vehicleClass is one of the allowed vehicle class constants.
func (vehicleClass VehicleClass) Valid() bool {
	switch vehicleClass {
	case VehicleSedan, VehicleSUV, VehicleHatchback, VehicleLuxury:
		return true
	default:
		return false
	}
}

// String returns the string representation of the VehicleClass.
func (vehicleClass VehicleClass) String() string {
	return string(vehicleClass)
}
