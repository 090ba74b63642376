package driver

import (
	"errors"
	"strings"
)

// Status is a driver's availability state.
type Status string

const (
	StatusOffline Status = "OFFLINE"
	StatusOnline  Status = "ONLINE"
	// StatusBusy means the driver holds exactly one active trip.
	StatusBusy Status = "BUSY"
)

var ErrInvalidDriverStatus = errors.New("invalid driver status")

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidDriverStatus
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusOffline, StatusOnline, StatusBusy:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
