// Package fare computes trip fares from great-circle distance.
package fare

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"quicklift/internal/domain/geo"
)

// DefaultRatePerKM applies when the config omits fare.rate_per_km.
const DefaultRatePerKM = 11.00

// ErrMissingCoordinates is returned when either trip endpoint is absent.
var ErrMissingCoordinates = errors.New("pickup and destination coordinates are required")

// Calculator turns a route into a monetary amount. The zero value is not
// usable; construct with NewCalculator.
type Calculator struct {
	ratePerKM float64
}

func NewCalculator(ratePerKM float64) *Calculator {
	if ratePerKM <= 0 {
		ratePerKM = DefaultRatePerKM
	}
	return &Calculator{ratePerKM: ratePerKM}
}

func (c *Calculator) RatePerKM() float64 {
	return c.ratePerKM
}

// Distance is the great-circle distance between two points in kilometers.
func (c *Calculator) Distance(a, b geo.Coordinate) float64 {
	return geo.HaversineKM(a, b)
}

// Amount prices a distance: distance * rate + tolls, rounded half-up to two
// decimal places.
func (c *Calculator) Amount(distanceKM, tolls float64) float64 {
	return roundHalfUp(distanceKM*c.ratePerKM + tolls)
}

// Estimate prices the route between two endpoints. Either endpoint being nil
// yields ErrMissingCoordinates.
func (c *Calculator) Estimate(pickup, destination *geo.Coordinate, tolls float64) (float64, error) {
	if pickup == nil || destination == nil {
		return 0, ErrMissingCoordinates
	}
	return c.Amount(geo.HaversineKM(*pickup, *destination), tolls), nil
}

// roundHalfUp rounds to 2 decimal places with ties going away from zero.
// Ties are read off the shortest decimal form of x, not its binary value,
// so 2.675 rounds to 2.68 even though the nearest float64 sits just below
// the tie. This matches decimal half-up billing arithmetic.
func roundHalfUp(x float64) float64 {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 <= 2 {
		return x
	}
	cents, err := strconv.ParseInt(s[:dot]+s[dot+1:dot+3], 10, 64)
	if err != nil {
		return math.Floor(x*100+0.5) / 100
	}
	if s[dot+3] >= '5' {
		if s[0] == '-' {
			cents--
		} else {
			cents++
		}
	}
	return float64(cents) / 100
}
