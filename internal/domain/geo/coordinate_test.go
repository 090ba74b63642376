package geo

import (
	"errors"
	"math"
	"testing"
)

func TestNewCoordinate(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		wantErr  error
	}{
		{"valid", 19.0760, 72.8777, nil},
		{"equator meridian", 0, 0, nil},
		{"lat too high", 90.1, 0, ErrInvalidLatitude},
		{"lat too low", -90.1, 0, ErrInvalidLatitude},
		{"lng too high", 0, 180.1, ErrInvalidLongitude},
		{"lng too low", 0, -180.1, ErrInvalidLongitude},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCoordinate(tc.lat, tc.lng)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("NewCoordinate(%v, %v) err = %v, want %v", tc.lat, tc.lng, err, tc.wantErr)
			}
		})
	}
}

func TestHaversineKM(t *testing.T) {
	mumbai := Coordinate{Latitude: 19.0760, Longitude: 72.8777}
	pune := Coordinate{Latitude: 18.5204, Longitude: 73.8567}
	delhi := Coordinate{Latitude: 28.6139, Longitude: 77.2090}

	t.Run("zero distance", func(t *testing.T) {
		if d := HaversineKM(mumbai, mumbai); d != 0 {
			t.Fatalf("distance to self = %v, want 0", d)
		}
	})

	t.Run("known distances", func(t *testing.T) {
		cases := []struct {
			name      string
			a, b      Coordinate
			wantKM    float64
			tolerance float64
		}{
			{"mumbai-pune", mumbai, pune, 119.5, 2.0},
			{"mumbai-delhi", mumbai, delhi, 1153.0, 10.0},
		}
		for _, tc := range cases {
			got := HaversineKM(tc.a, tc.b)
			if math.Abs(got-tc.wantKM) > tc.tolerance {
				t.Errorf("%s: %v km, want %v±%v", tc.name, got, tc.wantKM, tc.tolerance)
			}
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		if d1, d2 := HaversineKM(mumbai, pune), HaversineKM(pune, mumbai); math.Abs(d1-d2) > 1e-9 {
			t.Fatalf("asymmetric: %v vs %v", d1, d2)
		}
	})
}
