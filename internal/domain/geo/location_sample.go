package geo

import (
	"errors"
	"math"
	"strings"
	"time"
)

// LocationSample is the domain entity corresponding to the `location_samples`
// table. Location pings append samples; they never mutate the trip itself.
type LocationSample struct {
	ID             string
	TripID         string
	DriverID       string
	Latitude       float64
	Longitude      float64
	SpeedKMH       *float64
	HeadingDegrees *float64
	RecordedAt     time.Time
}

var (
	ErrMissingTripID      = errors.New("trip ID is missing")
	ErrMissingDriverID    = errors.New("driver ID is missing")
	ErrInvalidLatitude    = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude   = errors.New("longitude must be between -180 and 180")
	ErrNegativeSpeed      = errors.New("speed_kmh cannot be negative")
	ErrInvalidHeading     = errors.New("heading_degrees must be between 0 and 360")
	ErrRecordedAtZeroTime = errors.New("recorded_at must be a valid timestamp")
)

// NewLocationSample constructs a sample. Speed and heading are optional.
func NewLocationSample(tripID, driverID string, latitude, longitude float64, speedKMH, headingDegrees *float64, recordedAt time.Time) (*LocationSample, error) {
	sample := &LocationSample{
		TripID:         strings.TrimSpace(tripID),
		DriverID:       strings.TrimSpace(driverID),
		Latitude:       latitude,
		Longitude:      longitude,
		SpeedKMH:       speedKMH,
		HeadingDegrees: headingDegrees,
		RecordedAt:     recordedAt,
	}
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now().UTC()
	}

	if err := sample.Validate(); err != nil {
		return nil, err
	}
	return sample, nil
}

// Validate checks invariants of the LocationSample entity.
func (sample *LocationSample) Validate() error {
	if sample.TripID == "" {
		return ErrMissingTripID
	}
	if sample.DriverID == "" {
		return ErrMissingDriverID
	}
	if sample.Latitude < -90 || sample.Latitude > 90 || math.IsNaN(sample.Latitude) {
		return ErrInvalidLatitude
	}
	if sample.Longitude < -180 || sample.Longitude > 180 || math.IsNaN(sample.Longitude) {
		return ErrInvalidLongitude
	}
	if sample.SpeedKMH != nil {
		if *sample.SpeedKMH < 0 || math.IsNaN(*sample.SpeedKMH) {
			return ErrNegativeSpeed
		}
	}
	if sample.HeadingDegrees != nil {
		// allow exactly 0 and 360 (some SDKs report 360.0 instead of 0.0)
		if *sample.HeadingDegrees < 0 || *sample.HeadingDegrees > 360 || math.IsNaN(*sample.HeadingDegrees) {
			return ErrInvalidHeading
		}
	}
	if sample.RecordedAt.IsZero() {
		return ErrRecordedAtZeroTime
	}
	return nil
}
