package domain

import "time"

// LocationSample is the latest known position of an owner. One sample is
// stored per owner; a newer sample replaces the older one.
//
// The JSON shape matches the stored document layout:
// locations/{userId} = {name, latitude, longitude, timestamp}.
type LocationSample struct {
	Owner            string  `json:"name"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	CapturedAtMillis int64   `json:"timestamp"`
}

// CapturedAt returns the capture time as a time.Time.
func (s LocationSample) CapturedAt() time.Time {
	return time.UnixMilli(s.CapturedAtMillis)
}

// Validate checks the sample validity invariant: non-empty owner,
// coordinates within range, and both coordinates non-zero (0.0 is the
// "unset" sentinel inherited from the stored document format).
func (s LocationSample) Validate() error {
	if s.Owner == "" {
		return ErrValidation("location sample has no owner")
	}
	if s.Latitude == 0 || s.Longitude == 0 {
		return ErrValidation("coordinates for %s are unset", s.Owner)
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return ErrValidation("latitude %v out of range [-90, 90]", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return ErrValidation("longitude %v out of range [-180, 180]", s.Longitude)
	}
	return nil
}
