package alert

import (
	"fmt"
	"time"
)

// Location is a point on the map where an accident was detected.
type Location struct {
	// Latitude in decimal degrees.
	Latitude float64 `json:"lat" yaml:"lat"`
	// Longitude in decimal degrees.
	Longitude float64 `json:"lon" yaml:"lon"`
}

// MapsLink renders the location as a link responders can open on a phone.
func (l Location) MapsLink() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%g,%g", l.Latitude, l.Longitude)
}

// Alert is one accident event requiring exactly one responder's acceptance.
type Alert struct {
	// ID uniquely identifies the alert cycle.
	ID string
	// Location is where the accident happened.
	Location Location
	// OpenedAt is when the alert cycle started.
	OpenedAt time.Time
}

// LockState is the arbitration record of the current alert.
//
// Once IsLocked becomes true it stays true until the next alert is opened,
// and AcceptedBy never changes in between.
type LockState struct {
	// AlertID identifies the alert cycle the state belongs to.
	AlertID string
	// IsLocked reports whether a responder already accepted the alert.
	IsLocked bool
	// AcceptedBy is the responder whose acceptance won, empty while open.
	AcceptedBy string
	// OpenedAt is when the alert cycle started.
	OpenedAt time.Time
	// DecidedAt is when the winning acceptance was committed.
	DecidedAt time.Time
}

// Clone returns a copy of the state so callers cannot reach the shared record.
func (s *LockState) Clone() *LockState {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}
