package alert

import "time"

// Role is the kind of responder.
type Role string

const (
	// RoleHospital responds with ambulances.
	RoleHospital Role = "hospital"
	// RolePolice responds with patrols.
	RolePolice Role = "police"
)

// Responder is a hospital or police station that can be notified.
type Responder struct {
	// ID is the identity used when submitting a decision.
	ID string `json:"id" yaml:"id"`
	// Role is the kind of responder.
	Role Role `json:"role" yaml:"role"`
	// Phone receives SMS notifications.
	Phone string `json:"phone" yaml:"phone"`
	// Location is where the responder is based.
	Location Location `json:"location" yaml:",inline"`
}

// Delivery statuses recorded for dispatch attempts.
const (
	StatusSent         = "Sent"
	StatusFailedPrefix = "Failed: "
)

// NotificationRecord is an append-only log entry, written once per
// dispatch attempt or resolved submission.
type NotificationRecord struct {
	// ID uniquely identifies the record.
	ID string `json:"id" bson:"_id"`
	// AlertID links the record to its alert cycle.
	AlertID string `json:"alert_id" bson:"alert_id"`
	// Role is the responder identity the record is about.
	Role string `json:"role"`
	// Contact is the phone number used, if any.
	Contact string `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	// Location is the accident maps link.
	Location string `json:"accident_location,omitempty" bson:"accident_location,omitempty"`
	// Link is the response page sent to the responder.
	Link string `json:"response_link,omitempty" bson:"response_link,omitempty"`
	// Status is the delivery status or the submission outcome.
	Status string `json:"status" bson:"status"`
	// MessageID is the gateway delivery identifier.
	MessageID string `json:"message_sid,omitempty" bson:"message_sid,omitempty"`
	// Accepted is true only for the winning acceptance.
	Accepted bool `json:"accepted" bson:"accepted"`
	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
