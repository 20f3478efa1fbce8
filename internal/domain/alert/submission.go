package alert

import (
	"fmt"
	"strings"
)

// Decision is what a responder answers to an alert.
type Decision string

const (
	// DecisionAccept claims the alert.
	DecisionAccept Decision = "accept"
	// DecisionReject declines the alert without blocking others.
	DecisionReject Decision = "reject"
)

// ParseDecision normalizes raw input into a Decision.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", NewValidationError("response", MessageInvalidResponse)
	}
}

// Submission is a single responder answer. It is consumed once and discarded.
type Submission struct {
	// ResponderID is the role or identity of the submitter.
	ResponderID string
	// Decision is the raw answer; validated by the resolver.
	Decision string
}

// Outcome is the result of resolving a submission.
type Outcome string

const (
	// OutcomeAccepted means the submitter won the alert.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected means the submitter declined the alert.
	OutcomeRejected Outcome = "rejected"
	// OutcomeAlreadyAccepted means another responder won earlier.
	OutcomeAlreadyAccepted Outcome = "already_accepted"
)

// Messages returned to responders.
const (
	MessageRoleRequired    = "Responder role is required"
	MessageInvalidResponse = "Invalid response"
	MessageWaiting         = "Waiting for responder input"
)

// Verdict is the synchronous answer returned to the submitting responder.
type Verdict struct {
	// Outcome of the submission.
	Outcome Outcome
	// By is the submitter for accepted/rejected outcomes and the winner otherwise.
	By string
	// AlertID identifies the alert cycle the verdict belongs to.
	AlertID string
}

// Message renders the verdict for humans.
func (v *Verdict) Message() string {
	switch v.Outcome {
	case OutcomeAccepted:
		return "Request accepted by " + v.By
	case OutcomeRejected:
		return "Request declined by " + v.By
	case OutcomeAlreadyAccepted:
		return "Request already accepted by " + v.By
	default:
		return fmt.Sprintf("Request %s by %s", v.Outcome, v.By)
	}
}

// EventResponse is the response field of an observer event.
type EventResponse string

const (
	// EventAccepted announces the winning acceptance.
	EventAccepted EventResponse = "accepted"
	// EventRejected announces an informational rejection.
	EventRejected EventResponse = "rejected"
)

// Event is pushed to every connected observer.
type Event struct {
	// Responder who produced the event.
	Responder string `json:"responder"`
	// Response is either accepted or rejected.
	Response EventResponse `json:"response"`
	// Redirect tells clients to leave the pending view. Only set on acceptance.
	Redirect bool `json:"redirect,omitempty"`
}

// AcceptedEvent builds the event broadcast for the winning acceptance.
func AcceptedEvent(responder string) Event {
	return Event{
		Responder: responder,
		Response:  EventAccepted,
		Redirect:  true,
	}
}

// RejectedEvent builds the informational rejection event.
func RejectedEvent(responder string) Event {
	return Event{
		Responder: responder,
		Response:  EventRejected,
	}
}
