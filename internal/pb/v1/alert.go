package v1

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Field names used on the wire.
const (
	fieldResponderID = "responder_id"
	fieldDecision    = "decision"
	fieldMessage     = "message"
	fieldOutcome     = "outcome"
	fieldBy          = "by"
	fieldAlertID     = "alert_id"
	fieldLatitude    = "lat"
	fieldLongitude   = "lon"
	fieldOpenedAt    = "opened_at"
	fieldDecidedAt   = "decided_at"
	fieldIsLocked    = "is_locked"
	fieldAcceptedBy  = "accepted_by"
	fieldNotified    = "notified"
	fieldFailed      = "failed"
	fieldResponder   = "responder"
	fieldResponse    = "response"
	fieldRedirect    = "redirect"
	fieldWinner      = "winner"
)

// RespondRequest carries a responder's decision.
type RespondRequest struct {
	ResponderID string
	Decision    string
}

// GetResponderID returns the responder or an empty string.
func (r *RespondRequest) GetResponderID() string {
	if r == nil {
		return ""
	}

	return r.ResponderID
}

// GetDecision returns the decision or an empty string.
func (r *RespondRequest) GetDecision() string {
	if r == nil {
		return ""
	}

	return r.Decision
}

// Struct encodes the request.
func (r *RespondRequest) Struct() *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldResponderID: structpb.NewStringValue(r.GetResponderID()),
		fieldDecision:    structpb.NewStringValue(r.GetDecision()),
	})
}

// RespondRequestFromStruct decodes a request. A nil struct yields nil.
func RespondRequestFromStruct(s *structpb.Struct) *RespondRequest {
	if s == nil {
		return nil
	}

	return &RespondRequest{
		ResponderID: stringField(s, fieldResponderID),
		Decision:    stringField(s, fieldDecision),
	}
}

// RespondResponse is the verdict returned to the submitter.
type RespondResponse struct {
	Message string
	Outcome string
	By      string
	AlertID string
}

// GetMessage returns the human readable verdict.
func (r *RespondResponse) GetMessage() string {
	if r == nil {
		return ""
	}

	return r.Message
}

// GetOutcome returns the verdict outcome.
func (r *RespondResponse) GetOutcome() string {
	if r == nil {
		return ""
	}

	return r.Outcome
}

// Struct encodes the response.
func (r *RespondResponse) Struct() *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldMessage: structpb.NewStringValue(r.Message),
		fieldOutcome: structpb.NewStringValue(r.Outcome),
		fieldBy:      structpb.NewStringValue(r.By),
		fieldAlertID: structpb.NewStringValue(r.AlertID),
	})
}

// RespondResponseFromStruct decodes a response.
func RespondResponseFromStruct(s *structpb.Struct) *RespondResponse {
	return &RespondResponse{
		Message: stringField(s, fieldMessage),
		Outcome: stringField(s, fieldOutcome),
		By:      stringField(s, fieldBy),
		AlertID: stringField(s, fieldAlertID),
	}
}

// OpenAlertRequest starts a new alert cycle at a location.
type OpenAlertRequest struct {
	Latitude  float64
	Longitude float64
}

// Struct encodes the request.
func (r *OpenAlertRequest) Struct() *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldLatitude:  structpb.NewNumberValue(r.Latitude),
		fieldLongitude: structpb.NewNumberValue(r.Longitude),
	})
}

// OpenAlertRequestFromStruct decodes a request. A nil struct yields nil.
func OpenAlertRequestFromStruct(s *structpb.Struct) *OpenAlertRequest {
	if s == nil {
		return nil
	}

	return &OpenAlertRequest{
		Latitude:  numberField(s, fieldLatitude),
		Longitude: numberField(s, fieldLongitude),
	}
}

// OpenAlertResponse describes the opened alert and its dispatch.
type OpenAlertResponse struct {
	AlertID  string
	OpenedAt time.Time
	Notified int
	Failed   int
}

// Struct encodes the response.
func (r *OpenAlertResponse) Struct() *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldAlertID:  structpb.NewStringValue(r.AlertID),
		fieldOpenedAt: timeValue(r.OpenedAt),
		fieldNotified: structpb.NewNumberValue(float64(r.Notified)),
		fieldFailed:   structpb.NewNumberValue(float64(r.Failed)),
	})
}

// OpenAlertResponseFromStruct decodes a response.
func OpenAlertResponseFromStruct(s *structpb.Struct) *OpenAlertResponse {
	return &OpenAlertResponse{
		AlertID:  stringField(s, fieldAlertID),
		OpenedAt: timeField(s, fieldOpenedAt),
		Notified: int(numberField(s, fieldNotified)),
		Failed:   int(numberField(s, fieldFailed)),
	}
}

// StateResponse is a snapshot of the arbitration state.
type StateResponse struct {
	AlertID    string
	IsLocked   bool
	AcceptedBy string
	OpenedAt   time.Time
	DecidedAt  time.Time
}

// GetIsLocked reports whether the alert was accepted.
func (r *StateResponse) GetIsLocked() bool {
	return r != nil && r.IsLocked
}

// GetAcceptedBy returns the winner or an empty string.
func (r *StateResponse) GetAcceptedBy() string {
	if r == nil {
		return ""
	}

	return r.AcceptedBy
}

// Struct encodes the response.
func (r *StateResponse) Struct() *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldAlertID:    structpb.NewStringValue(r.AlertID),
		fieldIsLocked:   structpb.NewBoolValue(r.IsLocked),
		fieldAcceptedBy: structpb.NewStringValue(r.AcceptedBy),
		fieldOpenedAt:   timeValue(r.OpenedAt),
		fieldDecidedAt:  timeValue(r.DecidedAt),
	})
}

// StateResponseFromStruct decodes a response.
func StateResponseFromStruct(s *structpb.Struct) *StateResponse {
	return &StateResponse{
		AlertID:    stringField(s, fieldAlertID),
		IsLocked:   boolField(s, fieldIsLocked),
		AcceptedBy: stringField(s, fieldAcceptedBy),
		OpenedAt:   timeField(s, fieldOpenedAt),
		DecidedAt:  timeField(s, fieldDecidedAt),
	}
}

// Event is one item of the Watch stream.
type Event struct {
	Responder string
	Response  string
	Redirect  bool
}

// GetRedirect reports whether clients should leave the pending view.
func (e *Event) GetRedirect() bool {
	return e != nil && e.Redirect
}

// Struct encodes the event. Redirect is omitted unless set.
func (e *Event) Struct() *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldResponder: structpb.NewStringValue(e.Responder),
		fieldResponse:  structpb.NewStringValue(e.Response),
	}

	if e.Redirect {
		fields[fieldRedirect] = structpb.NewBoolValue(true)
	}

	return newStruct(fields)
}

// EventFromStruct decodes an event.
func EventFromStruct(s *structpb.Struct) *Event {
	return &Event{
		Responder: stringField(s, fieldResponder),
		Response:  stringField(s, fieldResponse),
		Redirect:  boolField(s, fieldRedirect),
	}
}

// ConflictDetail is attached to AlreadyExists errors and names the winner.
type ConflictDetail struct {
	Winner string
}

// Struct encodes the detail.
func (d *ConflictDetail) Struct() *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldWinner: structpb.NewStringValue(d.Winner),
	})
}

// ConflictDetailFromStruct decodes the detail. It returns nil if the struct
// does not name a winner.
func ConflictDetailFromStruct(s *structpb.Struct) *ConflictDetail {
	winner := stringField(s, fieldWinner)
	if winner == "" {
		return nil
	}

	return &ConflictDetail{Winner: winner}
}

func newStruct(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func numberField(s *structpb.Struct, name string) float64 {
	return s.GetFields()[name].GetNumberValue()
}

func boolField(s *structpb.Struct, name string) bool {
	return s.GetFields()[name].GetBoolValue()
}

// timeValue encodes t as RFC 3339; the zero time becomes an empty string.
func timeValue(t time.Time) *structpb.Value {
	if t.IsZero() {
		return structpb.NewStringValue("")
	}

	return structpb.NewStringValue(t.UTC().Format(time.RFC3339Nano))
}

func timeField(s *structpb.Struct, name string) time.Time {
	raw := stringField(s, name)
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return t
}
