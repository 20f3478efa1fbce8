package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/accirescue/internal/arbitration"
	"github.com/oshokin/accirescue/internal/broadcast"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/repository/records"
)

// Dispatcher notifies responders about a freshly opened alert.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *domain.Alert) ([]*domain.NotificationRecord, error)
}

// cycle tracks whether the winning acceptance of one alert was announced.
type cycle struct {
	announced chan struct{}
	once      sync.Once
}

func newCycle() *cycle {
	return &cycle{announced: make(chan struct{})}
}

// announce marks the cycle as announced. Safe to call more than once.
func (c *cycle) announce() {
	c.once.Do(func() { close(c.announced) })
}

// service resolves responder submissions against the arbitration lock.
// It is unexported to keep the transports decoupled from the implementation.
type service struct {
	// lock is the single source of truth for the current alert.
	lock *arbitration.Lock
	// hub fans events out to connected observers.
	hub *broadcast.Hub
	// dispatcher sends notifications for new alerts, may be nil.
	dispatcher Dispatcher
	// records stores the notification log, may be nil.
	records records.Repository
	// current is the running alert cycle.
	current *cycle
	// now returns the current time.
	now func() time.Time
	// mu keeps current in step with the lock's alert cycle.
	mu sync.Mutex
}

// newService creates a resolver around a fresh, open lock.
func newService(hub *broadcast.Hub, dispatcher Dispatcher, repo records.Repository) *service {
	return &service{
		lock:       arbitration.NewLock(),
		hub:        hub,
		dispatcher: dispatcher,
		records:    repo,
		current:    newCycle(),
		now:        time.Now,
	}
}

// Respond resolves one submission and returns the verdict for its submitter.
//
// Validation happens before the lock is touched. A losing acceptance returns a
// *domain.ConflictError naming the winner and is not broadcast.
func (s *service) Respond(ctx context.Context, submission domain.Submission) (*domain.Verdict, error) {
	responderID := strings.TrimSpace(submission.ResponderID)
	if responderID == "" {
		return nil, domain.NewValidationError("responder_id", domain.MessageRoleRequired)
	}

	decision, err := domain.ParseDecision(submission.Decision)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithFields(ctx, "responder_id", responderID, "decision", decision)

	if decision == domain.DecisionReject {
		return s.reject(ctx, responderID), nil
	}

	return s.accept(ctx, responderID)
}

// reject broadcasts an informational rejection. The lock is never touched.
func (s *service) reject(ctx context.Context, responderID string) *domain.Verdict {
	state := s.lock.Snapshot()

	s.hub.Broadcast(ctx, domain.RejectedEvent(responderID))

	verdict := &domain.Verdict{
		Outcome: domain.OutcomeRejected,
		By:      responderID,
		AlertID: state.AlertID,
	}

	logger.InfoKV(ctx, "Alert declined", "alert_id", verdict.AlertID)
	s.record(ctx, verdict, false)

	return verdict
}

// accept claims the lock. The winner's event is broadcast after the lock is
// released; losers wait for that broadcast before they get their answer.
func (s *service) accept(ctx context.Context, responderID string) (*domain.Verdict, error) {
	current, claim := s.claim(responderID)

	if !claim.Won {
		select {
		case <-current.announced:
		case <-ctx.Done():
		}

		logger.InfoKV(ctx, "Alert already accepted", "alert_id", claim.AlertID, "winner", claim.Winner)
		s.record(ctx, &domain.Verdict{
			Outcome: domain.OutcomeAlreadyAccepted,
			By:      responderID,
			AlertID: claim.AlertID,
		}, false)

		return nil, &domain.ConflictError{Winner: claim.Winner}
	}

	delivered := s.hub.Broadcast(ctx, domain.AcceptedEvent(responderID))
	current.announce()

	verdict := &domain.Verdict{
		Outcome: domain.OutcomeAccepted,
		By:      responderID,
		AlertID: claim.AlertID,
	}

	logger.InfoKV(ctx, "Alert accepted", "alert_id", verdict.AlertID, "observers", delivered)
	s.record(ctx, verdict, true)

	return verdict, nil
}

// OpenAlert starts a new alert cycle at the given location and dispatches
// notifications. Dispatch failures are logged and never undo the new cycle.
func (s *service) OpenAlert(ctx context.Context, at domain.Location) (*domain.Alert, []*domain.NotificationRecord) {
	alert := &domain.Alert{
		ID:       uuid.NewString(),
		Location: at,
		OpenedAt: s.now(),
	}

	ctx = logger.WithKV(ctx, "alert_id", alert.ID)

	s.mu.Lock()
	previous := s.current
	s.current = newCycle()
	s.lock.Reset(alert)
	s.mu.Unlock()

	// Nobody waits on the previous cycle any more.
	previous.announce()

	logger.InfoKV(ctx, "Alert opened", "location", alert.Location.MapsLink())

	if s.dispatcher == nil {
		return alert, nil
	}

	sent, err := s.dispatcher.Dispatch(ctx, alert)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to dispatch alert", "error", err)

		return alert, nil
	}

	return alert, sent
}

// State returns a snapshot of the arbitration state.
func (s *service) State(ctx context.Context) *domain.LockState {
	state := s.lock.Snapshot()

	logger.DebugKV(ctx, "Alert state requested", "alert_id", state.AlertID, "is_locked", state.IsLocked)

	return state
}

// Records lists the notification log of an alert.
func (s *service) Records(ctx context.Context, alertID string) ([]*domain.NotificationRecord, error) {
	if s.records == nil {
		return nil, records.ErrNotFound
	}

	return s.records.List(ctx, alertID)
}

// Subscribe registers an observer on the broadcast hub.
func (s *service) Subscribe(kind string) *broadcast.Observer {
	return s.hub.Subscribe(kind)
}

// Unsubscribe removes an observer from the broadcast hub.
func (s *service) Unsubscribe(o *broadcast.Observer) {
	s.hub.Unsubscribe(o)
}

// Observers returns the number of connected hub observers.
func (s *service) Observers() int {
	return s.hub.Count()
}

// claim tries the lock and returns the cycle the claim was made in.
func (s *service) claim(responderID string) (*cycle, arbitration.Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, s.lock.TryAccept(responderID)
}

// record appends a response record; failures are logged only.
func (s *service) record(ctx context.Context, verdict *domain.Verdict, accepted bool) {
	if s.records == nil {
		return
	}

	err := s.records.Append(ctx, &domain.NotificationRecord{
		ID:        uuid.NewString(),
		AlertID:   verdict.AlertID,
		Role:      verdict.By,
		Status:    string(verdict.Outcome),
		Accepted:  accepted,
		CreatedAt: s.now(),
	})
	if err != nil {
		logger.ErrorKV(ctx, "Failed to record response", "error", &domain.DeliveryError{Target: "records", Err: err})
	}
}
