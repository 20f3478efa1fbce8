package arbitration

import (
	"sync"
	"time"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
)

// Claim is the result of TryAccept.
type Claim struct {
	// Won is true only for the first acceptance of the alert cycle.
	Won bool
	// Winner is the responder holding the alert after the call.
	Winner string
	// AlertID identifies the alert cycle the claim was made against.
	AlertID string
}

// Lock is the arbitration state of the current alert.
// The zero value is not usable; create it with NewLock.
type Lock struct {
	// state is the current arbitration record.
	state domain.LockState
	// now returns the current time; replaced in tests.
	now func() time.Time
	// mu serializes every read-then-write of state.
	mu sync.Mutex
}

// NewLock creates an open lock that is not bound to any alert yet.
func NewLock() *Lock {
	return &Lock{
		now: time.Now,
	}
}

// TryAccept claims the alert for responderID if it is still open.
// Nothing inside the critical section blocks.
func (l *Lock) TryAccept(responderID string) Claim {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsLocked {
		return Claim{
			Won:     false,
			Winner:  l.state.AcceptedBy,
			AlertID: l.state.AlertID,
		}
	}

	l.state.IsLocked = true
	l.state.AcceptedBy = responderID
	l.state.DecidedAt = l.now()

	return Claim{
		Won:     true,
		Winner:  responderID,
		AlertID: l.state.AlertID,
	}
}

// Reset opens a new alert cycle. It is the only way back to the open state.
func (l *Lock) Reset(alert *domain.Alert) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := domain.LockState{
		OpenedAt: l.now(),
	}

	if alert != nil {
		next.AlertID = alert.ID

		if !alert.OpenedAt.IsZero() {
			next.OpenedAt = alert.OpenedAt
		}
	}

	l.state = next
}

// Snapshot returns a copy of the current state.
func (l *Lock) Snapshot() *domain.LockState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state.Clone()
}
