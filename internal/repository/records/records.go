package records

import (
	"context"
	"errors"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
)

// Repository is the append-only notification log.
type Repository interface {
	Append(ctx context.Context, record *domain.NotificationRecord) error
	List(ctx context.Context, alertID string) ([]*domain.NotificationRecord, error)
}

// Directory lists responders that can be notified about an alert.
type Directory interface {
	Responders(ctx context.Context) ([]domain.Responder, error)
}

var (
	// ErrNotFound is returned when the log holds no entry for the query.
	ErrNotFound = errors.New("records not found")
	// errRecordRequired is returned when a nil record is appended.
	errRecordRequired = errors.New("record is required")
)

// StaticDirectory serves a fixed responder list.
type StaticDirectory []domain.Responder

// Responders implements Directory.
func (d StaticDirectory) Responders(context.Context) ([]domain.Responder, error) {
	out := make([]domain.Responder, len(d))
	copy(out, d)

	return out, nil
}

// MultiDirectory merges several directories, dropping duplicate IDs.
// The first directory wins for a duplicated ID.
type MultiDirectory []Directory

// Responders implements Directory.
func (m MultiDirectory) Responders(ctx context.Context) ([]domain.Responder, error) {
	var (
		out  []domain.Responder
		seen = make(map[string]struct{})
	)

	for _, d := range m {
		list, err := d.Responders(ctx)
		if err != nil {
			return nil, err
		}

		for _, r := range list {
			if _, ok := seen[r.ID]; ok {
				continue
			}

			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}

	return out, nil
}
