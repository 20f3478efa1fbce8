package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/geo"
	"github.com/oshokin/accirescue/internal/logger"
	"github.com/oshokin/accirescue/internal/repository/records"
)

// Gateway delivers a message body to a phone number and returns a delivery ID.
type Gateway interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Options limits recipient selection.
type Options struct {
	// ResponseURL is the link responders open to answer.
	ResponseURL string
	// RadiusKM drops responders farther away; zero means unlimited.
	RadiusKM float64
	// MaxRecipients caps the recipient count; zero means unlimited.
	MaxRecipients int
	// SpeedKMH is used for the travel time estimate in the operator log.
	SpeedKMH float64
}

// Dispatcher sends alert notifications.
type Dispatcher struct {
	directory records.Directory
	gateway   Gateway
	log       records.Repository
	opts      Options
	now       func() time.Time
}

// New creates a dispatcher. log may be nil to skip the notification log.
func New(directory records.Directory, gateway Gateway, log records.Repository, opts Options) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		gateway:   gateway,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// recipient is a responder with its distance to the accident.
type recipient struct {
	responder  domain.Responder
	distanceKM float64
}

// Dispatch notifies the selected responders and returns one record per attempt.
// The error is non-nil only when the directory cannot be read.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *domain.Alert) ([]*domain.NotificationRecord, error) {
	ctx = logger.WithKV(ctx, "alert_id", alert.ID)

	responders, err := d.directory.Responders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list responders: %w", err)
	}

	selected := d.selectRecipients(alert.Location, responders)

	logger.InfoKV(ctx, "Dispatching alert", "candidates", len(responders), "recipients", len(selected))

	out := make([]*domain.NotificationRecord, 0, len(selected))

	for _, r := range selected {
		record := d.notify(ctx, alert, r)
		d.append(ctx, record)
		out = append(out, record)
	}

	return out, nil
}

// selectRecipients orders responders by distance and applies the limits.
func (d *Dispatcher) selectRecipients(at domain.Location, responders []domain.Responder) []recipient {
	candidates := make([]recipient, 0, len(responders))

	for _, r := range responders {
		if r.Phone == "" {
			continue
		}

		dist := geo.Distance(at, r.Location)
		if d.opts.RadiusKM > 0 && dist > d.opts.RadiusKM {
			continue
		}

		candidates = append(candidates, recipient{responder: r, distanceKM: dist})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distanceKM < candidates[j].distanceKM
	})

	if d.opts.MaxRecipients > 0 && len(candidates) > d.opts.MaxRecipients {
		candidates = candidates[:d.opts.MaxRecipients]
	}

	return candidates
}

// notify sends a single SMS and builds its record.
func (d *Dispatcher) notify(ctx context.Context, alert *domain.Alert, r recipient) *domain.NotificationRecord {
	record := &domain.NotificationRecord{
		ID:        uuid.NewString(),
		AlertID:   alert.ID,
		Role:      r.responder.ID,
		Contact:   r.responder.Phone,
		Location:  alert.Location.MapsLink(),
		Link:      d.opts.ResponseURL,
		Status:    domain.StatusSent,
		CreatedAt: d.now(),
	}

	sid, err := d.gateway.Send(ctx, r.responder.Phone, MessageBody(alert.Location, d.opts.ResponseURL))
	if err != nil {
		record.Status = domain.StatusFailedPrefix + err.Error()

		logger.ErrorKV(ctx, "Failed to notify responder", "responder_id", r.responder.ID, "error", err)

		return record
	}

	record.MessageID = sid

	logger.InfoKV(ctx, "Responder notified",
		"responder_id", r.responder.ID,
		"distance_km", fmt.Sprintf("%.2f", r.distanceKM),
		"eta", geo.ETA(r.distanceKM, d.opts.SpeedKMH).String(),
		"message_sid", sid,
	)

	return record
}

// append writes the record to the log; failures are only logged.
func (d *Dispatcher) append(ctx context.Context, record *domain.NotificationRecord) {
	if d.log == nil {
		return
	}

	if err := d.log.Append(ctx, record); err != nil {
		logger.ErrorKV(ctx, "Failed to log notification", "responder_id", record.Role, "error", err)
	}
}

// MessageBody renders the SMS text sent to responders.
func MessageBody(at domain.Location, responseURL string) string {
	body := "Accident Alert! An accident has occurred at: " + at.MapsLink() + "."

	if responseURL != "" {
		body += " Click here to respond: " + responseURL
	}

	return body
}
