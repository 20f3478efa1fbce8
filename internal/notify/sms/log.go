package sms

import (
	"context"

	"github.com/google/uuid"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
)

// Log pretends to deliver messages by writing them to the log.
type Log struct{}

// Send logs the message and returns a synthetic identifier.
func (Log) Send(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", &domain.DeliveryError{Target: "<empty>", Err: errRecipientRequired}
	}

	id := "log-" + uuid.NewString()

	logger.InfoKV(ctx, "SMS delivery disabled, message logged", "to", to, "body", body, "message_sid", id)

	return id, nil
}
