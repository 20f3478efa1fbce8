package sms

import (
	"context"
	"errors"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
)

// messageAPI is the part of the Twilio client used here.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

var (
	// errRecipientRequired is returned for an empty destination number.
	errRecipientRequired = errors.New("recipient phone number is required")
	// errNoMessageSID is returned when Twilio accepts a message without an identifier.
	errNoMessageSID = errors.New("gateway returned no message sid")
)

// Twilio sends SMS through the Twilio REST API.
type Twilio struct {
	// api creates messages.
	api messageAPI
	// from is the sending phone number.
	from string
}

// NewTwilio creates a gateway authenticated with the account credentials.
func NewTwilio(accountSID, authToken, from string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &Twilio{
		api:  client.Api,
		from: from,
	}
}

// Send delivers body to the phone number and returns the message SID.
// Failures are reported as *domain.DeliveryError.
func (t *Twilio) Send(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", &domain.DeliveryError{Target: "<empty>", Err: errRecipientRequired}
	}

	if err := ctx.Err(); err != nil {
		return "", &domain.DeliveryError{Target: to, Err: err}
	}

	params := new(openapi.CreateMessageParams)
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		return "", &domain.DeliveryError{Target: to, Err: err}
	}

	if msg == nil || msg.Sid == nil {
		return "", &domain.DeliveryError{Target: to, Err: errNoMessageSID}
	}

	logger.InfoKV(ctx, "SMS sent", "to", to, "message_sid", *msg.Sid)

	return *msg.Sid, nil
}
