// Package payment adapts the card processor behind a small interface so the
// order flow can be exercised without network access.
package payment

import (
	"context"
	"errors"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// ProviderError is a rejection reported by the processor.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

type Intent struct {
	ID           string
	ClientSecret string
}

// Event is a verified webhook notification. Payment intent fields are set
// only for payment_intent.* events.
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
	Status          string
	ReceiptEmail    string
	Metadata        map[string]string
}

type Processor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error)
	// ParseEvent verifies the signature header before decoding payload.
	ParseEvent(payload []byte, signatureHeader string) (Event, error)
}
