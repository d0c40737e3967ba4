package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string, timeout time.Duration) *Stripe {
	httpClient := &http.Client{Timeout: timeout}
	backend := func(b stripe.SupportedBackend) stripe.Backend {
		return stripe.GetBackendWithConfig(b, &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(1),
		})
	}

	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     backend(stripe.APIBackend),
		Connect: backend(stripe.ConnectBackend),
		Uploads: backend(stripe.UploadsBackend),
	})
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return Intent{}, &ProviderError{Message: stripeErr.Msg}
		}
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *Stripe) ParseEvent(payload []byte, signatureHeader string) (Event, error) {
	return parseEvent(payload, signatureHeader, s.webhookSecret)
}

func parseEvent(payload []byte, signatureHeader, secret string) (Event, error) {
	if signatureHeader == "" {
		return Event{}, ErrInvalidSignature
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: evt.ID, Type: string(evt.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || evt.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return Event{}, fmt.Errorf("decode payment intent: %w", err)
	}
	out.PaymentIntentID = pi.ID
	out.Status = string(pi.Status)
	out.ReceiptEmail = pi.ReceiptEmail
	out.Metadata = pi.Metadata
	return out, nil
}
