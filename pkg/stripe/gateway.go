package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/mayaruiz/secondstory-backend/pkg/errors"
)

// Gateway is the payment surface settlement depends on. Capture happens
// before any database write; a capture that cannot be confirmed is a
// failure, never an ambiguous success.
type Gateway interface {
	AuthorizeAndCapture(ctx context.Context, amountCents int64, paymentMethodRef string) (string, error)
	Refund(ctx context.Context, paymentRef string, amountCents int64) (string, error)
}

// NewIdempotencyKey returns a unique key for Stripe operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "ss"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// AuthorizeAndCapture charges the buyer's payment method for the full
// amount and returns the payment intent id on success.
func (c *Client) AuthorizeAndCapture(ctx context.Context, amountCents int64, paymentMethodRef string) (string, error) {
	if amountCents <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	if strings.TrimSpace(paymentMethodRef) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment method reference is required")
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String(paymentMethodRef),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.SetIdempotencyKey(c.NewIdempotencyKey("payment.capture"))

	c.log(ctx, "request", "authorize_and_capture", map[string]any{"amount_cents": amountCents})

	intent, err := c.api.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		c.log(ctx, "error", "authorize_and_capture", map[string]any{"error": err.Error()})
		return "", c.mapStripeError(err, "payment capture")
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		c.log(ctx, "error", "authorize_and_capture", map[string]any{
			"error":  fmt.Sprintf("payment intent status %s", intent.Status),
			"intent": intent.ID,
		})
		return "", pkgerrors.New(pkgerrors.CodePaymentFailed,
			fmt.Sprintf("payment not completed (status %s)", intent.Status))
	}

	c.log(ctx, "response", "authorize_and_capture", map[string]any{
		"intent": intent.ID,
		"status": string(intent.Status),
	})
	return intent.ID, nil
}

// Refund reverses a prior capture, in full when amountCents is zero.
func (c *Client) Refund(ctx context.Context, paymentRef string, amountCents int64) (string, error) {
	if strings.TrimSpace(paymentRef) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentRef),
	}
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}
	params.SetIdempotencyKey(c.NewIdempotencyKey("payment.refund"))

	c.log(ctx, "request", "refund", map[string]any{"amount_cents": amountCents})

	refund, err := c.api.V1Refunds.Create(ctx, params)
	if err != nil {
		c.log(ctx, "error", "refund", map[string]any{"error": err.Error()})
		return "", c.mapStripeError(err, "refund")
	}

	c.log(ctx, "response", "refund", map[string]any{
		"refund": refund.ID,
		"status": string(refund.Status),
	})
	return refund.ID, nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("stripe %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("stripe %s", phase))
	}
}

func (c *Client) mapStripeError(err error, op string) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := domainCodeForStatus(stripeErr.HTTPStatusCode)
		if stripeErr.Type == stripe.ErrorTypeCard {
			code = pkgerrors.CodePaymentFailed
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("stripe %s failed", op))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, fmt.Sprintf("stripe %s timed out", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("stripe %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusPaymentRequired:
		return pkgerrors.CodePaymentFailed
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
