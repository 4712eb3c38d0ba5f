package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/lahorneada/storefront/internal/checkout/journal"
	"github.com/lahorneada/storefront/internal/gateway"
	"github.com/lahorneada/storefront/internal/pkg/requestmeta"
	"github.com/lahorneada/storefront/internal/session"
)

// Outcome is the display result of a payment reconciliation.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomePending  Outcome = "pending"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

// Query parameters the payment provider puts on the return URL, in
// preference order.
var referenceParams = []string{"external_reference", "order"}

// Reconciler maps a payment provider return into an authoritative order
// payment status. The backend is the source of truth: nothing is cached or
// overridden locally, so re-invoking for the same reference is safe.
type Reconciler struct {
	gateway gateway.Gateway
	session *session.Store
	journal journal.Repository // nil-safe
}

func NewReconciler(gw gateway.Gateway, sess *session.Store, jr journal.Repository) *Reconciler {
	return &Reconciler{gateway: gw, session: sess, journal: jr}
}

// ReconcileReturn handles the navigation back from the payment provider.
// returnURL is the full URL the provider redirected to; a missing order
// reference short-circuits to the error outcome without a network call.
func (r *Reconciler) ReconcileReturn(ctx context.Context, returnURL string) Outcome {
	reference := extractReference(returnURL)
	if reference == "" {
		r.record(ctx, "", OutcomeError, "missing order reference")
		return OutcomeError
	}

	sync, err := r.gateway.SyncPaymentByReference(ctx, r.session.Token(), reference)
	if err != nil {
		slog.WarnContext(ctx, "payment: sync failed", "reference", reference, "error", err)
		r.record(ctx, reference, OutcomeError, err.Error())
		return OutcomeError
	}

	outcome := MapStatus(sync.PaymentStatus)
	r.record(ctx, reference, outcome, "")
	return outcome
}

// InitiatePayment requests the provider redirect URL for an order. It
// requires an established session; on any failure the caller must offer a
// retry instead of redirecting.
func (r *Reconciler) InitiatePayment(ctx context.Context, orderID int64) (string, error) {
	if !r.session.IsAuthenticated() {
		return "", fmt.Errorf("payment: initiate %d: %w", orderID, gateway.ErrUnauthorized)
	}

	initPoint, err := r.gateway.InitiatePayment(ctx, r.session.Token(), orderID)
	if err != nil {
		r.journalInit(ctx, orderID, err.Error())
		return "", fmt.Errorf("payment: initiate %d: %w", orderID, err)
	}
	r.journalInit(ctx, orderID, "")
	return initPoint, nil
}

func (r *Reconciler) journalInit(ctx context.Context, orderID int64, errMsg string) {
	if r.journal == nil {
		return
	}
	entry := &journal.Entry{
		FlowID:    "payment-return",
		Event:     journal.EventInitiatePayout,
		Detail:    strconv.FormatInt(orderID, 10),
		Error:     errMsg,
		RequestID: requestmeta.RequestID(ctx),
	}
	if err := r.journal.Append(ctx, entry); err != nil {
		slog.WarnContext(ctx, "payment: journal append failed", "error", err)
	}
}

// MapStatus converts a backend payment status into a display outcome. The
// mapping is one-directional and idempotent.
func MapStatus(paymentStatus string) Outcome {
	switch paymentStatus {
	case gateway.PaymentApproved:
		return OutcomeApproved
	case gateway.PaymentInProcess, gateway.PaymentPending:
		return OutcomePending
	case gateway.PaymentRejected:
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func (r *Reconciler) record(ctx context.Context, reference string, outcome Outcome, errMsg string) {
	if r.journal == nil {
		return
	}
	entry := &journal.Entry{
		FlowID:    "payment-return",
		Event:     journal.EventPaymentReturn,
		State:     string(outcome),
		Detail:    reference,
		Error:     errMsg,
		RequestID: requestmeta.RequestID(ctx),
	}
	if err := r.journal.Append(ctx, entry); err != nil {
		slog.WarnContext(ctx, "payment: journal append failed", "error", err)
	}
}

func extractReference(returnURL string) string {
	u, err := url.Parse(returnURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, p := range referenceParams {
		if v := q.Get(p); v != "" {
			return v
		}
	}
	return ""
}
