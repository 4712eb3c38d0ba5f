// Package journal defines the domain types for the checkout journal.
//
// The journal is a durable audit trail of every transition a checkout flow
// goes through. It serves two purposes:
//
//  1. Observability: you can query the DB to see exactly where a checkout is
//     (or was) and correlate it with request logs via the request_id field.
//
//  2. Support: when a customer reports a lost order or a payment dispute, the
//     journal shows what the device actually did — which codes were tried,
//     when the order was submitted, what the payment reconciliation returned.
package journal

import "time"

// Event names the action that caused (or failed to cause) a transition.
type Event string

const (
	EventEnter          Event = "ENTER"
	EventRequestCode    Event = "REQUEST_CODE"
	EventVerifyCode     Event = "VERIFY_CODE"
	EventChangeNumber   Event = "CHANGE_NUMBER"
	EventSubmitOrder    Event = "SUBMIT_ORDER"
	EventLogout         Event = "LOGOUT"
	EventPaymentReturn  Event = "PAYMENT_RETURN"
	EventInitiatePayout Event = "INITIATE_PAYMENT"
)

// Entry is a single row in the checkout_journal table.
// It captures a point-in-time snapshot of a checkout flow.
type Entry struct {
	// FlowID is the unique identifier for this checkout flow instance.
	FlowID string

	// Event is the action that was attempted.
	Event Event

	// State is the flow state after the event was handled.
	State string

	// Detail carries event-specific context (masked phone, order reference,
	// reconciliation outcome). Never the OTP code or the bearer token.
	Detail string

	// Error is the state-local message when the event failed; empty on
	// success. Failures do not change State — that is the point of
	// recording both.
	Error string

	// RequestID correlates the entry with the local HTTP surface's logs.
	RequestID string

	// CreatedAt is the wall-clock timestamp of the event.
	CreatedAt time.Time
}
