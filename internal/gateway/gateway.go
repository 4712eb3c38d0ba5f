package gateway

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when the backend rejects or requires a bearer
// token. Callers resolve it by returning empty results and pushing the user
// toward re-authentication, never by failing the process.
var ErrUnauthorized = errors.New("gateway: unauthorized")

// Gateway is the port over the backend's HTTP contract. It is stateless: the
// caller's bearer token flows in on every operation that needs an identity.
type Gateway interface {
	BakeryInfo(ctx context.Context) (*BakeryInfo, error)
	Catalog(ctx context.Context) ([]CatalogProduct, error)
	ProductDetail(ctx context.Context, id int64) (*ProductDetail, error)

	// SendOTP dispatches a one-time code to the given phone number.
	SendOTP(ctx context.Context, phone string) error

	// VerifyOTP checks the code. An invalid code is not an error: the result
	// carries IsValid=false and the caller decides what to do.
	VerifyOTP(ctx context.Context, phone, code string) (*VerifyResult, error)

	CreateOrder(ctx context.Context, token string, req CreateOrderRequest) error
	OrderHistory(ctx context.Context, token string) ([]OrderSummary, error)
	OrderDetail(ctx context.Context, token string, id int64) (*Order, error)

	// InitiatePayment requests a provider redirect URL for the order.
	InitiatePayment(ctx context.Context, token string, orderID int64) (string, error)

	// SyncPaymentByReference asks the backend to reconcile the referenced
	// order with the payment provider and returns the authoritative status.
	SyncPaymentByReference(ctx context.Context, token, reference string) (*PaymentSync, error)
}
