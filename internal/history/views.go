package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/lahorneada/storefront/internal/gateway"
	"github.com/lahorneada/storefront/internal/session"
)

// Views are the read-only order projections, gated on the session. They
// never mutate an order; selecting one triggers nothing but the fetch.
type Views struct {
	gateway gateway.Gateway
	session *session.Store
}

func NewViews(gw gateway.Gateway, sess *session.Store) *Views {
	return &Views{gateway: gw, session: sess}
}

// LoadHistory returns the caller's order summaries in the backend's order
// (newest first is the backend's concern, not recomputed here). Without an
// established session — or when the backend rejects the token — it returns
// an empty sequence instead of failing the caller.
func (v *Views) LoadHistory(ctx context.Context) ([]gateway.OrderSummary, error) {
	if !v.session.IsAuthenticated() {
		return []gateway.OrderSummary{}, nil
	}

	orders, err := v.gateway.OrderHistory(ctx, v.session.Token())
	if errors.Is(err, gateway.ErrUnauthorized) {
		return []gateway.OrderSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: load: %w", err)
	}
	if orders == nil {
		orders = []gateway.OrderSummary{}
	}
	return orders, nil
}

// LoadDetail fetches the full line items of one order. An absent session
// yields a nil result with no request attempted; a rejected token does the
// same.
func (v *Views) LoadDetail(ctx context.Context, orderID int64) (*gateway.Order, error) {
	if !v.session.IsAuthenticated() {
		return nil, nil
	}

	order, err := v.gateway.OrderDetail(ctx, v.session.Token(), orderID)
	if errors.Is(err, gateway.ErrUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: detail %d: %w", orderID, err)
	}
	return order, nil
}

// StatusLabel is the human-readable label for an order status, mirroring
// the storefront's copy.
func StatusLabel(status string) string {
	switch status {
	case gateway.OrderPendingReview:
		return "Pendiente de Revisión"
	case gateway.OrderAccepted:
		return "Aceptada"
	case gateway.OrderRejected:
		return "Rechazada"
	case gateway.OrderPreparation:
		return "En Preparación"
	case gateway.OrderReadyForPickup:
		return "Lista para Entregar"
	case gateway.OrderCompleted:
		return "Completada"
	case gateway.OrderCancelled:
		return "Cancelada"
	default:
		return status
	}
}

// PaymentStatusLabel is the label for the payment axis, independent from
// the order status axis.
func PaymentStatusLabel(status string) string {
	switch status {
	case gateway.PaymentPending:
		return "Pago Pendiente"
	case gateway.PaymentInProcess:
		return "Pago en Revisión"
	case gateway.PaymentApproved:
		return "Pagado"
	case gateway.PaymentRejected:
		return "Pago Rechazado"
	case gateway.PaymentRefunded:
		return "Reembolsado"
	case gateway.PaymentCancelled:
		return "Pago Cancelado"
	default:
		return ""
	}
}
