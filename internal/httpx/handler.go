package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lahorneada/storefront/internal/cart"
	"github.com/lahorneada/storefront/internal/catalog"
	"github.com/lahorneada/storefront/internal/checkout"
	"github.com/lahorneada/storefront/internal/gateway"
	"github.com/lahorneada/storefront/internal/history"
	"github.com/lahorneada/storefront/internal/payment"
	"github.com/lahorneada/storefront/internal/session"
	"github.com/lahorneada/storefront/internal/validation"
)

// Handler exposes the order-session engine to the rendering layer. The
// rendering layer only reads what these endpoints return; every mutation
// goes through the stores and the flow.
type Handler struct {
	flow       *checkout.Flow
	cart       *cart.Store
	session    *session.Store
	views      *history.Views
	reconciler *payment.Reconciler
	catalog    *catalog.Service
	gateway    gateway.Gateway
}

// NewHandler initializes the handler with its required collaborators.
func NewHandler(
	flow *checkout.Flow,
	cartStore *cart.Store,
	sessionStore *session.Store,
	views *history.Views,
	reconciler *payment.Reconciler,
	catalogSvc *catalog.Service,
	gw gateway.Gateway,
) *Handler {
	return &Handler{
		flow:       flow,
		cart:       cartStore,
		session:    sessionStore,
		views:      views,
		reconciler: reconciler,
		catalog:    catalogSvc,
		gateway:    gw,
	}
}

// --- cart ---

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	line := cart.Line{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		SizeID:      req.SizeID,
		SizeName:    req.SizeName,
		Weight:      req.Weight,
		DesignID:    req.DesignID,
		DesignName:  req.DesignName,
		Image:       req.Image,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
	}
	if err := h.cart.Add(r.Context(), line); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "cart_persist_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	var req RemoveLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if err := h.cart.Remove(r.Context(), req.ProductID, req.SizeID, req.DesignID); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_persist_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_persist_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) cartResponse() CartResponse {
	snap := h.cart.Summary()
	return CartResponse{
		Lines: snap.Lines,
		Total: snap.Total,
		Count: snap.Count,
	}
}

// --- session ---

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: h.session.IsAuthenticated(),
		DisplayName:   h.session.DisplayName(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Logout(r.Context()); err != nil {
		if errors.Is(err, checkout.ErrBusy) {
			writeError(w, http.StatusConflict, "busy", "another operation is in progress")
			return
		}
		slog.WarnContext(r.Context(), "logout: session clear failed", "error", err)
	}
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
}

// --- checkout ---

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.flow.View())
}

func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.runFlow(w, r, func() error {
		return h.flow.RequestCode(r.Context(), req.Phone)
	})
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.runFlow(w, r, func() error {
		return h.flow.VerifyCode(r.Context(), req.Code)
	})
}

// ResetCheckout re-derives the initial checkout state. The rendering layer
// calls it when the user enters checkout again, most importantly after a
// completed order.
func (h *Handler) ResetCheckout(w http.ResponseWriter, r *http.Request) {
	h.runFlow(w, r, func() error {
		return h.flow.Reset(r.Context())
	})
}

func (h *Handler) ChangeNumber(w http.ResponseWriter, r *http.Request) {
	h.runFlow(w, r, func() error {
		return h.flow.ChangeNumber(r.Context())
	})
}

func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.runFlow(w, r, func() error {
		return h.flow.SubmitOrder(r.Context(), validation.OrderDetails{
			Name: req.Name,
			Date: req.Date,
			Time: req.Time,
		})
	})
}

// runFlow executes a flow action and answers with the resulting view. A
// busy flow maps to 409 so the rendering layer can ignore double clicks.
func (h *Handler) runFlow(w http.ResponseWriter, r *http.Request, action func() error) {
	if err := action(); err != nil {
		if errors.Is(err, checkout.ErrBusy) {
			writeError(w, http.StatusConflict, "busy", "another operation is in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "checkout_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.flow.View())
}

// --- orders ---

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := h.views.LoadHistory(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "history_unavailable", err.Error())
		return
	}

	out := make([]OrderSummaryResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderSummaryResponse{
			OrderSummary:       o,
			StatusLabel:        history.StatusLabel(o.Status),
			PaymentStatusLabel: history.PaymentStatusLabel(o.PaymentStatus),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_id", "")
		return
	}

	order, err := h.views.LoadDetail(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "order_unavailable", err.Error())
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}

	writeJSON(w, http.StatusOK, OrderDetailResponse{
		Order:              *order,
		StatusLabel:        history.StatusLabel(order.Status),
		PaymentStatusLabel: history.PaymentStatusLabel(order.PaymentStatus),
	})
}

// --- payments ---

func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_id", "")
		return
	}

	initPoint, err := h.reconciler.InitiatePayment(r.Context(), orderID)
	if err != nil {
		// No redirect on failure: the rendering layer shows a retry
		// affordance instead.
		if errors.Is(err, gateway.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "session_required", "")
			return
		}
		writeError(w, http.StatusBadGateway, "payment_init_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, InitiatePaymentResponse{InitPoint: initPoint})
}

// PaymentReturn is the landing route for the provider redirect. The full
// request URL carries the order reference; the outcome is safe to recompute
// on reload.
func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	outcome := h.reconciler.ReconcileReturn(r.Context(), r.URL.String())
	writeJSON(w, http.StatusOK, PaymentReturnResponse{Outcome: string(outcome)})
}

// --- catalog passthrough ---

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Displays(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "catalog_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_product_id", "")
		return
	}

	detail, err := h.gateway.ProductDetail(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "product_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) BakeryInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.gateway.BakeryInfo(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "bakery_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
