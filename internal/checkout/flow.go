package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lahorneada/storefront/internal/cart"
	"github.com/lahorneada/storefront/internal/checkout/journal"
	"github.com/lahorneada/storefront/internal/gateway"
	"github.com/lahorneada/storefront/internal/pkg/requestmeta"
	"github.com/lahorneada/storefront/internal/session"
	"github.com/lahorneada/storefront/internal/validation"
)

// State is the discriminated checkout state. Exactly one is active; errors
// annotate a state instead of replacing it.
type State string

const (
	StatePhoneInput      State = "PHONE_INPUT"
	StateOtpVerification State = "OTP_VERIFICATION"
	StateOrderDetails    State = "ORDER_DETAILS"
	StateSubmitting      State = "SUBMITTING"
	StateSuccess         State = "SUCCESS"
	StateHistoryView     State = "HISTORY_VIEW"
)

// ErrBusy is returned when a mutating call arrives while another is still in
// flight. At most one in-flight mutating request per flow instance.
var ErrBusy = errors.New("checkout: operation already in progress")

const phoneDigits = 10

// HistoryLoader fetches the caller's order history. Satisfied by
// history.Views.
type HistoryLoader interface {
	LoadHistory(ctx context.Context) ([]gateway.OrderSummary, error)
}

// Deps groups the collaborators of a checkout flow.
type Deps struct {
	Gateway  gateway.Gateway
	Cart     *cart.Store
	Session  *session.Store
	History  HistoryLoader
	Journal  journal.Repository // nil-safe: auditing skipped if nil
	Validate *validatorv10.Validate

	// NowFunc supplies "today" for the lead-time check. Defaults to time.Now.
	NowFunc func() time.Time

	// OTPMinLength is the minimum accepted code length. Defaults to 6; the
	// demo deployment runs with 4.
	OTPMinLength int

	// CollectDeliveryTime enables the half-hour slot field. When false the
	// composed delivery instant defaults to 10:00 UTC.
	CollectDeliveryTime bool
}

// View is the read-only projection of the flow handed to the rendering
// layer.
type View struct {
	State        State                  `json:"state"`
	Phone        string                 `json:"phone,omitempty"`
	Otp          string                 `json:"otp,omitempty"`
	DeliveryName string                 `json:"deliveryName,omitempty"`
	DeliveryDate string                 `json:"deliveryDate,omitempty"`
	DeliveryTime string                 `json:"deliveryTime,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Busy         bool                   `json:"busy"`
	History      []gateway.OrderSummary `json:"history,omitempty"`
}

// Flow sequences phone verification, order detail capture, submission and
// outcome display. All remote failures are converted to a state-local
// message; no transition is taken on a failed call.
type Flow struct {
	id   string
	deps Deps

	mu           sync.Mutex
	state        State
	phone        string
	otp          string
	deliveryName string
	deliveryDate string
	deliveryTime string
	errorMessage string
	busy         bool
	history      []gateway.OrderSummary
}

// NewFlow derives the initial state: an existing session skips phone
// verification entirely and lands on OrderDetails, or HistoryView when the
// cart is empty.
func NewFlow(ctx context.Context, deps Deps) *Flow {
	if deps.NowFunc == nil {
		deps.NowFunc = time.Now
	}
	if deps.OTPMinLength <= 0 {
		deps.OTPMinLength = 6
	}
	if deps.Validate == nil {
		deps.Validate = validation.New(deps.NowFunc)
	}

	f := &Flow{
		id:    uuid.NewString(),
		deps:  deps,
		state: StatePhoneInput,
	}

	if deps.Session.IsAuthenticated() {
		f.deliveryName = deps.Session.DisplayName()
		if deps.Cart.IsEmpty() {
			f.state = StateHistoryView
			f.refreshHistory(ctx)
		} else {
			f.state = StateOrderDetails
		}
	}

	f.append(ctx, journal.EventEnter, "", "")
	return f
}

// ID identifies this flow instance in the journal.
func (f *Flow) ID() string { return f.id }

// View returns the current projection.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	hist := make([]gateway.OrderSummary, len(f.history))
	copy(hist, f.history)

	return View{
		State:        f.state,
		Phone:        f.phone,
		Otp:          f.otp,
		DeliveryName: f.deliveryName,
		DeliveryDate: f.deliveryDate,
		DeliveryTime: f.deliveryTime,
		ErrorMessage: f.errorMessage,
		Busy:         f.busy,
		History:      hist,
	}
}

// RequestCode validates the phone number and asks the backend to dispatch a
// one-time code. On success the flow advances to OtpVerification; any
// failure keeps it on PhoneInput with a message.
func (f *Flow) RequestCode(ctx context.Context, rawPhone string) error {
	if err := f.begin(); err != nil {
		return err
	}

	// Only phone entry and a resend from the code screen may dispatch a
	// code; an authenticated flow never drops back into verification.
	if st := f.currentState(); st != StatePhoneInput && st != StateOtpVerification {
		f.finish(nil)
		return nil
	}

	phone := stripDigits(rawPhone)
	if len(phone) != phoneDigits {
		msg := "Número inválido (10 dígitos)"
		f.finish(func() { f.errorMessage = msg })
		f.append(ctx, journal.EventRequestCode, maskPhone(phone), msg)
		return nil
	}

	var msg string
	if err := f.deps.Gateway.SendOTP(ctx, phone); err != nil {
		msg = "Error al enviar código."
	}

	f.finish(func() {
		if msg != "" {
			f.errorMessage = msg
			return
		}
		f.phone = phone
		f.otp = ""
		f.errorMessage = ""
		f.state = StateOtpVerification
	})
	f.append(ctx, journal.EventRequestCode, maskPhone(phone), msg)
	return nil
}

// VerifyCode checks the one-time code. A valid code establishes the session
// and branches on cart emptiness: OrderDetails when there is something to
// order, HistoryView otherwise. An invalid code keeps the entered value so
// the user can correct it; retries are unbounded.
func (f *Flow) VerifyCode(ctx context.Context, code string) error {
	if err := f.begin(); err != nil {
		return err
	}

	if f.currentState() != StateOtpVerification {
		f.finish(nil)
		return nil
	}

	code = strings.TrimSpace(code)
	if !allDigits(code) || len(code) < f.deps.OTPMinLength {
		msg := "Código inválido."
		f.finish(func() {
			f.otp = code
			f.errorMessage = msg
		})
		f.append(ctx, journal.EventVerifyCode, "", msg)
		return nil
	}

	res, err := f.deps.Gateway.VerifyOTP(ctx, f.currentPhone(), code)
	if err != nil {
		msg := "Error al verificar código."
		f.finish(func() {
			f.otp = code
			f.errorMessage = msg
		})
		f.append(ctx, journal.EventVerifyCode, "", msg)
		return nil
	}
	if !res.IsValid {
		msg := "Código incorrecto."
		f.finish(func() {
			f.otp = code
			f.errorMessage = msg
		})
		f.append(ctx, journal.EventVerifyCode, "", msg)
		return nil
	}

	// The backend may omit the full name for first-time customers; keep any
	// name we already knew.
	name := res.FullName
	if name == "" {
		name = f.deps.Session.DisplayName()
	}
	if err := f.deps.Session.Establish(ctx, res.Token, name); err != nil {
		msg := "Error al guardar la sesión."
		f.finish(func() { f.errorMessage = msg })
		f.append(ctx, journal.EventVerifyCode, "", msg)
		return nil
	}

	empty := f.deps.Cart.IsEmpty()

	f.finish(func() {
		f.otp = ""
		f.errorMessage = ""
		if f.deliveryName == "" {
			f.deliveryName = name
		}
		if empty {
			f.state = StateHistoryView
		} else {
			f.state = StateOrderDetails
		}
	})
	if empty {
		f.refreshHistory(ctx)
	}
	f.append(ctx, journal.EventVerifyCode, "", "")
	return nil
}

// ChangeNumber backs out of OTP verification, discarding the entered code
// and any error.
func (f *Flow) ChangeNumber(ctx context.Context) error {
	if err := f.begin(); err != nil {
		return err
	}

	f.finish(func() {
		if f.state != StateOtpVerification {
			return
		}
		f.otp = ""
		f.errorMessage = ""
		f.state = StatePhoneInput
	})
	f.append(ctx, journal.EventChangeNumber, "", "")
	return nil
}

// SubmitOrder re-validates the delivery details, creates the order from the
// cart lines and, on success, clears the cart, enters Success and refreshes
// the history. A failed submission leaves the cart exactly as it was.
func (f *Flow) SubmitOrder(ctx context.Context, details validation.OrderDetails) error {
	if err := f.begin(); err != nil {
		return err
	}

	if f.currentState() != StateOrderDetails {
		f.finish(nil)
		return nil
	}

	f.mu.Lock()
	f.deliveryName = details.Name
	f.deliveryDate = details.Date
	f.deliveryTime = details.Time
	phone := f.phone
	f.mu.Unlock()

	if msg := f.validateDetails(details); msg != "" {
		f.finish(func() { f.errorMessage = msg })
		f.append(ctx, journal.EventSubmitOrder, "", msg)
		return nil
	}

	f.mu.Lock()
	f.state = StateSubmitting
	f.mu.Unlock()

	req := gateway.CreateOrderRequest{
		CustomerName:  details.Name,
		CustomerPhone: phone,
		DeliveryDate:  composeDeliveryInstant(details.Date, details.Time),
		Items:         orderItems(f.deps.Cart.Lines()),
	}

	if err := f.deps.Gateway.CreateOrder(ctx, f.deps.Session.Token(), req); err != nil {
		msg := "Error al enviar pedido."
		f.finish(func() {
			f.state = StateOrderDetails
			f.errorMessage = msg
		})
		f.append(ctx, journal.EventSubmitOrder, req.DeliveryDate, msg)
		return nil
	}

	if err := f.deps.Cart.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "checkout: clearing cart after submission failed", "error", err)
	}

	f.finish(func() {
		f.state = StateSuccess
		f.errorMessage = ""
	})
	f.refreshHistory(ctx)
	f.append(ctx, journal.EventSubmitOrder, req.DeliveryDate, "")
	return nil
}

// Logout clears the session and resets the flow, including the delivery
// name derived from the display name.
func (f *Flow) Logout(ctx context.Context) error {
	if err := f.begin(); err != nil {
		return err
	}

	err := f.deps.Session.Clear(ctx)

	f.finish(func() {
		f.state = StatePhoneInput
		f.phone = ""
		f.otp = ""
		f.deliveryName = ""
		f.errorMessage = ""
		f.history = nil
	})
	f.append(ctx, journal.EventLogout, "", "")
	return err
}

// Reset re-derives the initial state for a fresh checkout visit, exactly as
// NewFlow does: an established session lands on OrderDetails, or HistoryView
// when the cart is empty; anonymous starts over at PhoneInput. Session and
// cart are left intact — this is how a customer places a second order after
// Success.
func (f *Flow) Reset(ctx context.Context) error {
	if err := f.begin(); err != nil {
		return err
	}

	authenticated := f.deps.Session.IsAuthenticated()
	name := f.deps.Session.DisplayName()
	empty := f.deps.Cart.IsEmpty()

	f.finish(func() {
		f.phone = ""
		f.otp = ""
		f.deliveryDate = ""
		f.deliveryTime = ""
		f.errorMessage = ""
		if !authenticated {
			f.state = StatePhoneInput
			f.deliveryName = ""
			return
		}
		f.deliveryName = name
		if empty {
			f.state = StateHistoryView
		} else {
			f.state = StateOrderDetails
		}
	})
	if authenticated && empty {
		f.refreshHistory(ctx)
	}
	f.append(ctx, journal.EventEnter, "", "")
	return nil
}

// RefreshHistory reloads the order history projection on demand.
func (f *Flow) RefreshHistory(ctx context.Context) {
	f.refreshHistory(ctx)
}

// --- internals ---

func (f *Flow) currentState() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) currentPhone() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phone
}

// begin claims the single in-flight slot.
func (f *Flow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	f.busy = true
	return nil
}

// finish releases the in-flight slot and applies the state mutation.
func (f *Flow) finish(apply func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if apply != nil {
		apply()
	}
}

func (f *Flow) validateDetails(details validation.OrderDetails) string {
	if f.deps.CollectDeliveryTime && details.Time == "" {
		return "Selecciona un horario de entrega."
	}

	err := f.deps.Validate.Struct(details)
	if err == nil {
		return ""
	}

	var verrs validatorv10.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				return "Completa nombre y fecha."
			case "delivery_lead":
				return "La fecha de entrega requiere 2 días de anticipación."
			case "delivery_slot":
				return "Horario inválido (medias horas entre 08:00 y 20:00)."
			}
		}
	}
	return "Datos de entrega inválidos."
}

func (f *Flow) refreshHistory(ctx context.Context) {
	if f.deps.History == nil {
		return
	}
	orders, err := f.deps.History.LoadHistory(ctx)
	if err != nil {
		slog.WarnContext(ctx, "checkout: history refresh failed", "error", err)
		return
	}
	f.mu.Lock()
	f.history = orders
	f.mu.Unlock()
}

// append writes a journal entry, nil-safe. Journal failures are logged and
// never surfaced: auditing must not break checkout.
func (f *Flow) append(ctx context.Context, event journal.Event, detail, errMsg string) {
	if f.deps.Journal == nil {
		return
	}

	f.mu.Lock()
	state := string(f.state)
	f.mu.Unlock()

	entry := &journal.Entry{
		FlowID:    f.id,
		Event:     event,
		State:     state,
		Detail:    detail,
		Error:     errMsg,
		RequestID: requestmeta.RequestID(ctx),
		CreatedAt: f.deps.NowFunc(),
	}
	if err := f.deps.Journal.Append(ctx, entry); err != nil {
		slog.WarnContext(ctx, "checkout: journal append failed", "event", string(event), "error", err)
	}
}

func composeDeliveryInstant(date, slot string) string {
	if slot == "" {
		slot = "10:00"
	}
	return date + "T" + slot + ":00Z"
}

func orderItems(lines []cart.Line) []gateway.OrderItemPayload {
	items := make([]gateway.OrderItemPayload, 0, len(lines))
	for _, l := range lines {
		item := gateway.OrderItemPayload{
			ProductID: l.ProductID,
			SizeID:    l.SizeID,
			Quantity:  l.Quantity,
		}
		if l.DesignID != 0 {
			designID := l.DesignID
			item.DesignID = &designID
		}
		items = append(items, item)
	}
	return items
}

func stripDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// maskPhone keeps the last four digits for the journal.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
