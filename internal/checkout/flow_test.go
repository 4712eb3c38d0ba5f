package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lahorneada/storefront/internal/cart"
	"github.com/lahorneada/storefront/internal/checkout/journal"
	"github.com/lahorneada/storefront/internal/gateway"
	"github.com/lahorneada/storefront/internal/pkg/requestmeta"
	"github.com/lahorneada/storefront/internal/session"
	"github.com/lahorneada/storefront/internal/validation"
)

// --- fakes ---

type memSnapshots struct {
	data map[string][]byte
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: map[string][]byte{}}
}

func (m *memSnapshots) Load(ctx context.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memSnapshots) Save(ctx context.Context, key string, data []byte) error {
	m.data[key] = data
	return nil
}

func (m *memSnapshots) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type fakeGateway struct {
	gateway.Gateway

	sendOTPErr   error
	sendOTPGate  chan struct{} // when set, SendOTP blocks until closed
	sendOTPCalls int

	verifyResult *gateway.VerifyResult
	verifyErr    error

	createOrderErr  error
	createOrderReqs []gateway.CreateOrderRequest
}

func (f *fakeGateway) SendOTP(ctx context.Context, phone string) error {
	f.sendOTPCalls++
	if f.sendOTPGate != nil {
		<-f.sendOTPGate
	}
	return f.sendOTPErr
}

func (f *fakeGateway) VerifyOTP(ctx context.Context, phone, code string) (*gateway.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyResult != nil {
		return f.verifyResult, nil
	}
	return &gateway.VerifyResult{IsValid: false}, nil
}

func (f *fakeGateway) CreateOrder(ctx context.Context, token string, req gateway.CreateOrderRequest) error {
	f.createOrderReqs = append(f.createOrderReqs, req)
	return f.createOrderErr
}

type fakeHistory struct {
	orders []gateway.OrderSummary
	calls  int
}

func (f *fakeHistory) LoadHistory(ctx context.Context) ([]gateway.OrderSummary, error) {
	f.calls++
	return f.orders, nil
}

type memJournal struct {
	entries []journal.Entry
}

func (m *memJournal) Append(ctx context.Context, e *journal.Entry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memJournal) ListByFlow(ctx context.Context, flowID string) ([]journal.Entry, error) {
	return m.entries, nil
}

// --- harness ---

type harness struct {
	flow    *Flow
	gw      *fakeGateway
	cart    *cart.Store
	session *session.Store
	history *fakeHistory
	journal *memJournal
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, prep func(ctx context.Context, c *cart.Store, s *session.Store)) *harness {
	t.Helper()
	ctx := context.Background()

	cartStore := cart.NewStore(ctx, newMemSnapshots())
	sessionStore := session.NewStore(ctx, newMemSnapshots())
	if prep != nil {
		prep(ctx, cartStore, sessionStore)
	}

	gw := &fakeGateway{}
	hist := &fakeHistory{}
	jr := &memJournal{}

	flow := NewFlow(ctx, Deps{
		Gateway: gw,
		Cart:    cartStore,
		Session: sessionStore,
		History: hist,
		Journal: jr,
		NowFunc: func() time.Time { return testNow },
	})

	return &harness{flow: flow, gw: gw, cart: cartStore, session: sessionStore, history: hist, journal: jr}
}

func addTestLine(ctx context.Context, t *testing.T, c *cart.Store) {
	t.Helper()
	require.NoError(t, c.Add(ctx, cart.Line{ProductID: 5, SizeID: 2, UnitPrice: 3.50, Quantity: 6}))
}

func goodDetails() validation.OrderDetails {
	return validation.OrderDetails{Name: "María", Date: "2026-09-10"}
}

// --- initial state ---

func TestNewFlow_StartsAtPhoneInputWhenAnonymous(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, StatePhoneInput, h.flow.View().State)
}

func TestNewFlow_AuthenticatedWithCartStartsAtOrderDetails(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
		require.NoError(t, s.Establish(ctx, "tok", "María"))
	})

	v := h.flow.View()
	assert.Equal(t, StateOrderDetails, v.State)
	assert.Equal(t, "María", v.DeliveryName)
}

func TestNewFlow_AuthenticatedWithEmptyCartStartsAtHistoryView(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		require.NoError(t, s.Establish(ctx, "tok", "María"))
	})

	assert.Equal(t, StateHistoryView, h.flow.View().State)
	assert.Equal(t, 1, h.history.calls)
}

// --- phone input ---

func TestRequestCode_StripsNonDigitsAndAdvances(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.flow.RequestCode(context.Background(), "(555) 123-4567"))

	v := h.flow.View()
	assert.Equal(t, StateOtpVerification, v.State)
	assert.Equal(t, "5551234567", v.Phone)
	assert.Empty(t, v.ErrorMessage)
}

func TestRequestCode_RejectsShortNumberWithoutNetworkCall(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.flow.RequestCode(context.Background(), "12345"))

	v := h.flow.View()
	assert.Equal(t, StatePhoneInput, v.State)
	assert.NotEmpty(t, v.ErrorMessage)
	assert.Zero(t, h.gw.sendOTPCalls)
}

func TestRequestCode_IgnoredOnceAuthenticated(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
		require.NoError(t, s.Establish(ctx, "tok", "María"))
	})
	require.Equal(t, StateOrderDetails, h.flow.View().State)

	require.NoError(t, h.flow.RequestCode(context.Background(), "5551234567"))

	assert.Equal(t, StateOrderDetails, h.flow.View().State)
	assert.Zero(t, h.gw.sendOTPCalls)
	assert.True(t, h.session.IsAuthenticated())
}

func TestRequestCode_ResendFromOtpVerification(t *testing.T) {
	h := newHarness(t, nil)
	h.toOtp(t)

	require.NoError(t, h.flow.RequestCode(context.Background(), "5551234567"))

	assert.Equal(t, StateOtpVerification, h.flow.View().State)
	assert.Equal(t, 2, h.gw.sendOTPCalls)
}

func TestRequestCode_NetworkFailureStaysOnPhoneInput(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.sendOTPErr = errors.New("network down")

	require.NoError(t, h.flow.RequestCode(context.Background(), "5551234567"))

	v := h.flow.View()
	assert.Equal(t, StatePhoneInput, v.State)
	assert.NotEmpty(t, v.ErrorMessage)
}

// --- otp verification ---

func (h *harness) toOtp(t *testing.T) {
	t.Helper()
	require.NoError(t, h.flow.RequestCode(context.Background(), "5551234567"))
	require.Equal(t, StateOtpVerification, h.flow.View().State)
}

func TestVerifyCode_InvalidCodeLeavesCartAndSessionUntouched(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOtp(t)
	h.gw.verifyResult = &gateway.VerifyResult{IsValid: false}

	require.NoError(t, h.flow.VerifyCode(context.Background(), "654321"))

	v := h.flow.View()
	assert.Equal(t, StateOtpVerification, v.State)
	assert.Equal(t, "654321", v.Otp)
	assert.NotEmpty(t, v.ErrorMessage)
	assert.False(t, h.session.IsAuthenticated())
	assert.Equal(t, 1, h.cart.Count())
}

func TestVerifyCode_TooShortCodeIsLocalValidation(t *testing.T) {
	h := newHarness(t, nil)
	h.toOtp(t)

	require.NoError(t, h.flow.VerifyCode(context.Background(), "123"))

	v := h.flow.View()
	assert.Equal(t, StateOtpVerification, v.State)
	assert.NotEmpty(t, v.ErrorMessage)
}

func TestVerifyCode_SuccessWithCartGoesToOrderDetails(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOtp(t)
	h.gw.verifyResult = &gateway.VerifyResult{IsValid: true, Token: "tok-1", FullName: "María"}

	require.NoError(t, h.flow.VerifyCode(context.Background(), "123456"))

	v := h.flow.View()
	assert.Equal(t, StateOrderDetails, v.State)
	assert.Equal(t, "María", v.DeliveryName)
	assert.True(t, h.session.IsAuthenticated())
	assert.Equal(t, "tok-1", h.session.Token())
}

func TestVerifyCode_SuccessWithEmptyCartGoesToHistoryView(t *testing.T) {
	h := newHarness(t, nil)
	h.toOtp(t)
	h.gw.verifyResult = &gateway.VerifyResult{IsValid: true, Token: "tok-1"}

	require.NoError(t, h.flow.VerifyCode(context.Background(), "123456"))

	assert.Equal(t, StateHistoryView, h.flow.View().State)
	assert.Equal(t, 1, h.history.calls)
}

func TestChangeNumber_ReturnsToPhoneInput(t *testing.T) {
	h := newHarness(t, nil)
	h.toOtp(t)

	require.NoError(t, h.flow.ChangeNumber(context.Background()))

	v := h.flow.View()
	assert.Equal(t, StatePhoneInput, v.State)
	assert.Empty(t, v.ErrorMessage)
}

// --- order details / submission ---

func (h *harness) toOrderDetails(t *testing.T) {
	t.Helper()
	h.toOtp(t)
	h.gw.verifyResult = &gateway.VerifyResult{IsValid: true, Token: "tok-1", FullName: "María"}
	require.NoError(t, h.flow.VerifyCode(context.Background(), "123456"))
	require.Equal(t, StateOrderDetails, h.flow.View().State)
}

func TestSubmitOrder_SuccessClearsCartAndEntersSuccess(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)
	historyCallsBefore := h.history.calls

	require.NoError(t, h.flow.SubmitOrder(context.Background(), goodDetails()))

	v := h.flow.View()
	assert.Equal(t, StateSuccess, v.State)
	assert.True(t, h.cart.IsEmpty())
	assert.Greater(t, h.history.calls, historyCallsBefore)

	require.Len(t, h.gw.createOrderReqs, 1)
	req := h.gw.createOrderReqs[0]
	assert.Equal(t, "María", req.CustomerName)
	assert.Equal(t, "5551234567", req.CustomerPhone)
	assert.Equal(t, "2026-09-10T10:00:00Z", req.DeliveryDate)
	require.Len(t, req.Items, 1)
	assert.Equal(t, int64(5), req.Items[0].ProductID)
	assert.Equal(t, 6, req.Items[0].Quantity)
}

func TestSubmitOrder_FailurePreservesCart(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)
	h.gw.createOrderErr = errors.New("backend exploded")
	linesBefore := h.cart.Lines()

	require.NoError(t, h.flow.SubmitOrder(context.Background(), goodDetails()))

	v := h.flow.View()
	assert.Equal(t, StateOrderDetails, v.State)
	assert.NotEmpty(t, v.ErrorMessage)
	assert.Equal(t, linesBefore, h.cart.Lines())
}

func TestSubmitOrder_RejectsShortLeadTime(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)

	// Tomorrow: inside the two-day lead window.
	d := goodDetails()
	d.Date = "2026-09-02"
	require.NoError(t, h.flow.SubmitOrder(context.Background(), d))

	v := h.flow.View()
	assert.Equal(t, StateOrderDetails, v.State)
	assert.NotEmpty(t, v.ErrorMessage)
	assert.Empty(t, h.gw.createOrderReqs)
	assert.Equal(t, 1, h.cart.Count())
}

func TestSubmitOrder_AcceptsExactMinimumLeadTime(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)

	d := goodDetails()
	d.Date = "2026-09-03"
	require.NoError(t, h.flow.SubmitOrder(context.Background(), d))

	assert.Equal(t, StateSuccess, h.flow.View().State)
}

func TestSubmitOrder_RejectsMissingName(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)

	d := goodDetails()
	d.Name = ""
	require.NoError(t, h.flow.SubmitOrder(context.Background(), d))

	assert.Equal(t, StateOrderDetails, h.flow.View().State)
	assert.Empty(t, h.gw.createOrderReqs)
}

func TestSubmitOrder_UsesSelectedSlot(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)

	d := goodDetails()
	d.Time = "17:30"
	require.NoError(t, h.flow.SubmitOrder(context.Background(), d))

	require.Len(t, h.gw.createOrderReqs, 1)
	assert.Equal(t, "2026-09-10T17:30:00Z", h.gw.createOrderReqs[0].DeliveryDate)
}

func TestSubmitOrder_RejectsOffSlotTime(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)

	d := goodDetails()
	d.Time = "21:15"
	require.NoError(t, h.flow.SubmitOrder(context.Background(), d))

	assert.Equal(t, StateOrderDetails, h.flow.View().State)
	assert.Empty(t, h.gw.createOrderReqs)
}

// --- reset ---

func TestReset_AfterSuccessAllowsSecondOrder(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		addTestLine(ctx, t, c)
	})
	h.toOrderDetails(t)

	require.NoError(t, h.flow.SubmitOrder(context.Background(), goodDetails()))
	require.Equal(t, StateSuccess, h.flow.View().State)
	require.Len(t, h.gw.createOrderReqs, 1)

	// The customer shops again and comes back to checkout.
	addTestLine(context.Background(), t, h.cart)

	// Until the flow is re-entered, Success stays terminal.
	require.NoError(t, h.flow.SubmitOrder(context.Background(), goodDetails()))
	assert.Equal(t, StateSuccess, h.flow.View().State)
	require.Len(t, h.gw.createOrderReqs, 1)

	require.NoError(t, h.flow.Reset(context.Background()))
	assert.Equal(t, StateOrderDetails, h.flow.View().State)

	require.NoError(t, h.flow.SubmitOrder(context.Background(), goodDetails()))
	assert.Equal(t, StateSuccess, h.flow.View().State)
	assert.Len(t, h.gw.createOrderReqs, 2)
}

func TestReset_AnonymousReturnsToPhoneInput(t *testing.T) {
	h := newHarness(t, nil)
	h.toOtp(t)

	require.NoError(t, h.flow.Reset(context.Background()))

	v := h.flow.View()
	assert.Equal(t, StatePhoneInput, v.State)
	assert.Empty(t, v.Phone)
	assert.Empty(t, v.Otp)
	assert.Empty(t, v.ErrorMessage)
}

func TestReset_AuthenticatedEmptyCartLandsOnHistory(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		require.NoError(t, s.Establish(ctx, "tok", "María"))
	})
	historyCallsBefore := h.history.calls

	require.NoError(t, h.flow.Reset(context.Background()))

	v := h.flow.View()
	assert.Equal(t, StateHistoryView, v.State)
	assert.Equal(t, "María", v.DeliveryName)
	assert.Greater(t, h.history.calls, historyCallsBefore)
}

// --- busy guard ---

func TestBusyFlowRejectsReentrantCall(t *testing.T) {
	h := newHarness(t, nil)
	gate := make(chan struct{})
	h.gw.sendOTPGate = gate

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.flow.RequestCode(context.Background(), "5551234567")
	}()

	// Wait for the first call to claim the in-flight slot.
	require.Eventually(t, func() bool {
		return h.flow.View().Busy
	}, time.Second, time.Millisecond)

	err := h.flow.RequestCode(context.Background(), "5551234567")
	assert.ErrorIs(t, err, ErrBusy)

	close(gate)
	<-done
	assert.False(t, h.flow.View().Busy)
}

// --- logout ---

func TestLogout_ClearsSessionAndDerivedFields(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, c *cart.Store, s *session.Store) {
		require.NoError(t, s.Establish(ctx, "tok", "María"))
	})
	require.Equal(t, StateHistoryView, h.flow.View().State)

	require.NoError(t, h.flow.Logout(context.Background()))

	v := h.flow.View()
	assert.Equal(t, StatePhoneInput, v.State)
	assert.Empty(t, v.DeliveryName)
	assert.Empty(t, v.History)
	assert.False(t, h.session.IsAuthenticated())
	assert.Empty(t, h.session.Token())
	assert.Empty(t, h.session.DisplayName())
}

// --- journal ---

func TestFlowAppendsJournalEntries(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.flow.RequestCode(context.Background(), "5551234567"))

	require.GreaterOrEqual(t, len(h.journal.entries), 2)
	assert.Equal(t, journal.EventEnter, h.journal.entries[0].Event)
	last := h.journal.entries[len(h.journal.entries)-1]
	assert.Equal(t, journal.EventRequestCode, last.Event)
	assert.Equal(t, "******4567", last.Detail)
}

func TestJournalEntriesCarryRequestID(t *testing.T) {
	h := newHarness(t, nil)
	ctx := requestmeta.WithRequestID(context.Background(), "req-42")

	require.NoError(t, h.flow.RequestCode(ctx, "5551234567"))

	last := h.journal.entries[len(h.journal.entries)-1]
	assert.Equal(t, "req-42", last.RequestID)
}
