package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Ensure the HTTP client implements the port at compile time.
var _ Gateway = (*HTTPGateway)(nil)

// HTTPGateway talks to the backend over HTTPS/JSON. It holds no session
// state; bearer tokens are passed per call.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{baseURL: baseURL, client: client}
}

func (g *HTTPGateway) BakeryInfo(ctx context.Context) (*BakeryInfo, error) {
	var out BakeryInfo
	if err := g.getJSON(ctx, "/api/v1/bakery/info", "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) Catalog(ctx context.Context) ([]CatalogProduct, error) {
	var out []CatalogProduct
	if err := g.getJSON(ctx, "/api/v1/products/catalog", "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) ProductDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	var out ProductDetail
	if err := g.getJSON(ctx, fmt.Sprintf("/api/v1/products/%d/detail", id), "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) SendOTP(ctx context.Context, phone string) error {
	body := map[string]string{"phone": phone}
	return g.postJSON(ctx, "/api/v1/auth/send-otp", "", body, nil)
}

func (g *HTTPGateway) VerifyOTP(ctx context.Context, phone, code string) (*VerifyResult, error) {
	body := map[string]string{"phone": phone, "code": code}
	var out VerifyResult
	if err := g.postJSON(ctx, "/api/v1/auth/verify-otp", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) error {
	return g.postJSON(ctx, "/api/v1/orders", token, req, nil)
}

func (g *HTTPGateway) OrderHistory(ctx context.Context, token string) ([]OrderSummary, error) {
	var out []OrderSummary
	if err := g.getJSON(ctx, "/api/v1/orders/history", token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) OrderDetail(ctx context.Context, token string, id int64) (*Order, error) {
	var out Order
	if err := g.getJSON(ctx, fmt.Sprintf("/api/v1/orders/%d", id), token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) InitiatePayment(ctx context.Context, token string, orderID int64) (string, error) {
	var out PaymentInit
	if err := g.postJSON(ctx, fmt.Sprintf("/api/v1/orders/%d/pay", orderID), token, nil, &out); err != nil {
		return "", err
	}
	return out.InitPoint, nil
}

func (g *HTTPGateway) SyncPaymentByReference(ctx context.Context, token, reference string) (*PaymentSync, error) {
	var out PaymentSync
	if err := g.postJSON(ctx, "/api/v1/payments/sync-by-number/"+reference, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("gateway: build request %s: %w", path, err)
	}
	return g.do(req, path, token, out)
}

func (g *HTTPGateway) postJSON(ctx context.Context, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: marshal request %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway: build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if path == "/api/v1/orders" {
		// Order creation is the one mutating call worth protecting against
		// double submission on flaky networks.
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	return g.do(req, path, token, out)
}

func (g *HTTPGateway) do(req *http.Request, path, token string, out any) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", path, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("gateway: %s: %w", path, ErrUnauthorized)
	case res.StatusCode < 200 || res.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("gateway: %s: unexpected status %d: %s", path, res.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode response %s: %w", path, err)
	}
	return nil
}
