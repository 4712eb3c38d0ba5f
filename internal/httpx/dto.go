package httpx

import (
	"github.com/lahorneada/storefront/internal/cart"
	"github.com/lahorneada/storefront/internal/gateway"
)

type AddLineRequest struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	SizeID      int64   `json:"sizeId"`
	SizeName    string  `json:"sizeName"`
	Weight      string  `json:"weight,omitempty"`
	DesignID    int64   `json:"designId,omitempty"`
	DesignName  string  `json:"designName,omitempty"`
	Image       string  `json:"image,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
}

type RemoveLineRequest struct {
	ProductID int64 `json:"productId"`
	SizeID    int64 `json:"sizeId"`
	DesignID  int64 `json:"designId,omitempty"`
}

type CartResponse struct {
	Lines []cart.Line `json:"lines"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"displayName,omitempty"`
}

type RequestCodeRequest struct {
	Phone string `json:"phone"`
}

type VerifyCodeRequest struct {
	Code string `json:"code"`
}

type SubmitOrderRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

// OrderSummaryResponse decorates the backend summary with the display
// labels the rendering layer shows.
type OrderSummaryResponse struct {
	gateway.OrderSummary
	StatusLabel        string `json:"statusLabel"`
	PaymentStatusLabel string `json:"paymentStatusLabel,omitempty"`
}

type OrderDetailResponse struct {
	gateway.Order
	StatusLabel        string `json:"statusLabel"`
	PaymentStatusLabel string `json:"paymentStatusLabel,omitempty"`
}

type InitiatePaymentResponse struct {
	InitPoint string `json:"initPoint"`
}

type PaymentReturnResponse struct {
	Outcome string `json:"outcome"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
