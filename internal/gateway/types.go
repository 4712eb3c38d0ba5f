package gateway

import "encoding/json"

// Order status values owned by the backend. The client only displays them;
// status and payment status are independent axes.
const (
	OrderPendingReview  = "PendingReview"
	OrderAccepted       = "Accepted"
	OrderRejected       = "Rejected"
	OrderPreparation    = "Preparation"
	OrderReadyForPickup = "ReadyForPickup"
	OrderCompleted      = "Completed"
	OrderCancelled      = "Cancelled"
)

const (
	PaymentPending   = "Pending"
	PaymentInProcess = "InProcess"
	PaymentApproved  = "Approved"
	PaymentRejected  = "Rejected"
	PaymentRefunded  = "Refunded"
	PaymentCancelled = "Cancelled"
)

// --- Bakery profile ---

type SocialNetwork struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	IconCode string `json:"iconCode"`
}

type BakeryInfo struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Slogan         string          `json:"slogan"`
	Logo           string          `json:"logo"`
	Address        string          `json:"address"`
	PhoneNumber    string          `json:"phoneNumber"`
	WhatsAppNumber string          `json:"whatsAppNumber"`
	Email          string          `json:"email"`
	OpeningHours   string          `json:"openingHours"`
	SocialNetworks []SocialNetwork `json:"socialNetworks"`
}

// --- Catalog ---

// ProductSize carries the price as json.Number because the backend has been
// observed returning it both as a number and as a string.
type ProductSize struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

type CatalogProduct struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	AvailableSizes []ProductSize `json:"availableSizes"`
}

type DesignVariant struct {
	VariantID         int64  `json:"variantId"`
	DesignID          int64  `json:"designId"`
	DesignName        string `json:"designName"`
	DesignDescription string `json:"designDescription"`
}

type SizeDetail struct {
	SizeID           int64           `json:"sizeId"`
	SizeName         string          `json:"sizeName"`
	Price            float64         `json:"price"`
	WeightInGrams    float64         `json:"weightInGrams"`
	AvailableDesigns []DesignVariant `json:"availableDesigns"`
}

type ProductDetail struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Sizes       []SizeDetail `json:"sizes"`
}

// --- Auth ---

type VerifyResult struct {
	IsValid  bool   `json:"isValid"`
	Token    string `json:"token,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// --- Orders ---

// OrderItemPayload is one line of the order creation payload. The client
// never sends a price: the server recomputes authoritative pricing.
type OrderItemPayload struct {
	ProductID int64  `json:"productId"`
	SizeID    int64  `json:"sizeId"`
	DesignID  *int64 `json:"designId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName  string             `json:"customerName"`
	CustomerPhone string             `json:"customerPhone,omitempty"`
	DeliveryDate  string             `json:"deliveryDate"` // ISO-8601 instant
	Notes         string             `json:"notes,omitempty"`
	Items         []OrderItemPayload `json:"items"`
}

type OrderSummary struct {
	ID            int64   `json:"id"`
	OrderNumber   string  `json:"orderNumber,omitempty"`
	OrderDate     string  `json:"orderDate"`
	DeliveryDate  string  `json:"deliveryDate,omitempty"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"paymentStatus,omitempty"`
	TotalAmount   float64 `json:"totalAmount"`
	ItemsCount    int     `json:"itemsCount"`
}

type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	SizeName    string  `json:"sizeName,omitempty"`
	DesignName  string  `json:"designName,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type Order struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"orderNumber,omitempty"`
	OrderDate     string      `json:"orderDate"`
	DeliveryDate  string      `json:"deliveryDate,omitempty"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus,omitempty"`
	TotalAmount   float64     `json:"totalAmount"`
	Items         []OrderItem `json:"items"`
}

// --- Payments ---

type PaymentInit struct {
	InitPoint string `json:"initPoint"`
}

type PaymentSync struct {
	PaymentStatus string `json:"paymentStatus"`
	Status        string `json:"status,omitempty"`
}
