package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lahorneada/storefront/internal/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", handler.GetCart)
		r.Post("/cart/items", handler.AddCartLine)
		r.Delete("/cart/items", handler.RemoveCartLine)
		r.Delete("/cart", handler.ClearCart)

		r.Get("/session", handler.GetSession)
		r.Post("/session/logout", handler.Logout)

		r.Get("/checkout", handler.GetCheckout)
		r.Post("/checkout/reset", handler.ResetCheckout)
		r.Post("/checkout/request-code", handler.RequestCode)
		r.Post("/checkout/verify-code", handler.VerifyCode)
		r.Post("/checkout/change-number", handler.ChangeNumber)
		r.Post("/checkout/submit", handler.SubmitOrder)

		r.Get("/orders/history", handler.OrderHistory)
		r.Get("/orders/{id}", handler.OrderDetail)
		r.Post("/orders/{id}/pay", handler.InitiatePayment)

		r.Get("/catalog", handler.Catalog)
		r.Get("/products/{id}", handler.ProductDetail)
		r.Get("/bakery", handler.BakeryInfo)
	})

	// Landing route for the external payment provider redirect.
	r.Get("/payments/return", handler.PaymentReturn)

	return r
}
