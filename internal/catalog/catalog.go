package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lahorneada/storefront/internal/gateway"
)

// placeholderImage is shown until the backend serves product photography.
const placeholderImage = "https://images.unsplash.com/photo-1509440159596-0249088772ff?q=80&w=600&auto=format&fit=crop"

// ProductDisplay is the flattened card the rendering layer shows on the
// catalog grid.
type ProductDisplay struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Weight string `json:"weight"`
	Price  string `json:"price"`
	Image  string `json:"image"`
}

// Service projects the backend catalog into display cards.
type Service struct {
	gateway gateway.Gateway
}

func NewService(gw gateway.Gateway) *Service {
	return &Service{gateway: gw}
}

// Displays fetches the catalog and maps each product to its card: the
// lowest positive size price (or "Consultar" when no size has one) and the
// first size name as the weight display.
func (s *Service) Displays(ctx context.Context) ([]ProductDisplay, error) {
	products, err := s.gateway.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch: %w", err)
	}

	out := make([]ProductDisplay, 0, len(products))
	for _, p := range products {
		out = append(out, Display(p))
	}
	return out, nil
}

// Display maps a single catalog product.
func Display(p gateway.CatalogProduct) ProductDisplay {
	minPrice := 0.0
	for _, size := range p.AvailableSizes {
		// Prices arrive as numbers or strings; skip anything unparseable
		// or non-positive.
		price, err := strconv.ParseFloat(size.Price.String(), 64)
		if err != nil || price <= 0 {
			continue
		}
		if minPrice == 0 || price < minPrice {
			minPrice = price
		}
	}

	priceDisplay := "Consultar"
	if minPrice > 0 {
		priceDisplay = fmt.Sprintf("$%.2f", minPrice)
	}

	weight := "Tradicional"
	if len(p.AvailableSizes) > 0 {
		weight = p.AvailableSizes[0].Name
	}

	return ProductDisplay{
		ID:     p.ID,
		Name:   p.Name,
		Weight: weight,
		Price:  priceDisplay,
		Image:  placeholderImage,
	}
}
