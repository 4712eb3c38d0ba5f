package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lahorneada/storefront/internal/gateway"
)

type fakeGateway struct {
	gateway.Gateway

	products []gateway.CatalogProduct
	err      error
}

func (f *fakeGateway) Catalog(ctx context.Context) ([]gateway.CatalogProduct, error) {
	return f.products, f.err
}

func product(sizes ...gateway.ProductSize) gateway.CatalogProduct {
	return gateway.CatalogProduct{ID: 1, Name: "Concha", AvailableSizes: sizes}
}

func size(name, price string) gateway.ProductSize {
	return gateway.ProductSize{Name: name, Price: json.Number(price)}
}

func TestDisplay_PicksLowestPositivePrice(t *testing.T) {
	d := Display(product(
		size("Chica", "5.00"),
		size("Mediana", "3.50"),
		size("Grande", "7"),
	))

	assert.Equal(t, "$3.50", d.Price)
	assert.Equal(t, "Chica", d.Weight)
}

func TestDisplay_StringPricesAreParsed(t *testing.T) {
	d := Display(product(size("Mediana", "3.50")))
	assert.Equal(t, "$3.50", d.Price)
}

func TestDisplay_NoParseablePriceShowsConsultar(t *testing.T) {
	d := Display(product(size("Mediana", "0"), size("Grande", "por pedido")))
	assert.Equal(t, "Consultar", d.Price)
}

func TestDisplay_NoSizesShowsDefaults(t *testing.T) {
	d := Display(product())
	assert.Equal(t, "Consultar", d.Price)
	assert.Equal(t, "Tradicional", d.Weight)
}

func TestDisplays_MapsEveryProduct(t *testing.T) {
	gw := &fakeGateway{products: []gateway.CatalogProduct{
		product(size("Mediana", "3.50")),
		{ID: 2, Name: "Bolillo"},
	}}
	s := NewService(gw)

	displays, err := s.Displays(context.Background())

	require.NoError(t, err)
	require.Len(t, displays, 2)
	assert.Equal(t, "$3.50", displays[0].Price)
	assert.Equal(t, "Consultar", displays[1].Price)
	assert.NotEmpty(t, displays[0].Image)
}

func TestDisplays_FetchFailurePropagates(t *testing.T) {
	s := NewService(&fakeGateway{err: errors.New("backend down")})

	_, err := s.Displays(context.Background())

	assert.Error(t, err)
}
