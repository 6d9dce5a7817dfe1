package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Weight      string
	Price       decimal.Decimal
	Currency    currency.Unit
	Features    []string
	Badge       string
	Rating      float64
}

// FormatPrice renders an amount in the product's currency, e.g. "INR 240.00".
func (p Product) FormatPrice(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", p.Currency, amount.StringFixed(2))
}

// NewDraft opens a draft for this product.
func (p Product) NewDraft() OrderDraft {
	return NewOrderDraft(p.Name, p.Price)
}

// Catalog is the fixed list of products the storefront sells.
type Catalog struct {
	products []Product
}

func NewCatalog(products ...Product) Catalog {
	return Catalog{products: products}
}

func DefaultCatalog(unit currency.Unit) Catalog {
	return NewCatalog(Product{
		ID:          "idli-dosa-batter",
		Name:        "Premium Idli/Dosa Batter",
		Description: "Soft, fluffy idlis/Dosa every time with our traditional fermented batter made from premium urad dal and rice.",
		Weight:      "1kg",
		Price:       decimal.NewFromInt(120),
		Currency:    unit,
		Features:    []string{"Naturally Fermented", "No Preservatives", "Ready to Cook"},
		Badge:       "Bestseller",
		Rating:      4.9,
	})
}

func (c Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c Catalog) Product(id string) (Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}
