package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"-"`
	UserID    string    `json:"user"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	DiscountPrice  *decimal.Decimal  `json:"discountPrice,omitempty"`
	CategoryID     string            `json:"category"`
	SellerID       string            `json:"seller"`
	Stock          int               `json:"stock"`
	Images         []string          `json:"images"`
	Brand          *string           `json:"brand,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Ratings        Ratings           `json:"ratings"`
	Reviews        []Review          `json:"reviews"`
	IsActive       bool              `json:"isActive"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// UnitPrice is the price a buyer pays for one unit right now.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// PrimaryImage returns the first image, or "" when the product has none.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type NewProductInput struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	DiscountPrice  *decimal.Decimal  `json:"discountPrice,omitempty"`
	CategoryID     string            `json:"category"`
	Stock          int               `json:"stock"`
	Images         []string          `json:"images"`
	Brand          *string           `json:"brand,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

type UpdateProductInput struct {
	Name           *string           `json:"name,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Price          *decimal.Decimal  `json:"price,omitempty"`
	DiscountPrice  *decimal.Decimal  `json:"discountPrice,omitempty"`
	CategoryID     *string           `json:"category,omitempty"`
	Stock          *int              `json:"stock,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Brand          *string           `json:"brand,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	IsActive       *bool             `json:"isActive,omitempty"`
}

func (in UpdateProductInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.Price == nil &&
		in.DiscountPrice == nil && in.CategoryID == nil && in.Stock == nil &&
		in.Images == nil && in.Brand == nil && in.Specifications == nil && in.IsActive == nil
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
