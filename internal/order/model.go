package order

import (
	"strings"
	"time"

	"shophub-be/internal/payment"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCOD
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

func (a ShippingAddress) complete() bool {
	for _, v := range []string{a.Street, a.City, a.State, a.ZipCode, a.Country, a.Phone} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// LineItem is a snapshot of a product taken at checkout. Later edits to the
// product do not change it.
type LineItem struct {
	ProductID string          `json:"product"`
	SellerID  string          `json:"seller"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"user"`
	Items           []LineItem      `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Pricing
	OrderStatus   Status         `json:"orderStatus"`
	PaymentStatus PaymentStatus  `json:"paymentStatus"`
	PaymentInfo   *payment.Proof `json:"paymentInfo,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// HasSeller reports whether at least one line item belongs to sellerID.
func (o *Order) HasSeller(sellerID string) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

// SellerIDs returns the distinct sellers in item order.
func (o *Order) SellerIDs() []string {
	seen := map[string]bool{}
	ids := []string{}
	for _, it := range o.Items {
		if !seen[it.SellerID] {
			seen[it.SellerID] = true
			ids = append(ids, it.SellerID)
		}
	}
	return ids
}

type CartItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderInput struct {
	Items           []CartItem      `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentInfo     *payment.Proof  `json:"paymentInfo,omitempty"`
}

// Quote is a priced cart that has not been persisted.
type Quote struct {
	Items []LineItem `json:"orderItems"`
	Pricing
}
