package checkout

import (
	"sync"

	"shophub-be/internal/order"
)

// Cart holds product quantities on the client until an order is placed.
// Adding a product that is already present increases its quantity.
type Cart struct {
	mu    sync.Mutex
	items []order.CartItem
}

func NewCart(items ...order.CartItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		c.Add(it.ProductID, it.Quantity)
	}
	return c
}

func (c *Cart) Add(productID string, quantity int) {
	if productID == "" || quantity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, order.CartItem{ProductID: productID, Quantity: quantity})
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []order.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]order.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
