// Package cart implements the pure cart state engine: an ordered sequence of
// product lines with merge-on-add semantics and derived totals. It performs no
// I/O; owners subscribe to mutations and mirror the state to storage.
package cart

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

// ErrInvalidQuantity indicates the caller supplied a non-positive quantity
// where one is required.
var ErrInvalidQuantity = errors.New("cart: quantity must be a positive integer")

// ErrInvalidProduct indicates the caller supplied an empty product identifier.
var ErrInvalidProduct = errors.New("cart: product id is required")

// Listener observes the cart after every successful mutation. The slice is
// the post-mutation line sequence and must not be retained or modified.
type Listener func(lines []domain.CartLine)

// Cart holds the line items for one shopper. Insertion order is preserved for
// display; at most one line exists per product ID. Not safe for concurrent
// use; callers serialise access per shopper.
type Cart struct {
	lines     []domain.CartLine
	listeners []Listener
}

// New constructs an empty cart.
func New() *Cart {
	return &Cart{lines: []domain.CartLine{}}
}

// FromLines constructs a cart seeded with the given lines, dropping entries
// that violate the invariants (non-positive quantity, blank product, duplicate
// product ID). Used when rehydrating from storage.
func FromLines(lines []domain.CartLine) *Cart {
	c := New()
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		if id == "" || line.Quantity < 1 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		line.ProductID = id
		c.lines = append(c.lines, line)
	}
	return c
}

// Subscribe registers a listener invoked after every mutation.
func (c *Cart) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	c.listeners = append(c.listeners, fn)
}

// Add appends a new line or merges the quantity into an existing line for the
// same product. Quantity must be at least 1.
func (c *Cart) Add(product domain.Product, quantity int) error {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	if idx := c.indexOf(id); idx >= 0 {
		c.lines[idx].Quantity += quantity
	} else {
		c.lines = append(c.lines, domain.CartLine{
			ProductID: id,
			Name:      strings.TrimSpace(product.Name),
			UnitPrice: product.UnitPrice,
			Quantity:  quantity,
		})
	}
	c.notify()
	return nil
}

// Remove deletes the line for the product. Removing an absent product is a
// no-op, not an error.
func (c *Cart) Remove(productID string) {
	idx := c.indexOf(strings.TrimSpace(productID))
	if idx < 0 {
		return
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	c.notify()
}

// UpdateQuantity replaces the stored quantity for the product. A quantity
// below 1 removes the line. Updating an absent product is a no-op.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	id := strings.TrimSpace(productID)
	if quantity < 1 {
		c.Remove(id)
		return
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.lines[idx].Quantity = quantity
	c.notify()
}

// Clear empties the sequence.
func (c *Cart) Clear() {
	if len(c.lines) == 0 {
		return
	}
	c.lines = c.lines[:0]
	c.notify()
}

// Lines returns a copy of the current line sequence in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// TotalItems returns the sum of quantities across all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// Subtotal returns the sum of unit price times quantity across all lines.
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, line := range c.lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}
	return subtotal
}

func (c *Cart) indexOf(productID string) int {
	if productID == "" {
		return -1
	}
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) notify() {
	for _, fn := range c.listeners {
		fn(c.Lines())
	}
}
