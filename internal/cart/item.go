package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Key is the natural identity of a line within one cart.
type Key struct {
	ProductID string
	SizeName  string
}

// Item is one cart line.
type Item struct {
	ProductID    string          `json:"product_id"`
	SizeName     string          `json:"size_name"`
	SizePrice    decimal.Decimal `json:"size_price"`
	Quantity     int             `json:"quantity"`
	Flavor       string          `json:"flavor"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
}

// Key returns the line identity.
func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, SizeName: i.SizeName}
}

// LineTotal is quantity times size price.
func (i Item) LineTotal() decimal.Decimal {
	return i.SizePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Items is an ordered list of lines. Operations return new slices and never
// mutate the receiver.
type Items []Item

// Find returns the line stored under key.
func (c Items) Find(key Key) (Item, bool) {
	for _, item := range c {
		if item.Key() == key {
			return item, true
		}
	}
	return Item{}, false
}

// Add merges item into the list: quantity is additive, the other attributes
// take the incoming values.
func (c Items) Add(item Item) Items {
	out := make(Items, 0, len(c)+1)
	merged := false
	for _, existing := range c {
		if existing.Key() == item.Key() {
			item.Quantity += existing.Quantity
			out = append(out, item)
			merged = true
			continue
		}
		out = append(out, existing)
	}
	if !merged {
		out = append(out, item)
	}
	return out
}

// Remove drops the line under key. Missing keys leave the list unchanged.
func (c Items) Remove(key Key) Items {
	out := make(Items, 0, len(c))
	for _, existing := range c {
		if existing.Key() != key {
			out = append(out, existing)
		}
	}
	return out
}

// SetQuantity replaces the quantity of the line under key.
func (c Items) SetQuantity(key Key, quantity int) (Items, bool) {
	out := make(Items, len(c))
	copy(out, c)
	for i := range out {
		if out[i].Key() == key {
			out[i].Quantity = quantity
			return out, true
		}
	}
	return out, false
}

// Subtract takes the quantities in ordered out of the list. Lines whose
// quantity drops to zero are removed and reported in removed; lines that still
// hold more than was ordered keep the remainder and are reported in reduced.
// Lines absent from the list are ignored.
func (c Items) Subtract(ordered Items) (next Items, removed []Key, reduced Items) {
	next = make(Items, 0, len(c))
	for _, existing := range c {
		taken, ok := ordered.Find(existing.Key())
		if !ok {
			next = append(next, existing)
			continue
		}
		if existing.Quantity <= taken.Quantity {
			removed = append(removed, existing.Key())
			continue
		}
		existing.Quantity -= taken.Quantity
		next = append(next, existing)
		reduced = append(reduced, existing)
	}
	return next, removed, reduced
}

// TotalItems is the sum of quantities.
func (c Items) TotalItems() int {
	total := 0
	for _, item := range c {
		total += item.Quantity
	}
	return total
}

// Subtotal is the sum of line totals.
func (c Items) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}
