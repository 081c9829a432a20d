package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

// ItemsTotal sums priceAtTime x quantity over the order lines.
func ItemsTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// VerifyTotals checks that the lines add up to the order total. Nothing in the
// schema enforces this, so detail reads check it.
func VerifyTotals(order models.Order) error {
	sum := ItemsTotal(order.Items)
	if !sum.Equal(order.TotalAmount) {
		return fmt.Errorf("order %s: items sum to %s, total is %s", order.ID, sum.StringFixed(2), order.TotalAmount.StringFixed(2))
	}
	return nil
}
