package enums

import (
	"fmt"
	"strings"
)

// CheckoutFlow selects the status sequence written by checkout.
//
//	standard: pending -> processing
//	paid:     paid
type CheckoutFlow string

const (
	CheckoutFlowStandard CheckoutFlow = "standard"
	CheckoutFlowPaid     CheckoutFlow = "paid"
)

// InitialStatus is the status the order row is created with.
func (f CheckoutFlow) InitialStatus() OrderStatus {
	if f == CheckoutFlowPaid {
		return OrderStatusPaid
	}
	return OrderStatusPending
}

// AdvancesToProcessing reports whether the flow moves the order to processing once items exist.
func (f CheckoutFlow) AdvancesToProcessing() bool {
	return f != CheckoutFlowPaid
}

// ParseCheckoutFlow converts configuration input into a CheckoutFlow.
func ParseCheckoutFlow(value string) (CheckoutFlow, error) {
	switch CheckoutFlow(strings.ToLower(strings.TrimSpace(value))) {
	case CheckoutFlowStandard, "":
		return CheckoutFlowStandard, nil
	case CheckoutFlowPaid:
		return CheckoutFlowPaid, nil
	}
	return "", fmt.Errorf("invalid checkout flow %q", value)
}
