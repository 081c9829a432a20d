package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
)

// Payment statuses reported by Square.
const (
	PaymentStatusApproved  = "APPROVED"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusCanceled  = "CANCELED"
	PaymentStatusFailed    = "FAILED"
)

// PaymentSummary is the SDK-independent view of a Square payment.
type PaymentSummary struct {
	ID          string
	Status      string
	Amount      int64
	Currency    string
	ReferenceID string
	LocationID  string
}

// Completed reports whether funds were captured.
func (p *PaymentSummary) Completed() bool {
	return p != nil && strings.EqualFold(p.Status, PaymentStatusCompleted)
}

func summarizePayment(payment *sq.Payment) *PaymentSummary {
	if payment == nil {
		return nil
	}
	summary := &PaymentSummary{
		ID:          stringValue(payment.ID),
		Status:      stringValue(payment.Status),
		ReferenceID: stringValue(payment.ReferenceID),
		LocationID:  stringValue(payment.LocationID),
	}
	if money := payment.AmountMoney; money != nil {
		if money.Amount != nil {
			summary.Amount = *money.Amount
		}
		if money.Currency != nil {
			summary.Currency = string(*money.Currency)
		}
	}
	return summary
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
