package payments

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

var minorUnitFactor = decimal.NewFromInt(100)

// CustomField is free-form metadata shown on the payment receipt.
type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Metadata is attached to the widget session.
type Metadata struct {
	CustomFields []CustomField `json:"custom_fields"`
}

// WidgetConfig is everything the client-side payment widget needs.
type WidgetConfig struct {
	Amount    int64          `json:"amount"`
	Currency  enums.Currency `json:"currency"`
	Email     string         `json:"email"`
	FirstName string         `json:"firstname,omitempty"`
	LastName  string         `json:"lastname,omitempty"`
	Reference string         `json:"reference"`
	Metadata  Metadata       `json:"metadata"`
}

// Payer is the contact data printed on the widget and its receipt.
type Payer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// ToMinorUnits converts a decimal amount to the smallest currency subunit,
// rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitFactor).Round(0).IntPart()
}

// NewReference returns a unique widget reference such as "sweet-delights-<uuid>".
func NewReference(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "-")
	if prefix == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// BuildWidgetConfig assembles the widget session for a cart subtotal.
func BuildWidgetConfig(subtotal decimal.Decimal, currency enums.Currency, payer Payer, prefix string) WidgetConfig {
	first, last := splitName(payer.Name)
	fields := []CustomField{}
	if phone := strings.TrimSpace(payer.Phone); phone != "" {
		fields = append(fields, CustomField{DisplayName: "Phone Number", VariableName: "phone", Value: phone})
	}
	if address := strings.TrimSpace(payer.Address); address != "" {
		fields = append(fields, CustomField{DisplayName: "Delivery Address", VariableName: "address", Value: address})
	}
	return WidgetConfig{
		Amount:    ToMinorUnits(subtotal),
		Currency:  currency,
		Email:     strings.TrimSpace(payer.Email),
		FirstName: first,
		LastName:  last,
		Reference: NewReference(prefix),
		Metadata:  Metadata{CustomFields: fields},
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
