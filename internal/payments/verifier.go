package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/square"
)

// Expectation describes the payment an order is about to be written for.
// Reference is the one issued with the widget session; PaymentID is the
// provider's id for the captured payment.
type Expectation struct {
	Reference string
	PaymentID string
	Amount    int64
	Currency  string
}

// Verifier confirms a widget callback before checkout writes anything.
type Verifier interface {
	Verify(ctx context.Context, expect Expectation) error
}

type paymentGetter interface {
	GetPayment(ctx context.Context, paymentID string) (*square.PaymentSummary, error)
}

// SquareVerifier looks the payment up server-side.
type SquareVerifier struct {
	payments paymentGetter
	logg     *logger.Logger
}

// NewSquareVerifier wires the Square payment lookup.
func NewSquareVerifier(payments paymentGetter, logg *logger.Logger) (*SquareVerifier, error) {
	if payments == nil {
		return nil, errors.New("square payment client required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &SquareVerifier{payments: payments, logg: logg}, nil
}

// Verify requires the Square payment to carry the issued reference, so a
// payment made for another checkout session never satisfies this one.
func (v *SquareVerifier) Verify(ctx context.Context, expect Expectation) error {
	if strings.TrimSpace(expect.PaymentID) == "" || strings.TrimSpace(expect.Reference) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id and reference are required")
	}
	payment, err := v.payments.GetPayment(ctx, expect.PaymentID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodePayment, err, "payment not found")
		}
		return err
	}

	var mismatches []string
	if payment.ReferenceID != expect.Reference {
		mismatches = append(mismatches, fmt.Sprintf("reference %q != %q", payment.ReferenceID, expect.Reference))
	}
	if !payment.Completed() {
		mismatches = append(mismatches, fmt.Sprintf("status %s", payment.Status))
	}
	if payment.Amount != expect.Amount {
		mismatches = append(mismatches, fmt.Sprintf("amount %d != %d", payment.Amount, expect.Amount))
	}
	if expect.Currency != "" && !strings.EqualFold(payment.Currency, expect.Currency) {
		mismatches = append(mismatches, fmt.Sprintf("currency %s != %s", payment.Currency, expect.Currency))
	}
	if len(mismatches) > 0 {
		v.logg.Warn(v.logg.WithFields(ctx, map[string]any{
			"payment_reference": expect.Reference,
			"payment_id":        expect.PaymentID,
			"mismatches":        strings.Join(mismatches, "; "),
		}), "payment verification failed")
		return pkgerrors.New(pkgerrors.CodePayment, "payment could not be verified").
			WithDetails(map[string]any{"reference": expect.Reference})
	}
	return nil
}

// TrustCallbackVerifier accepts the widget callback as proof of payment. Used
// when no payment provider credentials are configured.
type TrustCallbackVerifier struct {
	logg *logger.Logger
}

// NewTrustCallbackVerifier builds the pass-through verifier.
func NewTrustCallbackVerifier(logg *logger.Logger) *TrustCallbackVerifier {
	return &TrustCallbackVerifier{logg: logg}
}

func (v *TrustCallbackVerifier) Verify(ctx context.Context, expect Expectation) error {
	if strings.TrimSpace(expect.Reference) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if v.logg != nil {
		v.logg.Warn(v.logg.WithField(ctx, "payment_reference", expect.Reference), "payment accepted without server-side verification")
	}
	return nil
}
