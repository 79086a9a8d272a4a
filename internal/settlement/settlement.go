package settlement

import (
	"fmt"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"

	"github.com/shopspring/decimal"
)

// Tolerance kuruş farkı kabul sınırı.
var Tolerance = decimal.New(1, -2)

// Result pozitif Remaining eksik, negatif Remaining fazla ödeme demektir.
type Result struct {
	Remaining decimal.Decimal `json:"remaining"`
	Settled   bool            `json:"settled"`
}

func Validate(grandTotal, totalPaid decimal.Decimal) Result {
	remaining := currency.Round(grandTotal.Sub(totalPaid))
	return Result{
		Remaining: remaining,
		Settled:   remaining.Abs().LessThanOrEqual(Tolerance),
	}
}

func (r Result) Overpaid() bool {
	return !r.Settled && r.Remaining.IsNegative()
}

func (r Result) Underpaid() bool {
	return !r.Settled && r.Remaining.IsPositive()
}

// Message kapanmamış farkı yön ve tutarla anlatır; tutarlıysa boş döner.
func (r Result) Message(cur currency.Code) string {
	switch {
	case r.Overpaid():
		return fmt.Sprintf("Fazla ödeme: %s %s tahsil edilen tutar faturayı aşıyor", r.Remaining.Abs().StringFixed(2), cur)
	case r.Underpaid():
		return fmt.Sprintf("Eksik ödeme: %s %s tahsil edilmesi gerekiyor", r.Remaining.StringFixed(2), cur)
	}
	return ""
}

// Err tutarsızsa *MismatchError döner.
func (r Result) Err(cur currency.Code) error {
	if r.Settled {
		return nil
	}
	return &MismatchError{Result: r, Currency: cur}
}

// MismatchError tahsilat tutarı fatura toplamıyla örtüşmüyor.
type MismatchError struct {
	Result   Result
	Currency currency.Code
}

func (e *MismatchError) Error() string {
	return "tahsilat tamamlanmadı: " + e.Result.Message(e.Currency)
}

func (e *MismatchError) Is(target error) bool {
	return target == apperr.ErrUnprocessable
}
