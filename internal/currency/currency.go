package currency

import (
	"errors"
	"fmt"
	"strings"

	"kasa-backend/internal/apperr"

	"github.com/shopspring/decimal"
)

type Code string

const (
	TRY Code = "TRY"
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
)

// Base tüm kurların karşılığı olan ana para birimi.
const Base = TRY

var known = map[Code]struct{}{TRY: {}, USD: {}, EUR: {}, GBP: {}}

var (
	// ErrUnknownCurrency desteklenmeyen ya da kuru olmayan para birimi.
	ErrUnknownCurrency = errors.New("bilinmeyen para birimi")

	// ErrInvalidRate sıfır veya negatif kur.
	ErrInvalidRate = errors.New("geçersiz kur")
)

// UnknownRateError hangi kodun çözülemediğini taşır.
type UnknownRateError struct {
	Code Code
}

func (e *UnknownRateError) Error() string {
	return fmt.Sprintf("%s için kur bulunamadı", e.Code)
}

func (e *UnknownRateError) Is(target error) bool {
	return target == ErrUnknownCurrency || target == apperr.ErrValidation
}

func (c Code) Valid() bool {
	_, ok := known[c]
	return ok
}

func (c Code) String() string { return string(c) }

// Parse "usd", " EUR " gibi girdileri normalize eder.
func Parse(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &UnknownRateError{Code: c}
	}
	return c, nil
}

// RateTable: 1 birim döviz = kaç Base.
type RateTable map[Code]decimal.Decimal

// Rate Base için her zaman 1 döner.
func (t RateTable) Rate(c Code) (decimal.Decimal, error) {
	if c == Base {
		return decimal.NewFromInt(1), nil
	}
	r, ok := t[c]
	if !ok || !c.Valid() {
		return decimal.Zero, &UnknownRateError{Code: c}
	}
	if !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s: %w", c, ErrInvalidRate)
	}
	return r, nil
}

func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Convert tutarı Base üzerinden çevirir. Yuvarlama yapmaz.
func Convert(amount decimal.Decimal, from, to Code, rates RateTable) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rFrom, err := rates.Rate(from)
	if err != nil {
		return decimal.Zero, err
	}
	rTo, err := rates.Rate(to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rFrom).Div(rTo), nil
}

// Round gösterim/toplama sınırında 2 haneye yuvarlar.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
