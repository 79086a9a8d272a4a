package invoice

import (
	"errors"
	"fmt"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"

	"github.com/shopspring/decimal"
)

// ExpenseCurrency masraf toplamının gösterildiği para birimi.
const ExpenseCurrency = currency.USD

// ErrMixedCurrency satırlar farklı para birimlerinde.
var ErrMixedCurrency = errors.New("fatura satırları aynı para biriminde olmalı")

type mixedCurrencyError struct {
	want, got currency.Code
}

func (e *mixedCurrencyError) Error() string {
	return fmt.Sprintf("%s (%s beklenirken %s)", ErrMixedCurrency, e.want, e.got)
}

func (e *mixedCurrencyError) Is(target error) bool {
	return target == ErrMixedCurrency || target == apperr.ErrValidation
}

// Totals tutarlar 2 haneye yuvarlanmış olarak döner.
type Totals struct {
	Currency      currency.Code   `json:"currency"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	VATTotal      decimal.Decimal `json:"vat_total"`
	// TotalExpenses fatura para biriminden bağımsız olarak USD.
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	// ExpensesInCurrency masrafların fatura para birimindeki karşılığı.
	ExpensesInCurrency decimal.Decimal `json:"expenses_in_currency"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
}

// InvoiceCurrency ilk satırın para birimi; satır yoksa Base.
func InvoiceCurrency(items []LineItem) (currency.Code, error) {
	if len(items) == 0 {
		return currency.Base, nil
	}
	cur := items[0].Currency
	for _, it := range items[1:] {
		if it.Currency != cur {
			return "", &mixedCurrencyError{want: cur, got: it.Currency}
		}
	}
	return cur, nil
}

// Aggregate her çağrıda yeniden hesaplar.
// grandTotal = subtotal - discountTotal + vatTotal + masraflar (fatura para biriminde).
func Aggregate(items []LineItem, expenses []ExpenseItem, rates currency.RateTable) (Totals, error) {
	cur, err := InvoiceCurrency(items)
	if err != nil {
		return Totals{}, err
	}

	var subtotal, discount, vat decimal.Decimal
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return Totals{}, fmt.Errorf("satır %d: %w", i+1, err)
		}
		subtotal = subtotal.Add(it.Gross())
		discount = discount.Add(it.DiscountAmount())
		vat = vat.Add(it.VATAmount())
	}

	var expUSD, expInvoice decimal.Decimal
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			return Totals{}, fmt.Errorf("masraf %d: %w", i+1, err)
		}
		usd, err := currency.Convert(e.Price, e.Currency, ExpenseCurrency, rates)
		if err != nil {
			return Totals{}, fmt.Errorf("masraf %d: %w", i+1, err)
		}
		inv, err := currency.Convert(e.Price, e.Currency, cur, rates)
		if err != nil {
			return Totals{}, fmt.Errorf("masraf %d: %w", i+1, err)
		}
		expUSD = expUSD.Add(usd)
		expInvoice = expInvoice.Add(inv)
	}

	// Toplama masrafların fatura para birimindeki karşılığı girer.
	// TotalExpenses USD kalır, yalnız gösterim için.
	grand := subtotal.Sub(discount).Add(vat).Add(expInvoice)

	return Totals{
		Currency:           cur,
		Subtotal:           currency.Round(subtotal),
		DiscountTotal:      currency.Round(discount),
		VATTotal:           currency.Round(vat),
		TotalExpenses:      currency.Round(expUSD),
		ExpensesInCurrency: currency.Round(expInvoice),
		GrandTotal:         currency.Round(grand),
	}, nil
}
