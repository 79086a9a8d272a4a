package invoice

import (
	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem fatura satırı. Oranlar yüzde olarak tutulur (18 = %18).
type LineItem struct {
	ID           string          `json:"id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	Currency     currency.Code   `json:"currency"`
}

func (li LineItem) Validate() error {
	switch {
	case li.Quantity.IsNegative():
		return apperr.Validation("quantity", "negatif olamaz")
	case li.UnitPrice.IsNegative():
		return apperr.Validation("unit_price", "negatif olamaz")
	case li.VATRate.IsNegative():
		return apperr.Validation("vat_rate", "negatif olamaz")
	case li.DiscountRate.IsNegative() || li.DiscountRate.GreaterThan(hundred):
		return apperr.Validation("discount_rate", "0 ile 100 arasında olmalı")
	case !li.Currency.Valid():
		return apperr.Validation("currency", "desteklenmeyen para birimi")
	}
	return nil
}

// Gross iskonto öncesi tutar.
func (li LineItem) Gross() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

func (li LineItem) DiscountAmount() decimal.Decimal {
	return li.Gross().Mul(li.DiscountRate).Div(hundred)
}

func (li LineItem) VatableAmount() decimal.Decimal {
	return li.Gross().Sub(li.DiscountAmount())
}

func (li LineItem) VATAmount() decimal.Decimal {
	return li.VatableAmount().Mul(li.VATRate).Div(hundred)
}

func (li LineItem) TotalAmount() decimal.Decimal {
	return li.VatableAmount().Add(li.VATAmount())
}

// ExpenseItem ek masraf satırı (nakliye, gümrük...). Kendi para biriminde girilir.
type ExpenseItem struct {
	ID       string          `json:"id"`
	Price    decimal.Decimal `json:"price"`
	Currency currency.Code   `json:"currency"`
}

func (e ExpenseItem) Validate() error {
	if e.Price.IsNegative() {
		return apperr.Validation("price", "negatif olamaz")
	}
	if !e.Currency.Valid() {
		return apperr.Validation("currency", "desteklenmeyen para birimi")
	}
	return nil
}
