package invoice

import (
	"testing"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testRates = currency.RateTable{
	currency.USD: d("30"),
	currency.EUR: d("35"),
}

func TestLineItemDerivedAmounts(t *testing.T) {
	li := LineItem{Quantity: d("3"), UnitPrice: d("12.50"), VATRate: d("20"), DiscountRate: d("10"), Currency: currency.TRY}

	assert.Equal(t, "37.5", li.Gross().String())
	assert.Equal(t, "3.75", li.DiscountAmount().String())
	assert.Equal(t, "33.75", li.VatableAmount().String())
	assert.Equal(t, "6.75", li.VATAmount().String())
	assert.Equal(t, "40.5", li.TotalAmount().String())
}

func TestLineItemTotalFormula(t *testing.T) {
	cases := []struct{ q, p, v, disc string }{
		{"1", "100", "18", "0"},
		{"2.5", "19.99", "8", "5"},
		{"7", "3.333", "1", "12.5"},
		{"0", "50", "20", "0"},
		{"10", "0.07", "0", "100"},
	}
	for _, c := range cases {
		li := LineItem{Quantity: d(c.q), UnitPrice: d(c.p), VATRate: d(c.v), DiscountRate: d(c.disc), Currency: currency.USD}
		// q·p·(1−d/100)·(1+v/100)
		want := d(c.q).Mul(d(c.p)).
			Mul(decimal.NewFromInt(1).Sub(d(c.disc).Div(hundred))).
			Mul(decimal.NewFromInt(1).Add(d(c.v).Div(hundred)))
		assert.Equal(t, currency.Round(want).String(), currency.Round(li.TotalAmount()).String(), "%+v", c)
	}
}

func TestLineItemValidate(t *testing.T) {
	ok := LineItem{Quantity: d("1"), UnitPrice: d("1"), VATRate: d("18"), DiscountRate: d("0"), Currency: currency.TRY}
	require.NoError(t, ok.Validate())

	bad := []LineItem{
		{Quantity: d("-1"), UnitPrice: d("1"), Currency: currency.TRY},
		{Quantity: d("1"), UnitPrice: d("-1"), Currency: currency.TRY},
		{Quantity: d("1"), UnitPrice: d("1"), VATRate: d("-1"), Currency: currency.TRY},
		{Quantity: d("1"), UnitPrice: d("1"), DiscountRate: d("101"), Currency: currency.TRY},
		{Quantity: d("1"), UnitPrice: d("1"), Currency: "JPY"},
	}
	for _, li := range bad {
		assert.ErrorIs(t, li.Validate(), apperr.ErrValidation, "%+v", li)
	}
}

func TestAggregateUSDInvoiceWithExpenses(t *testing.T) {
	items := []LineItem{
		{ID: "1", Quantity: d("2"), UnitPrice: d("100"), VATRate: d("20"), Currency: currency.USD},
		{ID: "2", Quantity: d("1"), UnitPrice: d("50"), VATRate: d("10"), Currency: currency.USD},
	}
	expenses := []ExpenseItem{
		{ID: "nakliye", Price: d("300"), Currency: currency.TRY}, // 10 USD
		{ID: "sigorta", Price: d("5"), Currency: currency.USD},
	}

	tot, err := Aggregate(items, expenses, testRates)
	require.NoError(t, err)

	assert.Equal(t, currency.USD, tot.Currency)
	assert.Equal(t, "250", tot.Subtotal.String())
	assert.Equal(t, "0", tot.DiscountTotal.String())
	assert.Equal(t, "45", tot.VATTotal.String())
	assert.Equal(t, "15", tot.TotalExpenses.String())
	// subtotal + vat + expenses
	assert.Equal(t, "310", tot.GrandTotal.String())
}

func TestAggregateDiscountAndForeignExpense(t *testing.T) {
	items := []LineItem{
		{Quantity: d("10"), UnitPrice: d("100"), VATRate: d("20"), DiscountRate: d("10"), Currency: currency.TRY},
	}
	expenses := []ExpenseItem{{Price: d("2"), Currency: currency.USD}}

	tot, err := Aggregate(items, expenses, testRates)
	require.NoError(t, err)

	assert.Equal(t, "1000", tot.Subtotal.String())
	assert.Equal(t, "100", tot.DiscountTotal.String())
	assert.Equal(t, "180", tot.VATTotal.String())
	assert.Equal(t, "2", tot.TotalExpenses.String())
	assert.Equal(t, "60", tot.ExpensesInCurrency.String())
	assert.Equal(t, "1140", tot.GrandTotal.String())
}

func TestGrandTotalUsesConvertedExpensesNotUSD(t *testing.T) {
	items := []LineItem{
		{Quantity: d("1"), UnitPrice: d("100"), VATRate: d("0"), DiscountRate: d("10"), Currency: currency.TRY},
	}
	expenses := []ExpenseItem{{Price: d("10"), Currency: currency.USD}}

	tot, err := Aggregate(items, expenses, testRates)
	require.NoError(t, err)

	assert.Equal(t, "10", tot.TotalExpenses.String())
	assert.Equal(t, "300", tot.ExpensesInCurrency.String())
	// 100 - 10 indirim + 300 masraf
	assert.Equal(t, "390", tot.GrandTotal.String())
}

func TestAggregateMixedCurrency(t *testing.T) {
	items := []LineItem{
		{Quantity: d("1"), UnitPrice: d("1"), Currency: currency.USD},
		{Quantity: d("1"), UnitPrice: d("1"), Currency: currency.EUR},
	}
	_, err := Aggregate(items, nil, testRates)
	assert.ErrorIs(t, err, ErrMixedCurrency)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAggregateUnknownExpenseRate(t *testing.T) {
	items := []LineItem{{Quantity: d("1"), UnitPrice: d("1"), Currency: currency.USD}}
	_, err := Aggregate(items, []ExpenseItem{{Price: d("1"), Currency: currency.GBP}}, testRates)
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestAggregateEmpty(t *testing.T) {
	tot, err := Aggregate(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, currency.Base, tot.Currency)
	assert.True(t, tot.GrandTotal.IsZero())
}
