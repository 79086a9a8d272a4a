package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale: kesinleşmiş satış. Taslaklar veritabanına yazılmaz.
type Sale struct {
	ID               uint            `gorm:"primaryKey"`
	BranchID         uint            `gorm:"index;not null"`
	Branch           Branch          `gorm:"foreignKey:BranchID"`
	SessionID        string          `gorm:"size:64;uniqueIndex;not null"`
	CurrentID        *uint           `gorm:"index"` // cari hesap (veresiye)
	Currency         string          `gorm:"size:3;not null"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VATTotal         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalExpensesUSD decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GrandTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Rates            string          `gorm:"type:jsonb"` // oturumun kullandığı kurlar
	FinalizedAt      time.Time       `gorm:"index;not null"`
	Lines            []SaleLine      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Expenses         []SaleExpense   `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Payments         []SalePayment   `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type SaleLine struct {
	ID           uint            `gorm:"primaryKey"`
	SaleID       uint            `gorm:"index;not null"`
	LineRef      string          `gorm:"size:64"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VATRate      decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	DiscountRate decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

type SaleExpense struct {
	ID         uint            `gorm:"primaryKey"`
	SaleID     uint            `gorm:"index;not null"`
	ExpenseRef string          `gorm:"size:64"`
	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency   string          `gorm:"size:3;not null"`
}

// SalePayment: satışa ait tahsilat satırı.
type SalePayment struct {
	ID          uint            `gorm:"primaryKey"`
	SaleID      uint            `gorm:"index;not null"`
	PaymentRef  string          `gorm:"size:64;not null"`
	Method      string          `gorm:"size:20;not null"` // cash / card / transfer / credit
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency    string          `gorm:"size:3;not null"`
	VaultID     *uint           `gorm:"index"` // credit için boş
	Description string          `gorm:"size:500"`
	CreatedAt   time.Time
}
