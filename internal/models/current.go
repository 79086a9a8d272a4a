package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Current: cari hesap (müşteri/tedarikçi). Pozitif bakiye alacak.
type Current struct {
	ID        uint            `gorm:"primaryKey"`
	BranchID  uint            `gorm:"index;not null"`
	Branch    Branch          `gorm:"foreignKey:BranchID"`
	Name      string          `gorm:"size:150;not null"`
	Currency  string          `gorm:"size:3;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,4);default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CurrentMovement struct {
	ID          uint            `gorm:"primaryKey"`
	CurrentID   uint            `gorm:"index;not null"`
	SaleID      *uint           `gorm:"index"`
	Date        time.Time       `gorm:"index;not null"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // borç
	Credit      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // alacak
	Currency    string          `gorm:"size:3;not null"`
	Description string          `gorm:"size:255"`
	CreatedAt   time.Time
}
