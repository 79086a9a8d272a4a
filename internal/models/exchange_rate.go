package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate: 1 birim Currency = Rate TRY. En son ValidFrom geçerlidir.
type ExchangeRate struct {
	ID        uint            `gorm:"primaryKey"`
	Currency  string          `gorm:"size:3;not null;index:idx_rate_currency_valid"`
	Rate      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	ValidFrom time.Time       `gorm:"not null;index:idx_rate_currency_valid"`
	CreatedBy uint
	CreatedAt time.Time
}
