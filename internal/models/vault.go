package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountKindCash AccountKind = "cash" // nakit kasa
	AccountKindBank AccountKind = "bank" // banka hesabı
	AccountKindPOS  AccountKind = "pos"  // POS / kart hesabı
)

func (k AccountKind) Valid() bool {
	switch k {
	case AccountKindCash, AccountKindBank, AccountKindPOS:
		return true
	}
	return false
}

// Vault: kasa, banka veya POS hesabı. Bakiye hesabın kendi para biriminde.
type Vault struct {
	ID            uint            `gorm:"primaryKey"`
	BranchID      uint            `gorm:"index;not null"`
	Branch        Branch
	Kind          AccountKind     `gorm:"size:20;not null;index"`
	Name          string          `gorm:"size:100;not null"`
	Currency      string          `gorm:"size:3;not null"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,4);default:0"`
	AccountNumber string          `gorm:"size:50"` // IBAN / hesap no (opsiyonel)
	IsActive      bool            `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
