package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementDirection string

const (
	DirectionIn  MovementDirection = "in"
	DirectionOut MovementDirection = "out"
)

type MovementType string

const (
	MovementTransferOut     MovementType = "transfer_out"      // virman çıkışı
	MovementTransferIn      MovementType = "transfer_in"       // virman girişi
	MovementTransferReverse MovementType = "transfer_reversal" // başarısız virmanın iadesi
	MovementSaleCollection  MovementType = "sale_collection"   // satış tahsilatı
	MovementOpening         MovementType = "opening_balance"   // açılış bakiyesi
)

type DocumentType string

const (
	DocumentTransfer DocumentType = "virman"
	DocumentReceipt  DocumentType = "tahsilat_makbuzu"
	DocumentOpening  DocumentType = "acilis_fisi"
)

// VaultMovement: hesaba giren/çıkan tutar. Kayıtlar değiştirilmez, düzeltme ters kayıtla yapılır.
type VaultMovement struct {
	ID           uint              `gorm:"primaryKey"`
	BranchID     uint              `gorm:"index;not null"`
	VaultID      uint              `gorm:"index;not null"`
	Vault        Vault             `gorm:"foreignKey:VaultID"`
	Date         time.Time         `gorm:"index;not null"`
	Direction    MovementDirection `gorm:"size:10;not null"`
	MovementType MovementType      `gorm:"size:30;not null;index"`
	DocumentType DocumentType      `gorm:"size:30;not null"`
	Entering     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Emerging     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Currency     string            `gorm:"size:3;not null"`
	Description  string            `gorm:"size:255"`
	Reference    string            `gorm:"size:64;index"` // virman ref / satış oturumu
	CreatedAt    time.Time
}
