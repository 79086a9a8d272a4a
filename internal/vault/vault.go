package vault

import (
	"context"
	"time"

	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Vault transferde kullanılan hesap bilgisi.
type Vault struct {
	ID       uint               `json:"id"`
	BranchID uint               `json:"branch_id"`
	Kind     models.AccountKind `json:"kind"`
	Name     string             `json:"name"`
	Currency currency.Code      `json:"currency"`
}

// Movement hesaba yazılacak tek yönlü hareket.
type Movement struct {
	VaultID     uint                     `json:"vault_id"`
	BranchID    uint                     `json:"branch_id"`
	Date        time.Time                `json:"date"`
	Direction   models.MovementDirection `json:"direction"`
	Type        models.MovementType      `json:"movement_type"`
	Document    models.DocumentType      `json:"document_type"`
	Entering    decimal.Decimal          `json:"entering"`
	Emerging    decimal.Decimal          `json:"emerging"`
	Currency    currency.Code            `json:"currency"`
	Description string                   `json:"description"`
	Reference   string                   `json:"reference"`
}

// Net bakiyeye etkisi.
func (m Movement) Net() decimal.Decimal {
	return m.Entering.Sub(m.Emerging)
}

// Entry kaydedilmiş hareket.
type Entry struct {
	ID uint `json:"id"`
	Movement
}

type MovementFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

type MovementLister interface {
	ListMovements(ctx context.Context, vaultID uint, f MovementFilter) ([]Entry, error)
}

type Resolver interface {
	GetVault(ctx context.Context, id uint) (Vault, error)
}

type MovementWriter interface {
	WriteMovement(ctx context.Context, m Movement) (uint, error)
}

// AtomicTransferer iki hareketi tek işlemde yazabilen depo.
type AtomicTransferer interface {
	WriteTransfer(ctx context.Context, debit, credit Movement) (debitID, creditID uint, err error)
}

// Store transfer için gereken depo yüzeyi.
type Store interface {
	Resolver
	MovementWriter
}
