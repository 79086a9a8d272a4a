package payment

import (
	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCash     Method = "cash"     // nakit
	MethodCard     Method = "card"     // kredi kartı (POS)
	MethodTransfer Method = "transfer" // havale/EFT
	MethodCredit   Method = "credit"   // açık hesap (cari)
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCredit:
		return true
	}
	return false
}

// AccountKind ödemenin düşeceği hesap türü. credit için boş döner.
func (m Method) AccountKind() models.AccountKind {
	switch m {
	case MethodCash:
		return models.AccountKindCash
	case MethodCard:
		return models.AccountKindPOS
	case MethodTransfer:
		return models.AccountKindBank
	}
	return ""
}

func (m Method) RequiresAccount() bool {
	return m.AccountKind() != ""
}

// Record tek bir ödeme satırı. Tutar defterin para biriminde.
type Record struct {
	ID          string          `json:"id"`
	Method      Method          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   string          `json:"account_id,omitempty"`
	Currency    currency.Code   `json:"currency"`
	Description string          `json:"description,omitempty"`
}

func (r Record) Validate() error {
	if !r.Method.Valid() {
		return apperr.Validation("method", "geçersiz ödeme yöntemi")
	}
	if !r.Amount.IsPositive() {
		return apperr.Validation("amount", "0'dan büyük olmalı")
	}
	if r.Method.RequiresAccount() && r.AccountID == "" {
		return apperr.Validation("account_id", "bu ödeme yöntemi için hesap seçilmeli")
	}
	if r.Method == MethodCredit && r.AccountID != "" {
		return apperr.Validation("account_id", "açık hesap ödemesinde hesap seçilmez")
	}
	if !r.Currency.Valid() {
		return apperr.Validation("currency", "desteklenmeyen para birimi")
	}
	return nil
}

// Input yeni ödeme girdisi.
type Input struct {
	Method      Method          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   string          `json:"account_id"`
	Currency    currency.Code   `json:"currency"`
	Description string          `json:"description"`
}

// Update kısmi güncelleme; nil alanlar değişmez.
type Update struct {
	Method      *Method          `json:"method"`
	Amount      *decimal.Decimal `json:"amount"`
	AccountID   *string          `json:"account_id"`
	Currency    *currency.Code   `json:"currency"`
	Description *string          `json:"description"`
}

func (u Update) apply(r Record) Record {
	if u.Method != nil {
		r.Method = *u.Method
		if r.Method == MethodCredit && u.AccountID == nil {
			r.AccountID = ""
		}
	}
	if u.Amount != nil {
		r.Amount = *u.Amount
	}
	if u.AccountID != nil {
		r.AccountID = *u.AccountID
	}
	if u.Currency != nil {
		r.Currency = *u.Currency
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	return r
}
