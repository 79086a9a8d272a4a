package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"kasa-backend/internal/account"
	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"
	"kasa-backend/internal/vault"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store yerel Postgres veritabanı üzerinden kasa, kur ve satış işlemleri.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// -------------------------
// Kasalar
// -------------------------

func (s *Store) GetVault(ctx context.Context, id uint) (vault.Vault, error) {
	var v models.Vault
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return vault.Vault{}, apperr.NotFound("kasa", id)
	}
	if err != nil {
		return vault.Vault{}, fmt.Errorf("kasa okunamadı: %w", err)
	}
	return toVault(v), nil
}

// WriteMovement hareketi yazar ve hesap bakiyesini aynı işlemde günceller.
func (s *Store) WriteMovement(ctx context.Context, m vault.Movement) (uint, error) {
	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = insertMovement(tx, m)
		return err
	})
	return id, err
}

// WriteTransfer iki hareketi tek veritabanı işleminde yazar; biri başarısızsa ikisi de geri alınır.
func (s *Store) WriteTransfer(ctx context.Context, debit, credit vault.Movement) (uint, uint, error) {
	var debitID, creditID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if debitID, err = insertMovement(tx, debit); err != nil {
			return err
		}
		creditID, err = insertMovement(tx, credit)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return debitID, creditID, nil
}

func insertMovement(tx *gorm.DB, m vault.Movement) (uint, error) {
	row := models.VaultMovement{
		BranchID:     m.BranchID,
		VaultID:      m.VaultID,
		Date:         m.Date,
		Direction:    m.Direction,
		MovementType: m.Type,
		DocumentType: m.Document,
		Entering:     m.Entering,
		Emerging:     m.Emerging,
		Currency:     string(m.Currency),
		Description:  m.Description,
		Reference:    m.Reference,
	}
	if err := tx.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("kasa hareketi kaydedilemedi: %w", err)
	}

	res := tx.Model(&models.Vault{}).
		Where("id = ?", m.VaultID).
		Update("balance", gorm.Expr("balance + ?", m.Net()))
	if res.Error != nil {
		return 0, fmt.Errorf("kasa bakiyesi güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound("kasa", m.VaultID)
	}
	return row.ID, nil
}

func (s *Store) ListMovements(ctx context.Context, vaultID uint, f vault.MovementFilter) ([]vault.Entry, error) {
	q := s.db.WithContext(ctx).Where("vault_id = ?", vaultID)
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date < ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []models.VaultMovement
	if err := q.Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("kasa hareketleri listelenemedi: %w", err)
	}

	out := make([]vault.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, vault.Entry{ID: r.ID, Movement: toMovement(r)})
	}
	return out, nil
}

// -------------------------
// Hesap seçimleri
// -------------------------

func (s *Store) ListAccounts(ctx context.Context, branchID uint, kind models.AccountKind) ([]account.Ref, error) {
	q := s.db.WithContext(ctx).Where("kind = ? AND is_active = ?", kind, true)
	if branchID > 0 {
		q = q.Where("branch_id = ?", branchID)
	}

	var rows []models.Vault
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hesaplar listelenemedi: %w", err)
	}

	out := make([]account.Ref, 0, len(rows))
	for _, v := range rows {
		out = append(out, account.Ref{
			ID:       v.ID,
			BranchID: v.BranchID,
			Kind:     v.Kind,
			Name:     v.Name,
			Currency: currency.Code(v.Currency),
			Balance:  v.Balance,
		})
	}
	return out, nil
}

// -------------------------
// Kurlar
// -------------------------

type rateRow struct {
	Currency string
	Rate     decimal.Decimal
}

// Rates her para birimi için en son geçerli kuru döner.
func (s *Store) Rates(ctx context.Context) (currency.RateTable, error) {
	var rows []rateRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (currency) currency, rate
		FROM exchange_rates
		WHERE valid_from <= NOW()
		ORDER BY currency, valid_from DESC
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("kurlar okunamadı: %w", err)
	}

	tbl := currency.RateTable{}
	for _, r := range rows {
		code, err := currency.Parse(r.Currency)
		if err != nil {
			continue
		}
		tbl[code] = r.Rate
	}
	return tbl, nil
}

func (s *Store) SaveRate(ctx context.Context, code currency.Code, rate decimal.Decimal) error {
	row := models.ExchangeRate{Currency: string(code), Rate: rate, ValidFrom: nowFunc()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("kur kaydedilemedi: %w", err)
	}
	return nil
}

// -------------------------
// Kullanıcılar
// -------------------------

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("kullanıcı", email)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// -------------------------
// Yardımcılar
// -------------------------

func toVault(v models.Vault) vault.Vault {
	return vault.Vault{
		ID:       v.ID,
		BranchID: v.BranchID,
		Kind:     v.Kind,
		Name:     v.Name,
		Currency: currency.Code(v.Currency),
	}
}

func toMovement(r models.VaultMovement) vault.Movement {
	return vault.Movement{
		VaultID:     r.VaultID,
		BranchID:    r.BranchID,
		Date:        r.Date,
		Direction:   r.Direction,
		Type:        r.MovementType,
		Document:    r.DocumentType,
		Entering:    r.Entering,
		Emerging:    r.Emerging,
		Currency:    currency.Code(r.Currency),
		Description: r.Description,
		Reference:   r.Reference,
	}
}

func parseAccountID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("account_id", "geçersiz hesap")
	}
	return uint(id), nil
}

// lockVault satış sırasında hesabı kilitler.
func lockVault(tx *gorm.DB, id uint) (models.Vault, error) {
	var v models.Vault
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", id, true).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v, apperr.NotFound("kasa", id)
	}
	return v, err
}
