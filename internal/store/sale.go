package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"
	"kasa-backend/internal/payment"
	"kasa-backend/internal/sale"
	"kasa-backend/internal/vault"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var nowFunc = time.Now

// SaveSale satışı, satırlarını, tahsilatlarını ve hesap hareketlerini tek işlemde yazar.
// Hesap türü veya para birimi tutmayan bir ödeme varsa hiçbir şey yazılmaz.
func (s *Store) SaveSale(ctx context.Context, fs sale.FinalizedSale) (uint, error) {
	ratesJSON, err := json.Marshal(fs.Rates)
	if err != nil {
		return 0, fmt.Errorf("kurlar serileştirilemedi: %w", err)
	}

	row := buildSale(fs, string(ratesJSON))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, p := range fs.Payments {
			if p.Method == payment.MethodCredit {
				continue
			}
			v, err := checkPaymentAccount(tx, fs.BranchID, p)
			if err != nil {
				return fmt.Errorf("ödeme %d: %w", i+1, err)
			}
			vid := v.ID
			row.Payments[i].VaultID = &vid
		}

		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("oturum %s: %w", fs.SessionID, sale.ErrAlreadyFinalized)
			}
			return fmt.Errorf("satış kaydedilemedi: %w", err)
		}

		for _, p := range fs.Payments {
			if p.Method == payment.MethodCredit {
				if err := postCurrent(tx, row.ID, fs, p); err != nil {
					return err
				}
				continue
			}
			vid, _ := parseAccountID(p.AccountID)
			_, err := insertMovement(tx, vault.Movement{
				VaultID:     vid,
				BranchID:    fs.BranchID,
				Date:        fs.FinalizedAt,
				Direction:   models.DirectionIn,
				Type:        models.MovementSaleCollection,
				Document:    models.DocumentReceipt,
				Entering:    p.Amount,
				Currency:    p.Currency,
				Description: collectionDescription(p),
				Reference:   fs.SessionID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

func buildSale(fs sale.FinalizedSale, ratesJSON string) models.Sale {
	row := models.Sale{
		BranchID:         fs.BranchID,
		SessionID:        fs.SessionID,
		CurrentID:        fs.CurrentID,
		Currency:         string(fs.Totals.Currency),
		Subtotal:         fs.Totals.Subtotal,
		DiscountTotal:    fs.Totals.DiscountTotal,
		VATTotal:         fs.Totals.VATTotal,
		TotalExpensesUSD: fs.Totals.TotalExpenses,
		GrandTotal:       fs.Totals.GrandTotal,
		TotalPaid:        fs.TotalPaid,
		Rates:            ratesJSON,
		FinalizedAt:      fs.FinalizedAt,
	}
	for _, it := range fs.Items {
		row.Lines = append(row.Lines, models.SaleLine{
			LineRef:      it.ID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			VATRate:      it.VATRate,
			DiscountRate: it.DiscountRate,
			TotalAmount:  currency.Round(it.TotalAmount()),
		})
	}
	for _, e := range fs.Expenses {
		row.Expenses = append(row.Expenses, models.SaleExpense{
			ExpenseRef: e.ID,
			Price:      e.Price,
			Currency:   string(e.Currency),
		})
	}
	for _, p := range fs.Payments {
		row.Payments = append(row.Payments, models.SalePayment{
			PaymentRef:  p.ID,
			Method:      string(p.Method),
			Amount:      p.Amount,
			Currency:    string(p.Currency),
			Description: p.Description,
		})
	}
	return row
}

// checkPaymentAccount ödemenin düştüğü hesabın türünü, şubesini ve para birimini doğrular.
func checkPaymentAccount(tx *gorm.DB, branchID uint, p payment.Record) (models.Vault, error) {
	id, err := parseAccountID(p.AccountID)
	if err != nil {
		return models.Vault{}, err
	}
	v, err := lockVault(tx, id)
	if err != nil {
		return v, err
	}
	if v.BranchID != branchID {
		return v, apperr.Validation("account_id", "hesap bu şubeye ait değil")
	}
	if v.Kind != p.Method.AccountKind() {
		return v, apperr.Validation("account_id", fmt.Sprintf("%s ödemesi %s hesabına yazılamaz", p.Method, v.Kind))
	}
	if currency.Code(v.Currency) != p.Currency {
		return v, apperr.Validation("account_id", fmt.Sprintf("hesap para birimi %s, ödeme %s", v.Currency, p.Currency))
	}
	return v, nil
}

// postCurrent açık hesap ödemesini cari hesaba borç olarak yazar.
func postCurrent(tx *gorm.DB, saleID uint, fs sale.FinalizedSale, p payment.Record) error {
	if fs.CurrentID == nil {
		return sale.ErrCurrentRequired
	}

	var cur models.Current
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cur, "id = ?", *fs.CurrentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("cari hesap", *fs.CurrentID)
	}
	if err != nil {
		return fmt.Errorf("cari hesap okunamadı: %w", err)
	}
	if currency.Code(cur.Currency) != p.Currency {
		return apperr.Validation("current_id", fmt.Sprintf("cari hesap para birimi %s, ödeme %s", cur.Currency, p.Currency))
	}

	sid := saleID
	mov := models.CurrentMovement{
		CurrentID:   cur.ID,
		SaleID:      &sid,
		Date:        fs.FinalizedAt,
		Debit:       p.Amount,
		Currency:    string(p.Currency),
		Description: "Satış " + fs.SessionID,
	}
	if err := tx.Create(&mov).Error; err != nil {
		return fmt.Errorf("cari hareket kaydedilemedi: %w", err)
	}
	return tx.Model(&cur).Update("balance", gorm.Expr("balance + ?", p.Amount)).Error
}

func collectionDescription(p payment.Record) string {
	if p.Description != "" {
		return p.Description
	}
	return "Satış tahsilatı (" + string(p.Method) + ")"
}
