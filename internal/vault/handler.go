package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"
	"kasa-backend/internal/xlsx"

	"github.com/gofiber/fiber/v2"
)

// RateSource virmanda çeviri gerektiğinde güncel kurları verir.
type RateSource interface {
	Rates(ctx context.Context) (currency.RateTable, error)
}

type TransferErrorResponse struct {
	Error      string `json:"error"`
	Ref        string `json:"ref"`
	State      State  `json:"state"`
	DebitID    uint   `json:"debit_movement_id,omitempty"`
	ReversalID uint   `json:"reversal_movement_id,omitempty"`
}

type MovementResponse struct {
	ID           uint                     `json:"id"`
	Date         string                   `json:"date"`
	Direction    models.MovementDirection `json:"direction"`
	MovementType models.MovementType      `json:"movement_type"`
	DocumentType models.DocumentType      `json:"document_type"`
	Entering     string                   `json:"entering"`
	Emerging     string                   `json:"emerging"`
	Currency     currency.Code            `json:"currency"`
	Description  string                   `json:"description"`
	Reference    string                   `json:"reference"`
}

// -------------------------------------------------
// POST /api/vault-transfers
// -------------------------------------------------
func TransferHandler(o *Orchestrator, rs RateSource, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body TransferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.SourceID == 0 || body.TargetID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Kaynak ve hedef kasa zorunlu")
		}

		ctx := c.UserContext()
		for _, id := range []uint{body.SourceID, body.TargetID} {
			v, err := o.vaults.GetVault(ctx, id)
			if err != nil {
				return apperr.ToFiber(err)
			}
			if err := auth.CanAccessBranch(c, v.BranchID); err != nil {
				return err
			}
		}

		var tbl currency.RateTable
		if body.ConvertIfNeeded {
			if tbl, err = rs.Rates(ctx); err != nil {
				return apperr.ToFiber(err)
			}
		}

		res, err := o.Transfer(ctx, body, tbl)
		te, failed := IsTransferError(err)
		if err != nil && !failed {
			return apperr.ToFiber(err)
		}

		o.Audit(ctx, al, user, res, err)

		if failed {
			status := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(apperr.ToFiber(te.Err), &fe) {
				status = fe.Code
			}
			return c.Status(status).JSON(TransferErrorResponse{
				Error:      te.Error(),
				Ref:        te.Ref,
				State:      te.State,
				DebitID:    res.DebitID,
				ReversalID: res.ReversalID,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// -------------------------
// Yardımcı: hareket filtresi
// -------------------------
func movementFilter(c *fiber.Ctx) (MovementFilter, error) {
	f := MovementFilter{Limit: c.QueryInt("limit", 500)}
	if s := c.Query("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
		}
		f.From = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
		}
		// gün sonuna kadar dahil
		f.To = t.AddDate(0, 0, 1)
	}
	return f, nil
}

func loadMovements(c *fiber.Ctx, r Resolver, l MovementLister) (Vault, []Entry, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return Vault{}, nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz kasa id")
	}
	f, err := movementFilter(c)
	if err != nil {
		return Vault{}, nil, err
	}

	v, err := r.GetVault(c.UserContext(), uint(id))
	if err != nil {
		return Vault{}, nil, apperr.ToFiber(err)
	}
	if err := auth.CanAccessBranch(c, v.BranchID); err != nil {
		return Vault{}, nil, err
	}

	entries, err := l.ListMovements(c.UserContext(), v.ID, f)
	if err != nil {
		return Vault{}, nil, apperr.ToFiber(err)
	}
	return v, entries, nil
}

// -------------------------------------------------
// GET /api/vaults/:id/movements?from=2025-01-01&to=2025-01-31
// -------------------------------------------------
func ListMovementsHandler(r Resolver, l MovementLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, entries, err := loadMovements(c, r, l)
		if err != nil {
			return err
		}

		resp := make([]MovementResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, MovementResponse{
				ID:           e.ID,
				Date:         e.Date.Format("2006-01-02 15:04:05"),
				Direction:    e.Direction,
				MovementType: e.Type,
				DocumentType: e.Document,
				Entering:     currency.Round(e.Entering).StringFixed(2),
				Emerging:     currency.Round(e.Emerging).StringFixed(2),
				Currency:     e.Currency,
				Description:  e.Description,
				Reference:    e.Reference,
			})
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/vaults/:id/movements/export
// -------------------------------------------------
func ExportMovementsHandler(r Resolver, l MovementLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, entries, err := loadMovements(c, r, l)
		if err != nil {
			return err
		}

		rows := make([]xlsx.MovementRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, xlsx.MovementRow{
				Date:         e.Date,
				MovementType: string(e.Type),
				DocumentType: string(e.Document),
				Entering:     e.Entering,
				Emerging:     e.Emerging,
				Currency:     string(e.Currency),
				Description:  e.Description,
				Reference:    e.Reference,
			})
		}

		var buf bytes.Buffer
		if err := xlsx.WriteMovements(&buf, fmt.Sprintf("%s %s", v.Name, v.Currency), rows); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		c.Attachment(xlsx.FileName("kasa-hareketleri", v.ID))
		c.Set(fiber.HeaderContentType, xlsx.ContentType)
		return c.Send(buf.Bytes())
	}
}
