package sale

import (
	"bytes"
	"fmt"
	"strings"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/invoice"
	"kasa-backend/internal/models"
	"kasa-backend/internal/payment"
	"kasa-backend/internal/xlsx"

	"github.com/gofiber/fiber/v2"
)

type OpenSessionRequest struct {
	// super_admin için zorunlu, branch_admin için token'dan gelir
	BranchID  *uint                 `json:"branch_id"`
	CurrentID *uint                 `json:"current_id"`
	Items     []invoice.LineItem    `json:"items"`
	Expenses  []invoice.ExpenseItem `json:"expenses"`
}

type QuoteRequest struct {
	Items    []invoice.LineItem    `json:"items"`
	Expenses []invoice.ExpenseItem `json:"expenses"`
	Payments []payment.Input       `json:"payments"`
}

type PaymentResponse struct {
	Payment payment.Record `json:"payment"`
	Summary Summary        `json:"summary"`
}

type FinalizeResponse struct {
	SaleID  uint    `json:"sale_id"`
	Summary Summary `json:"summary"`
}

// -------------------------
// Yardımcı: oturumu bul ve şube yetkisini kontrol et
// -------------------------
func sessionFor(c *fiber.Ctx, svc *Service) (*Session, error) {
	sess, err := svc.Get(c.Params("id"))
	if err != nil {
		return nil, apperr.ToFiber(err)
	}
	if err := auth.CanAccessBranch(c, sess.BranchID()); err != nil {
		return nil, err
	}
	return sess, nil
}

// -------------------------------------------------
// POST /api/sales/sessions
// -------------------------------------------------
func OpenSessionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpenSessionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		branchID, err := auth.BranchFromBody(c, body.BranchID)
		if err != nil {
			return err
		}

		sum, err := svc.Open(c.UserContext(), Draft{
			BranchID:  branchID,
			CurrentID: body.CurrentID,
			Items:     body.Items,
			Expenses:  body.Expenses,
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(sum)
	}
}

// -------------------------------------------------
// GET /api/sales/sessions/:id
// -------------------------------------------------
func GetSessionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessionFor(c, svc)
		if err != nil {
			return err
		}
		sum, err := sess.Summary()
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(sum)
	}
}

// -------------------------------------------------
// DELETE /api/sales/sessions/:id
// -------------------------------------------------
func DiscardSessionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := sessionFor(c, svc); err != nil {
			return err
		}
		if err := svc.Discard(c.Params("id")); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// POST /api/sales/sessions/:id/payments
// -------------------------------------------------
func AddPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := sessionFor(c, svc); err != nil {
			return err
		}

		var body payment.Input
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		rec, sum, err := svc.AddPayment(c.UserContext(), c.Params("id"), body)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(PaymentResponse{Payment: rec, Summary: sum})
	}
}

// -------------------------------------------------
// PATCH /api/sales/sessions/:id/payments/:pid
// -------------------------------------------------
func EditPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := sessionFor(c, svc); err != nil {
			return err
		}

		var body payment.Update
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		rec, sum, err := svc.EditPayment(c.UserContext(), c.Params("id"), c.Params("pid"), body)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(PaymentResponse{Payment: rec, Summary: sum})
	}
}

// -------------------------------------------------
// DELETE /api/sales/sessions/:id/payments/:pid
// -------------------------------------------------
func RemovePaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := sessionFor(c, svc); err != nil {
			return err
		}
		sum, err := svc.RemovePayment(c.UserContext(), c.Params("id"), c.Params("pid"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(sum)
	}
}

// -------------------------------------------------
// POST /api/sales/sessions/:id/finalize
// -------------------------------------------------
func FinalizeHandler(svc *Service, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if _, err := sessionFor(c, svc); err != nil {
			return err
		}

		fs, sum, err := svc.Finalize(c.UserContext(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}

		branchID := fs.BranchID
		if err := al.WriteLog(c.UserContext(), audit.LogOptions{
			BranchID:    &branchID,
			UserID:      user.UserID,
			UserName:    user.Name,
			EntityType:  "sale",
			EntityID:    sum.SaleID,
			Reference:   fs.SessionID,
			Action:      models.AuditActionFinalize,
			Description: fmt.Sprintf("Satış kesinleşti: %s %s", currency.Round(fs.Totals.GrandTotal).StringFixed(2), fs.Totals.Currency),
			After:       fs,
		}); err != nil {
			svc.log.Error().Err(err).Str("session_id", fs.SessionID).Msg("audit log yazılamadı")
		}

		return c.JSON(FinalizeResponse{SaleID: sum.SaleID, Summary: sum})
	}
}

// -------------------------------------------------
// GET /api/sales/sessions/:id/export
// -------------------------------------------------
func ExportSessionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessionFor(c, svc)
		if err != nil {
			return err
		}
		sum, err := sess.Summary()
		if err != nil {
			return apperr.ToFiber(err)
		}

		var buf bytes.Buffer
		if err := xlsx.WriteSale(&buf, xlsx.SaleSheet{
			Title:     "Satış " + sum.SessionID,
			Items:     sum.Items,
			Expenses:  sum.Expenses,
			Totals:    sum.Totals,
			Payments:  sum.Payments,
			TotalPaid: sum.TotalPaid,
			Remaining: sum.Remaining,
		}); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		c.Attachment(xlsx.FileName("satis", sum.SessionID))
		c.Set(fiber.HeaderContentType, xlsx.ContentType)
		return c.Send(buf.Bytes())
	}
}

// -------------------------------------------------
// POST /api/sales/quote
// -------------------------------------------------
func QuoteHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body QuoteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		sum, err := svc.Quote(c.UserContext(), Draft{Items: body.Items, Expenses: body.Expenses}, body.Payments)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(sum)
	}
}

// -------------------------------------------------
// POST /api/sales/import-lines
// XLSX dosyasındaki satırları okur, oturum açmadan döner
// -------------------------------------------------
func ImportLinesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		def := currency.Base
		if s := c.FormValue("currency"); s != "" {
			if def, err = currency.Parse(s); err != nil {
				return apperr.ToFiber(err)
			}
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		items, err := xlsx.ReadLineItems(file, def)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		for i, it := range items {
			if err := it.Validate(); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Satır %d: %v", i+1, err))
			}
		}
		return c.JSON(fiber.Map{"items": items})
	}
}
