package admin

import (
	"errors"
	"fmt"
	"strings"

	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateCurrentRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	BranchID *uint  `json:"branch_id"`
}

type CurrentResponse struct {
	ID        uint            `json:"id"`
	BranchID  uint            `json:"branch_id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt string          `json:"created_at"`
}

func toCurrentResponse(cur models.Current) CurrentResponse {
	return CurrentResponse{
		ID:        cur.ID,
		BranchID:  cur.BranchID,
		Name:      cur.Name,
		Currency:  cur.Currency,
		Balance:   cur.Balance,
		CreatedAt: cur.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// -------------------------------------------------
// POST /api/admin/currents
// -------------------------------------------------
func CreateCurrentHandler(db *gorm.DB, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCurrentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunlu")
		}
		code, err := currency.Parse(body.Currency)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz para birimi")
		}

		branchID, err := auth.BranchFromBody(c, body.BranchID)
		if err != nil {
			return err
		}

		cur := models.Current{
			BranchID: branchID,
			Name:     body.Name,
			Currency: string(code),
			Balance:  decimal.Zero,
		}
		if err := db.WithContext(c.UserContext()).Create(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Cari hesap oluşturulamadı")
		}

		writeLog(c, al, audit.LogOptions{
			BranchID:    &branchID,
			EntityType:  "current",
			EntityID:    cur.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Cari hesap eklendi: %s (%s)", cur.Name, cur.Currency),
			After:       toCurrentResponse(cur),
		})

		return c.Status(fiber.StatusCreated).JSON(toCurrentResponse(cur))
	}
}

// -------------------------------------------------
// GET /api/admin/currents
// -------------------------------------------------
func ListCurrentsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.BranchFromQuery(c)
		if err != nil {
			return err
		}

		q := db.WithContext(c.UserContext()).Where("branch_id = ?", branchID)
		if s := strings.TrimSpace(c.Query("q")); s != "" {
			q = q.Where("name ILIKE ?", "%"+s+"%")
		}

		var list []models.Current
		if err := q.Order("name ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cari hesaplar listelenemedi")
		}

		resp := make([]CurrentResponse, 0, len(list))
		for _, cur := range list {
			resp = append(resp, toCurrentResponse(cur))
		}
		return c.JSON(resp)
	}
}
