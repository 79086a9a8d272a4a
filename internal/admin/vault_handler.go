package admin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/logger"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateVaultRequest struct {
	Kind           models.AccountKind `json:"kind"` // cash / bank / pos
	Name           string             `json:"name"`
	Currency       string             `json:"currency"`
	AccountNumber  string             `json:"account_number"`
	OpeningBalance *decimal.Decimal   `json:"opening_balance"`
	BranchID       *uint              `json:"branch_id"` // super_admin için
}

// Bakiye burada değişmez; hareketlerle değişir.
type UpdateVaultRequest struct {
	Name          *string `json:"name"`
	AccountNumber *string `json:"account_number"`
	IsActive      *bool   `json:"is_active"`
}

type VaultResponse struct {
	ID            uint               `json:"id"`
	BranchID      uint               `json:"branch_id"`
	Kind          models.AccountKind `json:"kind"`
	Name          string             `json:"name"`
	Currency      string             `json:"currency"`
	Balance       decimal.Decimal    `json:"balance"`
	AccountNumber string             `json:"account_number"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
}

func toVaultResponse(v models.Vault) VaultResponse {
	return VaultResponse{
		ID:            v.ID,
		BranchID:      v.BranchID,
		Kind:          v.Kind,
		Name:          v.Name,
		Currency:      v.Currency,
		Balance:       v.Balance,
		AccountNumber: v.AccountNumber,
		IsActive:      v.IsActive,
		CreatedAt:     v.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:     v.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (r *CreateVaultRequest) validate() (currency.Code, error) {
	if !r.Kind.Valid() {
		return "", fiber.NewError(fiber.StatusBadRequest, "kind 'cash', 'bank' veya 'pos' olmalı")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "name zorunlu")
	}
	code, err := currency.Parse(r.Currency)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Geçersiz para birimi")
	}
	if r.OpeningBalance != nil && r.OpeningBalance.IsNegative() {
		return "", fiber.NewError(fiber.StatusBadRequest, "opening_balance negatif olamaz")
	}
	return code, nil
}

// -------------------------------------------------
// POST /api/admin/vaults
// -------------------------------------------------
func CreateVaultHandler(db *gorm.DB, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateVaultRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		code, err := body.validate()
		if err != nil {
			return err
		}

		branchID, err := auth.BranchFromBody(c, body.BranchID)
		if err != nil {
			return err
		}

		v := models.Vault{
			BranchID:      branchID,
			Kind:          body.Kind,
			Name:          body.Name,
			Currency:      string(code),
			Balance:       decimal.Zero,
			AccountNumber: strings.TrimSpace(body.AccountNumber),
			IsActive:      true,
		}

		// Açılış bakiyesi de bir hareket olarak yazılır
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&v).Error; err != nil {
				return err
			}
			if body.OpeningBalance == nil || body.OpeningBalance.IsZero() {
				return nil
			}
			mov := models.VaultMovement{
				BranchID:     branchID,
				VaultID:      v.ID,
				Date:         time.Now(),
				Direction:    models.DirectionIn,
				MovementType: models.MovementOpening,
				DocumentType: models.DocumentOpening,
				Entering:     *body.OpeningBalance,
				Emerging:     decimal.Zero,
				Currency:     v.Currency,
				Description:  "Açılış bakiyesi",
			}
			if err := tx.Create(&mov).Error; err != nil {
				return err
			}
			v.Balance = *body.OpeningBalance
			return tx.Model(&v).Update("balance", v.Balance).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Hesap oluşturulamadı")
		}

		writeLog(c, al, audit.LogOptions{
			BranchID:    &branchID,
			EntityType:  "vault",
			EntityID:    v.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Hesap eklendi: %s - %s (%s)", v.Kind, v.Name, v.Currency),
			After:       toVaultResponse(v),
		})

		return c.Status(fiber.StatusCreated).JSON(toVaultResponse(v))
	}
}

// -------------------------------------------------
// GET /api/admin/vaults
// -------------------------------------------------
func ListVaultsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.BranchFromQuery(c)
		if err != nil {
			return err
		}

		q := db.WithContext(c.UserContext()).Where("branch_id = ?", branchID)
		if k := models.AccountKind(c.Query("kind")); k != "" {
			if !k.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "kind geçersiz")
			}
			q = q.Where("kind = ?", k)
		}

		var vaults []models.Vault
		if err := q.Order("kind ASC, name ASC").Find(&vaults).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hesaplar listelenemedi")
		}

		resp := make([]VaultResponse, 0, len(vaults))
		for _, v := range vaults {
			resp = append(resp, toVaultResponse(v))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// PUT /api/admin/vaults/:id
// -------------------------------------------------
func UpdateVaultHandler(db *gorm.DB, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateVaultRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
		}

		v, err := findVault(c, db)
		if err != nil {
			return err
		}
		before := toVaultResponse(v)

		if body.Name != nil {
			v.Name = strings.TrimSpace(*body.Name)
		}
		if body.AccountNumber != nil {
			v.AccountNumber = strings.TrimSpace(*body.AccountNumber)
		}
		if body.IsActive != nil {
			v.IsActive = *body.IsActive
		}

		err = db.WithContext(c.UserContext()).Model(&v).Updates(map[string]any{
			"name":           v.Name,
			"account_number": v.AccountNumber,
			"is_active":      v.IsActive,
		}).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hesap güncellenemedi")
		}

		writeLog(c, al, audit.LogOptions{
			BranchID:    &v.BranchID,
			EntityType:  "vault",
			EntityID:    v.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Hesap güncellendi: %s", v.Name),
			Before:      before,
			After:       toVaultResponse(v),
		})

		return c.JSON(toVaultResponse(v))
	}
}

// -------------------------------------------------
// DELETE /api/admin/vaults/:id
// -------------------------------------------------
func DeleteVaultHandler(db *gorm.DB, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := findVault(c, db)
		if err != nil {
			return err
		}

		// Hareketler değiştirilemez; hareketi olan hesap ancak pasife alınır
		var count int64
		if err := db.WithContext(c.UserContext()).Model(&models.VaultMovement{}).
			Where("vault_id = ?", v.ID).Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hesap hareketleri okunamadı")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu hesaba ait hareketler var, hesabı pasife alın")
		}

		if err := db.WithContext(c.UserContext()).Delete(&v).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hesap silinemedi")
		}

		writeLog(c, al, audit.LogOptions{
			BranchID:    &v.BranchID,
			EntityType:  "vault",
			EntityID:    v.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Hesap silindi: %s", v.Name),
			Before:      toVaultResponse(v),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Yardımcı: hesabı bul ve şube yetkisini kontrol et
// -------------------------
func findVault(c *fiber.Ctx, db *gorm.DB) (models.Vault, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.Vault{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz hesap id")
	}

	var v models.Vault
	err = db.WithContext(c.UserContext()).First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v, fiber.NewError(fiber.StatusNotFound, "Hesap bulunamadı")
	}
	if err != nil {
		return v, fiber.NewError(fiber.StatusInternalServerError, "Hesap okunamadı")
	}
	if err := auth.CanAccessBranch(c, v.BranchID); err != nil {
		return v, err
	}
	return v, nil
}

// -------------------------
// Yardımcı: audit kaydı (hata isteği bozmaz)
// -------------------------
func writeLog(c *fiber.Ctx, al audit.Logger, opts audit.LogOptions) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	opts.UserID = user.UserID
	opts.UserName = user.Name
	if err := al.WriteLog(c.UserContext(), opts); err != nil {
		l := logger.WithComponent("admin")
		l.Error().Err(err).
			Str("entity", opts.EntityType).Uint("entity_id", opts.EntityID).
			Msg("audit log yazılamadı")
	}
}
