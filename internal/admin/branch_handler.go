package admin

import (
	"errors"
	"strings"

	"kasa-backend/internal/audit"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// Şifre tutulmaz; kullanıcı token'ı kasactl ile üretilir.
type CreateBranchUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type BranchUserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	BranchID  *uint  `json:"branch_id"`
	CreatedAt string `json:"created_at"`
}

func toBranchResponse(b models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// ŞUBE CRUD
// ----------------------------------------

func CreateBranchHandler(db *gorm.DB, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
		}

		branch := models.Branch{
			Name:    body.Name,
			Address: strings.TrimSpace(body.Address),
		}
		if err := db.WithContext(c.UserContext()).Create(&branch).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Bu isimde bir şube zaten var")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Şube oluşturulamadı")
		}

		writeLog(c, al, audit.LogOptions{
			BranchID:    &branch.ID,
			EntityType:  "branch",
			EntityID:    branch.ID,
			Action:      models.AuditActionCreate,
			Description: "Şube eklendi: " + branch.Name,
			After:       toBranchResponse(branch),
		})

		return c.Status(fiber.StatusCreated).JSON(toBranchResponse(branch))
	}
}

func ListBranchesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := db.WithContext(c.UserContext()).Order("name ASC").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler listelenemedi")
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, toBranchResponse(b))
		}
		return c.JSON(res)
	}
}

func UpdateBranchHandler(db *gorm.DB, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
		}

		branch, err := findBranch(c, db)
		if err != nil {
			return err
		}
		before := toBranchResponse(branch)

		if body.Name != nil {
			branch.Name = strings.TrimSpace(*body.Name)
		}
		if body.Address != nil {
			branch.Address = strings.TrimSpace(*body.Address)
		}

		err = db.WithContext(c.UserContext()).Model(&branch).Updates(map[string]any{
			"name":    branch.Name,
			"address": branch.Address,
		}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Bu isimde bir şube zaten var")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Şube güncellenemedi")
		}

		writeLog(c, al, audit.LogOptions{
			BranchID:    &branch.ID,
			EntityType:  "branch",
			EntityID:    branch.ID,
			Action:      models.AuditActionUpdate,
			Description: "Şube güncellendi: " + branch.Name,
			Before:      before,
			After:       toBranchResponse(branch),
		})

		return c.JSON(toBranchResponse(branch))
	}
}

// ----------------------------------------
// ŞUBE KULLANICILARI
// ----------------------------------------

// POST /api/admin/branches/:id/users
func CreateBranchUserHandler(db *gorm.DB, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" || body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim ve email zorunlu")
		}
		if !strings.Contains(body.Email, "@") {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz email")
		}

		branch, err := findBranch(c, db)
		if err != nil {
			return err
		}

		user := models.User{
			Name:     body.Name,
			Email:    body.Email,
			Role:     models.RoleBranchAdmin,
			BranchID: &branch.ID,
		}
		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Bu email zaten kayıtlı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Şube kullanıcısı oluşturulamadı")
		}

		resp := toBranchUserResponse(user)
		writeLog(c, al, audit.LogOptions{
			BranchID:    &branch.ID,
			EntityType:  "user",
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: "Şube kullanıcısı eklendi: " + user.Email,
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/admin/branches/:id/users
func ListBranchUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c, db)
		if err != nil {
			return err
		}

		var users []models.User
		if err := db.WithContext(c.UserContext()).
			Where("branch_id = ?", branch.ID).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}

		res := make([]BranchUserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, toBranchUserResponse(u))
		}
		return c.JSON(res)
	}
}

func toBranchUserResponse(u models.User) BranchUserResponse {
	return BranchUserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		BranchID:  u.BranchID,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func findBranch(c *fiber.Ctx, db *gorm.DB) (models.Branch, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.Branch{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz şube id")
	}

	var b models.Branch
	err = db.WithContext(c.UserContext()).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b, fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
	}
	if err != nil {
		return b, fiber.NewError(fiber.StatusInternalServerError, "Şube okunamadı")
	}
	return b, nil
}
