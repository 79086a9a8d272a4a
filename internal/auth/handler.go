package auth

import (
	"fmt"

	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Yardımcı: Kullanıcı bilgilerini al
// -------------------------
func CurrentUser(c *fiber.Ctx) (Identity, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Identity{}, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Identity{}, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}
	name, _ := c.Locals(CtxUserNameKey).(string)

	var branchID *uint
	if bPtr, ok := c.Locals(CtxBranchIDKey).(*uint); ok && bPtr != nil {
		branchID = bPtr
	}

	return Identity{UserID: userID, Name: name, Role: role, BranchID: branchID}, nil
}

// -------------------------
// Yardımcı: branch ID çöz
// -------------------------

// BranchFromBody şube yöneticisi için token'daki şubeyi, super_admin için gövdedeki branch_id'yi döner.
func BranchFromBody(c *fiber.Ctx, bodyBranchID *uint) (uint, error) {
	id, err := CurrentUser(c)
	if err != nil {
		return 0, err
	}

	if id.Role == models.RoleBranchAdmin {
		if id.BranchID == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		return *id.BranchID, nil
	}

	if bodyBranchID == nil || *bodyBranchID == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
	}
	return *bodyBranchID, nil
}

func BranchFromQuery(c *fiber.Ctx) (uint, error) {
	var bid *uint
	if s := c.Query("branch_id"); s != "" {
		var v uint
		if _, err := fmt.Sscan(s, &v); err != nil || v == 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
		}
		bid = &v
	}
	return BranchFromBody(c, bid)
}

// CanAccessBranch şube yöneticisi yalnız kendi şubesine erişir.
func CanAccessBranch(c *fiber.Ctx, branchID uint) error {
	id, err := CurrentUser(c)
	if err != nil {
		return err
	}
	if id.Role == models.RoleBranchAdmin && (id.BranchID == nil || *id.BranchID != branchID) {
		return fiber.NewError(fiber.StatusForbidden, "Bu kayda erişim yetkiniz yok")
	}
	return nil
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"user_id":   id.UserID,
			"name":      id.Name,
			"role":      id.Role,
			"branch_id": id.BranchID,
		})
	}
}
