package account

import (
	"kasa-backend/internal/apperr"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Yardımcı: şube filtresi
// super_admin branch_id vermezse tüm şubeler listelenir
// -------------------------
func branchFilter(c *fiber.Ctx) (uint, error) {
	id, err := auth.CurrentUser(c)
	if err != nil {
		return 0, err
	}
	if id.Role == models.RoleSuperAdmin && c.Query("branch_id") == "" {
		return 0, nil
	}
	return auth.BranchFromQuery(c)
}

// -------------------------------------------------
// GET /api/accounts?kind=cash|bank|pos&branch_id=1
// -------------------------------------------------
func ListAccountsHandler(l Lister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := branchFilter(c)
		if err != nil {
			return err
		}

		kind := models.AccountKind(c.Query("kind"))
		if kind == "" {
			all, err := ListAll(c.UserContext(), l, branchID)
			if err != nil {
				return apperr.ToFiber(err)
			}
			return c.JSON(all)
		}
		if !kind.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz hesap türü (cash|bank|pos)")
		}

		refs, err := l.ListAccounts(c.UserContext(), branchID, kind)
		if err != nil {
			return apperr.ToFiber(err)
		}
		if refs == nil {
			refs = []Ref{}
		}
		return c.JSON(refs)
	}
}
