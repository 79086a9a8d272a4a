package auth

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTMiddleware(testSecret))
	app.Get("/me", MeHandler())
	app.Get("/admin", RequireRole(models.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/branch", func(c *fiber.Ctx) error {
		bid, err := BranchFromQuery(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"branch_id": bid})
	})
	return app
}

func request(t *testing.T, app *fiber.App, path, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestTokenRoundTrip(t *testing.T) {
	branch := uint(4)
	tok, err := GenerateToken(testSecret, Identity{UserID: 7, Name: "Ayşe", Role: models.RoleBranchAdmin, BranchID: &branch}, time.Hour)
	require.NoError(t, err)

	status, body := request(t, newApp(), "/me", tok)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(7), body["user_id"])
	assert.Equal(t, "Ayşe", body["name"])
	assert.Equal(t, float64(4), body["branch_id"])
}

func TestMissingAndInvalidToken(t *testing.T) {
	app := newApp()

	status, _ := request(t, app, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	other, err := GenerateToken("another-secret-another-secret-xx", Identity{UserID: 1, Role: models.RoleSuperAdmin}, time.Hour)
	require.NoError(t, err)
	status, _ = request(t, app, "/me", other)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequireRole(t *testing.T) {
	branch := uint(1)
	branchTok, _ := GenerateToken(testSecret, Identity{UserID: 2, Role: models.RoleBranchAdmin, BranchID: &branch}, time.Hour)
	adminTok, _ := GenerateToken(testSecret, Identity{UserID: 1, Role: models.RoleSuperAdmin}, time.Hour)

	app := newApp()
	status, _ := request(t, app, "/admin", branchTok)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = request(t, app, "/admin", adminTok)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestBranchResolution(t *testing.T) {
	branch := uint(3)
	branchTok, _ := GenerateToken(testSecret, Identity{UserID: 2, Role: models.RoleBranchAdmin, BranchID: &branch}, time.Hour)
	adminTok, _ := GenerateToken(testSecret, Identity{UserID: 1, Role: models.RoleSuperAdmin}, time.Hour)
	app := newApp()

	// şube yöneticisi query'yi yok sayar
	status, body := request(t, app, "/branch?branch_id=9", branchTok)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), body["branch_id"])

	status, body = request(t, app, "/branch?branch_id=9", adminTok)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(9), body["branch_id"])

	status, _ = request(t, app, "/branch", adminTok)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
