package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu       sync.Mutex
	refs     []Ref
	fail     models.AccountKind
	branches []uint
}

func (f *fakeLister) ListAccounts(_ context.Context, branchID uint, kind models.AccountKind) ([]Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branches = append(f.branches, branchID)
	if kind == f.fail {
		return nil, &apperr.NetworkError{Op: "GET /accounts", Status: 500, Err: errors.New("boom")}
	}
	var out []Ref
	for _, r := range f.refs {
		if r.Kind == kind && (branchID == 0 || r.BranchID == branchID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func sampleRefs() []Ref {
	return []Ref{
		{ID: 1, BranchID: 1, Kind: models.AccountKindCash, Name: "TL Kasa", Currency: currency.TRY},
		{ID: 2, BranchID: 1, Kind: models.AccountKindCash, Name: "Dolar Kasa", Currency: currency.USD},
		{ID: 3, BranchID: 1, Kind: models.AccountKindBank, Name: "Ziraat", Currency: currency.TRY},
		{ID: 4, BranchID: 2, Kind: models.AccountKindPOS, Name: "POS", Currency: currency.TRY},
	}
}

func TestListAllGroupsAndSorts(t *testing.T) {
	all, err := ListAll(context.Background(), &fakeLister{refs: sampleRefs()}, 1)
	require.NoError(t, err)

	require.Len(t, all[models.AccountKindCash], 2)
	assert.Equal(t, "Dolar Kasa", all[models.AccountKindCash][0].Name)
	assert.Len(t, all[models.AccountKindBank], 1)
	assert.NotNil(t, all[models.AccountKindPOS])
	assert.Empty(t, all[models.AccountKindPOS])
}

func TestListAllFailsWhenAnyKindFails(t *testing.T) {
	_, err := ListAll(context.Background(), &fakeLister{refs: sampleRefs(), fail: models.AccountKindBank}, 1)
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func newAccountApp(l Lister, role models.UserRole, branch *uint) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserRoleKey, role)
		c.Locals(auth.CtxBranchIDKey, branch)
		return c.Next()
	})
	app.Get("/accounts", ListAccountsHandler(l))
	return app
}

func TestListAccountsHandler(t *testing.T) {
	l := &fakeLister{refs: sampleRefs()}
	app := newAccountApp(l, models.RoleSuperAdmin, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/accounts?kind=pos", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var refs []Ref
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&refs))
	require.Len(t, refs, 1)
	assert.Equal(t, uint(2), refs[0].BranchID)

	resp, err = app.Test(httptest.NewRequest("GET", "/accounts?kind=safe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/accounts", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var all map[models.AccountKind][]Ref
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	assert.Len(t, all, 3)
}

func TestListAccountsHandlerBranchAdminScope(t *testing.T) {
	l := &fakeLister{refs: sampleRefs()}
	branch := uint(1)
	app := newAccountApp(l, models.RoleBranchAdmin, &branch)

	resp, err := app.Test(httptest.NewRequest("GET", "/accounts?kind=pos&branch_id=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var refs []Ref
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&refs))
	assert.Empty(t, refs)
	assert.Equal(t, []uint{1}, l.branches)
}
