package sale

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/models"
	"kasa-backend/internal/rates"
	"kasa-backend/internal/xlsx"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeAudit struct {
	logs []audit.LogOptions
}

func (f *fakeAudit) WriteLog(_ context.Context, opts audit.LogOptions) error {
	f.logs = append(f.logs, opts)
	return nil
}

type testUser struct {
	role   models.UserRole
	branch *uint
}

func newSaleApp(svc *Service, al audit.Logger, u *testUser) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserNameKey, "Ayşe")
		c.Locals(auth.CtxUserRoleKey, u.role)
		c.Locals(auth.CtxBranchIDKey, u.branch)
		return c.Next()
	})

	s := app.Group("/sales")
	s.Post("/quote", QuoteHandler(svc))
	s.Post("/sessions", OpenSessionHandler(svc))
	s.Get("/sessions/:id", GetSessionHandler(svc))
	s.Delete("/sessions/:id", DiscardSessionHandler(svc))
	s.Post("/sessions/:id/payments", AddPaymentHandler(svc))
	s.Patch("/sessions/:id/payments/:pid", EditPaymentHandler(svc))
	s.Delete("/sessions/:id/payments/:pid", RemovePaymentHandler(svc))
	s.Post("/sessions/:id/finalize", FinalizeHandler(svc, al))
	s.Get("/sessions/:id/export", ExportSessionHandler(svc))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

const openBody = `{"branch_id":1,"items":[{"id":"P-1","quantity":2,"unit_price":"500","currency":"TRY"}]}`

func TestSaleHandlersFlow(t *testing.T) {
	w := &fakeWriter{}
	al := &fakeAudit{}
	svc := NewService(rates.Static(testRates), w, nil, zerolog.Nop(), 10, time.Hour)
	app := newSaleApp(svc, al, &testUser{role: models.RoleSuperAdmin})

	status, raw := call(t, app, "POST", "/sales/sessions", openBody)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var sum Summary
	require.NoError(t, json.Unmarshal(raw, &sum))
	base := "/sales/sessions/" + sum.SessionID

	status, raw = call(t, app, "POST", base+"/finalize", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(raw), "Eksik ödeme")

	status, raw = call(t, app, "POST", base+"/payments", `{"method":"cash","amount":"600","account_id":"3"}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var pr PaymentResponse
	require.NoError(t, json.Unmarshal(raw, &pr))
	assert.Equal(t, "400", pr.Summary.Remaining.String())

	status, _ = call(t, app, "PATCH", base+"/payments/"+pr.Payment.ID, `{"amount":"1000"}`)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, "PATCH", base+"/payments/missing", `{"amount":"1"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, raw = call(t, app, "POST", base+"/payments", `{"method":"cash","amount":"10","account_id":"3","currency":"USD"}`)
	assert.Equal(t, fiber.StatusBadRequest, status, string(raw))

	status, raw = call(t, app, "POST", base+"/finalize", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var fr FinalizeResponse
	require.NoError(t, json.Unmarshal(raw, &fr))
	assert.Equal(t, uint(1), fr.SaleID)
	assert.True(t, fr.Summary.Finalized)

	require.Len(t, al.logs, 1)
	assert.Equal(t, models.AuditActionFinalize, al.logs[0].Action)
	assert.Equal(t, sum.SessionID, al.logs[0].Reference)
	assert.Equal(t, "Satış kesinleşti: 1000.00 TRY", al.logs[0].Description)

	status, _ = call(t, app, "POST", base+"/finalize", "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, app, "DELETE", base+"/payments/"+pr.Payment.ID, "")
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestSaleHandlersBranchScope(t *testing.T) {
	svc := NewService(rates.Static(testRates), &fakeWriter{}, nil, zerolog.Nop(), 10, time.Hour)

	admin := newSaleApp(svc, &fakeAudit{}, &testUser{role: models.RoleSuperAdmin})
	status, raw := call(t, admin, "POST", "/sales/sessions", openBody)
	require.Equal(t, fiber.StatusCreated, status)
	var sum Summary
	require.NoError(t, json.Unmarshal(raw, &sum))

	other := uint(2)
	branchApp := newSaleApp(svc, &fakeAudit{}, &testUser{role: models.RoleBranchAdmin, branch: &other})
	status, _ = call(t, branchApp, "GET", "/sales/sessions/"+sum.SessionID, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	// branch_admin gövdedeki şubeyi değil kendi şubesini kullanır
	status, raw = call(t, branchApp, "POST", "/sales/sessions", openBody)
	require.Equal(t, fiber.StatusCreated, status)
	var own Summary
	require.NoError(t, json.Unmarshal(raw, &own))
	assert.Equal(t, uint(2), own.BranchID)

	status, _ = call(t, admin, "POST", "/sales/sessions", `{"items":[{"id":"P-1","quantity":1,"unit_price":1,"currency":"TRY"}]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, admin, "GET", "/sales/sessions/unknown", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(t, admin, "DELETE", "/sales/sessions/"+sum.SessionID, "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = call(t, admin, "GET", "/sales/sessions/"+sum.SessionID, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestQuoteHandler(t *testing.T) {
	svc := NewService(rates.Static(testRates), &fakeWriter{}, nil, zerolog.Nop(), 10, time.Hour)
	app := newSaleApp(svc, &fakeAudit{}, &testUser{role: models.RoleSuperAdmin})

	status, raw := call(t, app, "POST", "/sales/quote", `{
		"items":[{"id":"A","quantity":1,"unit_price":100,"currency":"USD"}],
		"expenses":[{"id":"gumruk","price":"35","currency":"EUR"}],
		"payments":[{"method":"card","amount":"50","account_id":"9"}]
	}`)
	require.Equal(t, fiber.StatusOK, status, string(raw))

	var sum Summary
	require.NoError(t, json.Unmarshal(raw, &sum))
	// 35 EUR = 1225 TRY = 40.8333 USD
	assert.Equal(t, "40.83", sum.Totals.TotalExpenses.String())
	assert.Equal(t, "140.83", sum.Totals.GrandTotal.String())
	assert.Equal(t, "90.83", sum.Remaining.String())
	assert.Equal(t, 0, svc.Len())

	status, _ = call(t, app, "POST", "/sales/quote", `{"items":[{"id":"A","quantity":1,"unit_price":1,"currency":"JPY"}]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestExportSessionHandler(t *testing.T) {
	svc := NewService(rates.Static(testRates), &fakeWriter{}, nil, zerolog.Nop(), 10, time.Hour)
	app := newSaleApp(svc, &fakeAudit{}, &testUser{role: models.RoleSuperAdmin})

	status, raw := call(t, app, "POST", "/sales/sessions", openBody)
	require.Equal(t, fiber.StatusCreated, status)
	var sum Summary
	require.NoError(t, json.Unmarshal(raw, &sum))

	resp, err := app.Test(httptest.NewRequest("GET", "/sales/sessions/"+sum.SessionID+"/export", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsx.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "satis-"+sum.SessionID)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Satırlar", "Tahsilat"}, f.GetSheetList())
}
