package rates

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/events"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatic(t *testing.T) {
	s, err := ParseStatic(" usd:30 , EUR:35.5,")
	require.NoError(t, err)
	assert.Equal(t, "30", s[currency.USD].String())
	assert.Equal(t, "35.5", s[currency.EUR].String())

	_, err = ParseStatic("USD=30")
	assert.Error(t, err)
	_, err = ParseStatic("USD:0")
	assert.Error(t, err)
	_, err = ParseStatic("XYZ:3")
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestStaticReturnsCopy(t *testing.T) {
	s := Static{currency.USD: decimal.NewFromInt(30)}
	tbl, err := s.Rates(context.Background())
	require.NoError(t, err)
	tbl[currency.USD] = decimal.NewFromInt(1)
	assert.Equal(t, "30", s[currency.USD].String())
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Rates(context.Context) (currency.RateTable, error) {
	p.calls++
	return currency.RateTable{currency.USD: decimal.NewFromInt(32)}, nil
}

func TestCachedWithoutRedisPassesThrough(t *testing.T) {
	next := &countingProvider{}
	c := NewCached(nil, next, 0, zerolog.Nop())

	for i := 0; i < 3; i++ {
		tbl, err := c.Rates(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "32", tbl[currency.USD].String())
	}
	assert.Equal(t, 3, next.calls)
	c.Invalidate(context.Background())
}

type memWriter struct {
	saved map[currency.Code]decimal.Decimal
}

func (w *memWriter) SaveRate(_ context.Context, code currency.Code, rate decimal.Decimal) error {
	w.saved[code] = rate
	return nil
}

type invalidations struct{ n int }

func (i *invalidations) Invalidate(context.Context) { i.n++ }

type nopAudit struct{ n int }

func (a *nopAudit) WriteLog(context.Context, audit.LogOptions) error { a.n++; return nil }

func newRatesApp(p Provider, w Writer, inv Invalidator, pub events.Publisher, al audit.Logger) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserRoleKey, models.RoleSuperAdmin)
		return c.Next()
	})
	app.Get("/rates", GetRatesHandler(p))
	app.Put("/rates", UpdateRateHandler(w, inv, pub, al))
	return app
}

func TestRatesHandlers(t *testing.T) {
	w := &memWriter{saved: map[currency.Code]decimal.Decimal{}}
	inv := &invalidations{}
	al := &nopAudit{}
	bus := events.NewBus()
	var got []events.Event
	bus.Subscribe(events.RatesChanged, func(_ context.Context, e events.Event) { got = append(got, e) })

	app := newRatesApp(Static{currency.USD: decimal.NewFromInt(30)}, w, inv, bus, al)

	resp, err := app.Test(httptest.NewRequest("GET", "/rates", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body RatesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, currency.TRY, body.Base)
	assert.Equal(t, "30", body.Rates[currency.USD].String())

	put := func(payload string) int {
		req := httptest.NewRequest("PUT", "/rates", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, put(`{"currency":"EUR","rate":"36.25"}`))
	assert.Equal(t, "36.25", w.saved[currency.EUR].String())
	assert.Equal(t, 1, inv.n)
	assert.Equal(t, 1, al.n)
	require.Len(t, got, 1)
	assert.Equal(t, "EUR", got[0].EntityID)

	assert.Equal(t, fiber.StatusBadRequest, put(`{"currency":"TRY","rate":"1"}`))
	assert.Equal(t, fiber.StatusBadRequest, put(`{"currency":"USD","rate":"-1"}`))
	assert.Len(t, w.saved, 1)
}
