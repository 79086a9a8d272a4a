package rates

import (
	"context"
	"fmt"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/events"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RatesResponse struct {
	Base  currency.Code      `json:"base"`
	Rates currency.RateTable `json:"rates"`
}

type UpdateRateRequest struct {
	Currency currency.Code   `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Invalidator kur değişince önbelleği boşaltır.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// -------------------------------------------------
// GET /api/rates
// -------------------------------------------------
func GetRatesHandler(p Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tbl, err := p.Rates(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(RatesResponse{Base: currency.Base, Rates: tbl})
	}
}

// -------------------------------------------------
// PUT /api/rates  (sadece super_admin)
// -------------------------------------------------
func UpdateRateHandler(w Writer, inv Invalidator, pub events.Publisher, al audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateRateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if !body.Currency.Valid() || body.Currency == currency.Base {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz para birimi")
		}
		if !body.Rate.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Kur 0'dan büyük olmalı")
		}

		ctx := c.UserContext()
		if err := w.SaveRate(ctx, body.Currency, body.Rate); err != nil {
			return apperr.ToFiber(err)
		}
		if inv != nil {
			inv.Invalidate(ctx)
		}
		pub.Publish(ctx, events.Event{Type: events.RatesChanged, EntityID: string(body.Currency)})

		_ = al.WriteLog(ctx, audit.LogOptions{
			UserID:      user.UserID,
			UserName:    user.Name,
			EntityType:  "exchange_rate",
			Reference:   string(body.Currency),
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s kuru %s olarak güncellendi", body.Currency, body.Rate.String()),
			After:       body,
		})

		return c.JSON(fiber.Map{"message": "Kur güncellendi"})
	}
}
