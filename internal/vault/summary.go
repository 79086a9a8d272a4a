package vault

import (
	"strconv"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// En fazla bir yıllık özet
const maxSummaryDays = 366

type DayTotal struct {
	Date     string          `json:"date"`
	Entering decimal.Decimal `json:"entering"`
	Emerging decimal.Decimal `json:"emerging"`
	Net      decimal.Decimal `json:"net"`
}

type MovementSummary struct {
	VaultID   uint            `json:"vault_id"`
	Currency  currency.Code   `json:"currency"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Entering  decimal.Decimal `json:"entering"`
	Emerging  decimal.Decimal `json:"emerging"`
	Net       decimal.Decimal `json:"net"`
	Days      []DayTotal      `json:"days"`
}

// Summarize hareketleri [from, to] aralığındaki günlere dağıtır. Hareketi olmayan gün sıfır döner.
func Summarize(v Vault, entries []Entry, from, to time.Time) MovementSummary {
	sum := MovementSummary{
		VaultID:   v.ID,
		Currency:  v.Currency,
		StartDate: from.Format("2006-01-02"),
		EndDate:   to.Format("2006-01-02"),
		Entering:  decimal.Zero,
		Emerging:  decimal.Zero,
	}

	index := make(map[string]int)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		index[key] = len(sum.Days)
		sum.Days = append(sum.Days, DayTotal{Date: key, Entering: decimal.Zero, Emerging: decimal.Zero, Net: decimal.Zero})
	}

	// Günler from'un saat diliminde sayılır; sorgu penceresi de aynı dilimde kurulur.
	loc := from.Location()
	for _, e := range entries {
		i, ok := index[e.Date.In(loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		day := &sum.Days[i]
		day.Entering = day.Entering.Add(e.Entering)
		day.Emerging = day.Emerging.Add(e.Emerging)
		day.Net = day.Entering.Sub(day.Emerging)

		sum.Entering = sum.Entering.Add(e.Entering)
		sum.Emerging = sum.Emerging.Add(e.Emerging)
	}
	sum.Net = sum.Entering.Sub(sum.Emerging)
	return sum
}

// -------------------------------------------------
// GET /api/vaults/:id/summary?from=2025-01-01&to=2025-01-31
// Günlük giriş/çıkış toplamları
// -------------------------------------------------
func DailySummaryHandler(r Resolver, l MovementLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kasa id")
		}

		fromStr := c.Query("from")
		toStr := c.Query("to")
		if fromStr == "" || toStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "from ve to tarihleri zorunlu (YYYY-MM-DD)")
		}
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
		}
		if to.Before(from) {
			return fiber.NewError(fiber.StatusBadRequest, "to tarihi from'dan önce olamaz")
		}
		if to.Sub(from) >= maxSummaryDays*24*time.Hour {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih aralığı en fazla bir yıl olabilir")
		}

		v, err := r.GetVault(c.UserContext(), uint(id))
		if err != nil {
			return apperr.ToFiber(err)
		}
		if err := auth.CanAccessBranch(c, v.BranchID); err != nil {
			return err
		}

		entries, err := l.ListMovements(c.UserContext(), v.ID, MovementFilter{From: from, To: to.AddDate(0, 0, 1)})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(Summarize(v, entries, from, to))
	}
}
