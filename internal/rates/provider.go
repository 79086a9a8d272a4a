package rates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kasa-backend/internal/currency"

	"github.com/shopspring/decimal"
)

// Provider güncel kur tablosunu sağlar (USD→TRY, EUR→TRY, ...).
type Provider interface {
	Rates(ctx context.Context) (currency.RateTable, error)
}

// Writer yeni kur kaydeder. Sadece yerel veritabanı modunda vardır.
type Writer interface {
	SaveRate(ctx context.Context, code currency.Code, rate decimal.Decimal) error
}

// Static yapılandırmadan gelen sabit kurlar.
type Static currency.RateTable

func (s Static) Rates(context.Context) (currency.RateTable, error) {
	return currency.RateTable(s).Clone(), nil
}

// ParseStatic "USD:30,EUR:35.5" biçimini çözer.
func ParseStatic(s string) (Static, error) {
	out := Static{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("kur tanımı geçersiz: %q", part)
		}
		code, err := currency.Parse(kv[0])
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("%s kuru geçersiz: %q", code, kv[1])
		}
		out[code] = rate
	}
	return out, nil
}

// Snapshot bir satış oturumunun açıldığı andaki kurlar.
type Snapshot struct {
	Rates     currency.RateTable `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

func TakeSnapshot(ctx context.Context, p Provider) (Snapshot, error) {
	tbl, err := p.Rates(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Rates: tbl, FetchedAt: time.Now()}, nil
}
