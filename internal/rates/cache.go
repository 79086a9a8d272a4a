package rates

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kasa-backend/internal/currency"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKey = "kasa:rates:current"

// Cached kurları Redis'te TTL süresince tutar. rdb nil ise doğrudan kaynağa gider.
type Cached struct {
	rdb  *redis.Client
	next Provider
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCached(rdb *redis.Client, next Provider, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{rdb: rdb, next: next, ttl: ttl, log: log}
}

func (c *Cached) Rates(ctx context.Context) (currency.RateTable, error) {
	if c.rdb == nil {
		return c.next.Rates(ctx)
	}

	raw, err := c.rdb.Get(ctx, cacheKey).Result()
	switch {
	case err == nil:
		var tbl currency.RateTable
		if jsonErr := json.Unmarshal([]byte(raw), &tbl); jsonErr == nil {
			return tbl, nil
		}
		c.log.Warn().Str("key", cacheKey).Msg("önbellekteki kur verisi çözülemedi")
	case !errors.Is(err, redis.Nil):
		c.log.Error().Err(err).Msg("Redis GET başarısız")
	}

	tbl, err := c.next.Rates(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(tbl); err == nil {
		if err := c.rdb.Set(ctx, cacheKey, b, c.ttl).Err(); err != nil {
			c.log.Error().Err(err).Msg("Redis SET başarısız")
		}
	}
	return tbl, nil
}

// Invalidate kur değiştiğinde önbelleği boşaltır.
func (c *Cached) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey).Err(); err != nil {
		c.log.Error().Err(err).Msg("Redis DEL başarısız")
	}
}

// Connect boş adreste nil döner; önbellek devre dışı kalır.
func Connect(ctx context.Context, addr string, log zerolog.Logger) *redis.Client {
	if addr == "" {
		log.Warn().Msg("REDIS_ADDR tanımlı değil, kur önbelleği devre dışı")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("Redis'e bağlanılamadı, kur önbelleği devre dışı")
		_ = rdb.Close()
		return nil
	}
	log.Info().Str("addr", addr).Msg("Redis bağlantısı kuruldu")
	return rdb
}
