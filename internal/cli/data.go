package cli

import (
	"context"
	"errors"
	"fmt"

	"kasa-backend/internal/audit"
	"kasa-backend/internal/backend"
	"kasa-backend/internal/config"
	"kasa-backend/internal/database"
	"kasa-backend/internal/logger"
	"kasa-backend/internal/models"
	"kasa-backend/internal/rates"
	"kasa-backend/internal/store"
	"kasa-backend/internal/vault"
)

type userFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// source komutların kullandığı veri kaynağı.
type source struct {
	rates  rates.Provider
	vaults vault.Store
	users  userFinder // yalnız postgres
	audit  audit.Logger
}

var errNoUsers = errors.New("kullanıcı araması yalnız DATA_BACKEND=postgres ile yapılabilir")

func openSource(cfg *config.Config) (*source, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		db, err := database.Open(cfg, logger.WithComponent("database"))
		if err != nil {
			return nil, err
		}
		st := store.New(db)
		return &source{rates: st, vaults: st, users: st, audit: audit.NewDBLogger(db)}, nil
	case config.BackendRemote:
		if cfg.BackendURL == "" || cfg.BackendToken == "" {
			return nil, errors.New("BACKEND_URL ve BACKEND_TOKEN zorunlu")
		}
		cl := backend.New(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout, logger.WithComponent("backend"))
		return &source{rates: cl, vaults: cl, audit: audit.NewZerologLogger(logger.WithComponent("audit"))}, nil
	}
	return nil, fmt.Errorf("bilinmeyen veri kaynağı: %s", cfg.DataBackend)
}

// rateProvider --rates bayrağı, STATIC_RATES veya veri kaynağı sırasıyla denenir.
func (e *env) rateProvider(flag string) (rates.Provider, error) {
	if flag != "" {
		return rates.ParseStatic(flag)
	}
	if e.cfg.StaticRates != "" {
		return rates.ParseStatic(e.cfg.StaticRates)
	}
	src, err := e.open(e.cfg)
	if err != nil {
		return nil, err
	}
	return src.rates, nil
}
