package main

import (
	"fmt"

	"kasa-backend/internal/account"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/backend"
	"kasa-backend/internal/config"
	"kasa-backend/internal/database"
	"kasa-backend/internal/logger"
	"kasa-backend/internal/rates"
	"kasa-backend/internal/sale"
	"kasa-backend/internal/store"
	"kasa-backend/internal/vault"

	"gorm.io/gorm"
)

type vaultBackend interface {
	vault.Store
	vault.MovementLister
}

// dataBackend DATA_BACKEND'e göre seçilen depo yüzeyi.
// Uzak serviste kur yazma ve audit listeleme yok; ilgili alanlar nil kalır.
type dataBackend struct {
	vaults     vaultBackend
	accounts   account.Lister
	sales      sale.Writer
	rates      rates.Provider
	rateWriter rates.Writer
	audit      audit.Logger
	auditRead  audit.Reader
	db         *gorm.DB
}

func openBackend(cfg *config.Config) (dataBackend, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		db, err := database.Open(cfg, logger.WithComponent("database"))
		if err != nil {
			return dataBackend{}, err
		}
		st := store.New(db)
		al := audit.NewDBLogger(db)
		return dataBackend{
			vaults:     st,
			accounts:   st,
			sales:      st,
			rates:      st,
			rateWriter: st,
			audit:      al,
			auditRead:  al,
			db:         db,
		}, nil

	case config.BackendRemote:
		cl := backend.New(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout, logger.WithComponent("backend"))
		return dataBackend{
			vaults:   cl,
			accounts: cl,
			sales:    cl,
			rates:    cl,
			audit:    audit.NewZerologLogger(logger.WithComponent("audit")),
		}, nil
	}
	return dataBackend{}, fmt.Errorf("bilinmeyen veri kaynağı: %s", cfg.DataBackend)
}
