package database

import (
	"fmt"

	"kasa-backend/internal/config"
	"kasa-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open Postgres bağlantısını kurar ve tabloları günceller.
func Open(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	// Eski kur kayıtlarında valid_from boş kalmış olabilir
	if res := db.Exec("UPDATE exchange_rates SET valid_from = created_at WHERE valid_from IS NULL"); res.Error != nil {
		log.Warn().Err(res.Error).Msg("exchange_rates.valid_from düzeltilemedi")
	} else if res.RowsAffected > 0 {
		log.Info().Int64("rows", res.RowsAffected).Msg("exchange_rates.valid_from dolduruldu")
	}

	log.Info().Msg("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.AuditLog{},
		// Kasa
		&models.Vault{},
		&models.VaultMovement{},
		&models.ExchangeRate{},
		// Cari
		&models.Current{},
		&models.CurrentMovement{},
		// Satış
		&models.Sale{},
		&models.SaleLine{},
		&models.SaleExpense{},
		&models.SalePayment{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return nil
}
