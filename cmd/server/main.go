package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kasa-backend/internal/apperr"
	"kasa-backend/internal/config"
	"kasa-backend/internal/events"
	"kasa-backend/internal/logger"
	"kasa-backend/internal/rates"
	"kasa-backend/internal/sale"
	"kasa-backend/internal/vault"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env opsiyonel
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.Setup(logger.LogConfig{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	}); err != nil {
		log.Fatal().Err(err).Msg("logger kurulamadı")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("yapılandırma hatalı")
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", string(cfg.DataBackend)).Msg("veri kaynağı açılamadı")
	}

	// Bildirimler
	bus := events.NewBus()
	evLog := logger.WithComponent("events")
	bus.SubscribeAll(func(_ context.Context, e events.Event) {
		evLog.Debug().Str("type", string(e.Type)).Uint("branch_id", e.BranchID).Str("entity_id", e.EntityID).Msg("olay")
	})
	if cfg.AMQPURL != "" {
		fwd, err := events.NewAMQPForwarder(cfg.AMQPURL, cfg.AMQPExchange, logger.WithComponent("amqp"))
		if err != nil {
			log.Error().Err(err).Msg("AMQP aktarımı devre dışı")
		} else {
			bus.SubscribeAll(fwd.Handle)
			defer fwd.Close()
		}
	}

	// Kurlar
	var source rates.Provider = be.rates
	if cfg.StaticRates != "" {
		st, err := rates.ParseStatic(cfg.StaticRates)
		if err != nil {
			log.Fatal().Err(err).Msg("STATIC_RATES okunamadı")
		}
		source = st
		be.rateWriter = nil
	}
	rateLog := logger.WithComponent("rates")
	rdb := rates.Connect(ctx, cfg.RedisAddr, rateLog)
	if rdb != nil {
		defer rdb.Close()
	}
	cachedRates := rates.NewCached(rdb, source, cfg.RateCacheTTL, rateLog)

	// Satış oturumları
	sales := sale.NewService(cachedRates, be.sales, bus, logger.WithComponent("sale"), cfg.SessionCapacity, cfg.SessionTTL)
	go sales.Janitor(ctx, time.Minute)

	transfers := vault.NewOrchestrator(be.vaults, be.vaults, bus, logger.WithComponent("vault"))

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler(logger.WithComponent("http")),
	})
	app.Use(logger.FiberMiddleware(logger.WithComponent("http")))

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	registerRoutes(app, cfg, routeDeps{
		backend:   be,
		rates:     cachedRates,
		events:    bus,
		sales:     sales,
		transfers: transfers,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("Sunucu kapatılıyor")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("kapatma hatası")
		}
	}()

	log.Info().Str("port", cfg.HTTPPort).Str("backend", string(cfg.DataBackend)).Msg("Server çalışıyor")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("sunucu durdu")
	}
}
