package main

import (
	"kasa-backend/internal/account"
	"kasa-backend/internal/admin"
	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/config"
	"kasa-backend/internal/events"
	"kasa-backend/internal/models"
	"kasa-backend/internal/rates"
	"kasa-backend/internal/sale"
	"kasa-backend/internal/vault"

	"github.com/gofiber/fiber/v2"
)

type routeDeps struct {
	backend   dataBackend
	rates     *rates.Cached
	events    events.Publisher
	sales     *sale.Service
	transfers *vault.Orchestrator
}

func registerRoutes(app *fiber.App, cfg *config.Config, d routeDeps) {
	api := app.Group("/api")

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler())

	// Hesap seçicileri
	protected.Get("/accounts", account.ListAccountsHandler(d.backend.accounts))

	// Kurlar
	protected.Get("/rates", rates.GetRatesHandler(d.rates))
	if d.backend.rateWriter != nil {
		protected.Put("/rates", auth.RequireRole(models.RoleSuperAdmin),
			rates.UpdateRateHandler(d.backend.rateWriter, d.rates, d.events, d.backend.audit))
	}

	// Satış oturumları
	sales := protected.Group("/sales")
	sales.Post("/quote", sale.QuoteHandler(d.sales))
	sales.Post("/import-lines", sale.ImportLinesHandler())
	sales.Post("/sessions", sale.OpenSessionHandler(d.sales))
	sales.Get("/sessions/:id", sale.GetSessionHandler(d.sales))
	sales.Delete("/sessions/:id", sale.DiscardSessionHandler(d.sales))
	sales.Get("/sessions/:id/export", sale.ExportSessionHandler(d.sales))
	sales.Post("/sessions/:id/payments", sale.AddPaymentHandler(d.sales))
	sales.Patch("/sessions/:id/payments/:pid", sale.EditPaymentHandler(d.sales))
	sales.Delete("/sessions/:id/payments/:pid", sale.RemovePaymentHandler(d.sales))
	sales.Post("/sessions/:id/finalize", sale.FinalizeHandler(d.sales, d.backend.audit))

	// Kasa
	protected.Post("/vault-transfers", vault.TransferHandler(d.transfers, d.rates, d.backend.audit))
	protected.Get("/vaults/:id/movements", vault.ListMovementsHandler(d.backend.vaults, d.backend.vaults))
	protected.Get("/vaults/:id/movements/export", vault.ExportMovementsHandler(d.backend.vaults, d.backend.vaults))
	protected.Get("/vaults/:id/summary", vault.DailySummaryHandler(d.backend.vaults, d.backend.vaults))

	// Aşağıdakiler yalnız yerel veritabanında
	if d.backend.auditRead != nil {
		protected.Get("/audit-logs", audit.ListAuditLogsHandler(d.backend.auditRead))
	}
	if d.backend.db == nil {
		return
	}
	db := d.backend.db
	al := d.backend.audit

	// Şube yöneticileri kendi şubesinin hesaplarını yönetir
	protected.Post("/admin/vaults", admin.CreateVaultHandler(db, al))
	protected.Get("/admin/vaults", admin.ListVaultsHandler(db))
	protected.Put("/admin/vaults/:id", admin.UpdateVaultHandler(db, al))
	protected.Delete("/admin/vaults/:id", admin.DeleteVaultHandler(db, al))
	protected.Post("/admin/currents", admin.CreateCurrentHandler(db, al))
	protected.Get("/admin/currents", admin.ListCurrentsHandler(db))

	// Super admin routes
	adminRoutes := protected.Group("/admin/branches")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	adminRoutes.Post("", admin.CreateBranchHandler(db, al))
	adminRoutes.Get("", admin.ListBranchesHandler(db))
	adminRoutes.Put("/:id", admin.UpdateBranchHandler(db, al))
	adminRoutes.Post("/:id/users", admin.CreateBranchUserHandler(db, al))
	adminRoutes.Get("/:id/users", admin.ListBranchUsersHandler(db))
}
