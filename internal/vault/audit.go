package vault

import (
	"context"
	"fmt"

	"kasa-backend/internal/audit"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/currency"
	"kasa-backend/internal/models"
)

// TransferLog virman sonucundan audit kaydını kurar. err Transfer'in döndüğü hatadır.
// İade edilen ya da tutarsız kalan virmanlar compensate olarak yazılır.
func TransferLog(actor auth.Identity, res Result, err error) audit.LogOptions {
	branchID := res.Source.BranchID
	opts := audit.LogOptions{
		BranchID:   &branchID,
		UserID:     actor.UserID,
		UserName:   actor.Name,
		EntityType: "vault_transfer",
		EntityID:   res.DebitID,
		Reference:  res.Ref,
		Action:     models.AuditActionTransfer,
		After:      res,
	}

	te, failed := IsTransferError(err)
	switch {
	case err == nil:
		opts.Description = fmt.Sprintf("Virman: %s %s → %s %s",
			currency.Round(res.Debited).StringFixed(2), res.Source.Currency,
			currency.Round(res.Credited).StringFixed(2), res.Target.Currency)
	case !failed:
		opts.Description = "Virman başarısız: " + err.Error()
	case te.State == StateCompensated:
		opts.Action = models.AuditActionCompensate
		opts.Description = "Virman iade edildi: " + te.Err.Error()
	case te.Inconsistent():
		opts.Action = models.AuditActionCompensate
		opts.Description = "Virman iadesi yazılamadı, kasa tutarsız: " + te.Err.Error()
	default:
		opts.Description = "Virman başarısız: " + te.Err.Error()
	}
	return opts
}

// Audit hareket yazılmış (ref almış) her virman için audit kaydı bırakır.
// Kayıt hatası virmanı bozmaz, yalnız loglanır.
func (o *Orchestrator) Audit(ctx context.Context, al audit.Logger, actor auth.Identity, res Result, err error) {
	if al == nil || res.Ref == "" {
		return
	}
	if logErr := al.WriteLog(context.WithoutCancel(ctx), TransferLog(actor, res, err)); logErr != nil {
		o.log.Error().Err(logErr).Str("ref", res.Ref).Msg("audit log yazılamadı")
	}
}
