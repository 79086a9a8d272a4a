package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"kasa-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type LogOptions struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Reference   string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Logger denetim kaydı yazar.
type Logger interface {
	WriteLog(ctx context.Context, opts LogOptions) error
}

type Filter struct {
	BranchID   *uint
	UserID     uint
	EntityType string
	EntityID   uint
	Reference  string
	Limit      int
}

type Reader interface {
	ListLogs(ctx context.Context, f Filter) ([]models.AuditLog, error)
}

// Build LogOptions'ı tabloya yazılacak satıra çevirir.
func Build(opts LogOptions) models.AuditLog {
	// PostgreSQL jsonb için boş string yerine "null" kullanılır
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	return models.AuditLog{
		BranchID:    opts.BranchID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Reference:   opts.Reference,
		Action:      opts.Action,
		Description: truncate(opts.Description, 255),
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
}

// DBLogger audit_logs tablosunu kullanır.
type DBLogger struct {
	db *gorm.DB
}

func NewDBLogger(db *gorm.DB) *DBLogger {
	return &DBLogger{db: db}
}

func (l *DBLogger) WriteLog(ctx context.Context, opts LogOptions) error {
	row := Build(opts)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

func (l *DBLogger) ListLogs(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := l.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Reference != "" {
		q = q.Where("reference = ?", f.Reference)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ZerologLogger uzak backend modunda denetim kayıtlarını log akışına yazar.
type ZerologLogger struct {
	log zerolog.Logger
}

func NewZerologLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

func (l *ZerologLogger) WriteLog(_ context.Context, opts LogOptions) error {
	row := Build(opts)
	ev := l.log.Info().
		Uint("user_id", row.UserID).
		Str("user_name", row.UserName).
		Str("entity_type", row.EntityType).
		Uint("entity_id", row.EntityID).
		Str("reference", row.Reference).
		Str("action", string(row.Action)).
		RawJSON("after", []byte(row.AfterData))
	if row.BranchID != nil {
		ev = ev.Uint("branch_id", *row.BranchID)
	}
	ev.Msg(row.Description)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
