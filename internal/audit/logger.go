package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

func encodeMetadata(metadata any) string {
	if metadata == nil {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

// ======================================================
// GORM sink (db mode)
// ======================================================

type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) Record(ctx context.Context, ev Event) error {
	log := models.AuditLog{
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Metadata: encodeMetadata(ev.Metadata),
	}
	return s.db.WithContext(ctx).Create(&log).Error
}

// ======================================================
// slog sink (demo mode)
// ======================================================

type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(ctx context.Context, ev Event) error {
	s.log.InfoContext(ctx, "audit",
		"action", ev.Action,
		"entity", ev.Entity,
		"entity_id", ev.EntityID,
		"metadata", encodeMetadata(ev.Metadata),
	)
	return nil
}
