package repository

import (
	"context"
	"time"

	"github.com/sifan077/PowerRead/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRepository stores consumed entry events.
type AuditRepository interface {
	Create(ctx context.Context, audit *model.EntryAudit) error
	ListForEntry(ctx context.Context, entryID uint) ([]model.EntryAudit, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository returns a GORM-backed AuditRepository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create ignores duplicates so redelivered events are stored once.
func (r *auditRepository) Create(ctx context.Context, audit *model.EntryAudit) error {
	return conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(audit).Error
}

func (r *auditRepository) ListForEntry(ctx context.Context, entryID uint) ([]model.EntryAudit, error) {
	var audits []model.EntryAudit
	err := conn(ctx, r.db).Where("entry_id = ?", entryID).Order("occurred_at ASC").Find(&audits).Error
	return audits, err
}

func (r *auditRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := conn(ctx, r.db).Where("occurred_at < ?", before).Delete(&model.EntryAudit{})
	return result.RowsAffected, result.Error
}
