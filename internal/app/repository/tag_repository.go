package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/sifan077/PowerRead/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrTagNotFound signals that no tag matches the requested label or id.
	ErrTagNotFound = errors.New("tag not found")
)

// TagRepository owns tag identity (one row per label) and orphan cleanup.
type TagRepository interface {
	FindByLabel(ctx context.Context, label string) (*model.Tag, error)
	FindByID(ctx context.Context, id uint) (*model.Tag, error)
	FindOrCreate(ctx context.Context, labels []string) ([]model.Tag, error)
	ListForUser(ctx context.Context, userID uint) ([]model.TagUsage, error)
	CountReferences(ctx context.Context, tagID uint) (int64, error)
	Sweep(ctx context.Context, tagIDs []uint) (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a GORM-backed TagRepository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindByLabel(ctx context.Context, label string) (*model.Tag, error) {
	var tag model.Tag
	if err := conn(ctx, r.db).Where("label = ?", strings.TrimSpace(label)).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindByID(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := conn(ctx, r.db).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// FindOrCreate resolves labels to tags, creating the missing ones. Blank and
// repeated labels are skipped; the result follows the first-seen label order.
func (r *tagRepository) FindOrCreate(ctx context.Context, labels []string) ([]model.Tag, error) {
	seen := make(map[string]struct{}, len(labels))
	tags := make([]model.Tag, 0, len(labels))
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}

		var tag model.Tag
		if err := conn(ctx, r.db).Where(model.Tag{Label: label}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// ListForUser returns the tags carried by the user's entries with per-user counts.
func (r *tagRepository) ListForUser(ctx context.Context, userID uint) ([]model.TagUsage, error) {
	var usage []model.TagUsage
	err := conn(ctx, r.db).
		Table("tags").
		Select("tags.id, tags.label, COUNT(entries.id) AS entry_count").
		Joins("JOIN entry_tags ON entry_tags.tag_id = tags.id").
		Joins("JOIN entries ON entries.id = entry_tags.entry_id").
		Where("entries.user_id = ?", userID).
		Group("tags.id, tags.label").
		Order("tags.label ASC").
		Scan(&usage).Error
	return usage, err
}

func (r *tagRepository) CountReferences(ctx context.Context, tagID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Table("entry_tags").Where("tag_id = ?", tagID).Count(&count).Error
	return count, err
}

// Sweep deletes, in one statement, every listed tag no entry references any more.
// Tags still in use are left untouched.
func (r *tagRepository) Sweep(ctx context.Context, tagIDs []uint) (int64, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}
	result := conn(ctx, r.db).
		Where("id IN ?", tagIDs).
		Where("NOT EXISTS (SELECT 1 FROM entry_tags et WHERE et.tag_id = tags.id)").
		Delete(&model.Tag{})
	return result.RowsAffected, result.Error
}
