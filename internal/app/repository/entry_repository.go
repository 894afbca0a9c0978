package repository

import (
	"context"
	"errors"

	"github.com/sifan077/PowerRead/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrEntryNotFound signals that the requested entry does not exist.
	ErrEntryNotFound = errors.New("entry not found")
)

// EntryRepository defines the data access contract for entries.
type EntryRepository interface {
	Create(ctx context.Context, entry *model.Entry) error
	GetByID(ctx context.Context, id uint) (*model.Entry, error)
	GetByUID(ctx context.Context, uid string) (*model.Entry, error)
	FindByURLAndUser(ctx context.Context, url string, userID uint) (*model.Entry, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	SaveContent(ctx context.Context, entry *model.Entry) error
	UpdateTitle(ctx context.Context, id uint, title string) error
	SetArchived(ctx context.Context, id uint, archived bool) error
	SetStarred(ctx context.Context, id uint, starred bool) error
	SetUID(ctx context.Context, id uint, uid *string) error
	Delete(ctx context.Context, entry *model.Entry) error
	AttachTags(ctx context.Context, entry *model.Entry, tags []model.Tag) error
	DetachTag(ctx context.Context, entry *model.Entry, tagID uint) error
	DetachTagsForUser(ctx context.Context, userID uint, tagIDs []uint) (int64, error)
	ReplaceGroups(ctx context.Context, entry *model.Entry, groups []model.Group) error
	Paginate(ctx context.Context, spec QuerySpec, page, perPage int) (*Page, error)
}

type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository returns a GORM-backed EntryRepository.
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry *model.Entry) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(entry).Error
}

func (r *entryRepository) GetByID(ctx context.Context, id uint) (*model.Entry, error) {
	var entry model.Entry
	err := conn(ctx, r.db).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.label ASC") }).
		Preload("Groups").
		First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) GetByUID(ctx context.Context, uid string) (*model.Entry, error) {
	var entry model.Entry
	if err := conn(ctx, r.db).Preload("Tags").Where("uid = ?", uid).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByURLAndUser returns nil, nil when the user has not saved url yet.
func (r *entryRepository) FindByURLAndUser(ctx context.Context, url string, userID uint) (*model.Entry, error) {
	var entry model.Entry
	err := conn(ctx, r.db).
		Where("user_id = ? AND url = ?", userID, url).
		Order("id ASC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Entry{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// SaveContent persists the fetched fields of an entry; flags, share UID and
// associations are left alone.
func (r *entryRepository) SaveContent(ctx context.Context, entry *model.Entry) error {
	result := conn(ctx, r.db).
		Model(&model.Entry{ID: entry.ID}).
		Select("url", "title", "content", "domain_name", "language", "mime_type",
			"preview_picture", "reading_time", "metadata").
		Updates(map[string]interface{}{
			"url":             entry.URL,
			"title":           entry.Title,
			"content":         entry.Content,
			"domain_name":     entry.DomainName,
			"language":        entry.Language,
			"mime_type":       entry.MimeType,
			"preview_picture": entry.PreviewPicture,
			"reading_time":    entry.ReadingTime,
			"metadata":        entry.Metadata,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *entryRepository) UpdateTitle(ctx context.Context, id uint, title string) error {
	return r.updateColumn(ctx, id, "title", title)
}

func (r *entryRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	return r.updateColumn(ctx, id, "is_archived", archived)
}

func (r *entryRepository) SetStarred(ctx context.Context, id uint, starred bool) error {
	return r.updateColumn(ctx, id, "is_starred", starred)
}

func (r *entryRepository) SetUID(ctx context.Context, id uint, uid *string) error {
	return r.updateColumn(ctx, id, "uid", uid)
}

func (r *entryRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	result := conn(ctx, r.db).Model(&model.Entry{ID: id}).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Delete removes the entry together with its tag and group join rows.
func (r *entryRepository) Delete(ctx context.Context, entry *model.Entry) error {
	result := conn(ctx, r.db).Select(clause.Associations).Delete(&model.Entry{ID: entry.ID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *entryRepository) AttachTags(ctx context.Context, entry *model.Entry, tags []model.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return conn(ctx, r.db).Model(entry).Omit("Tags.*").Association("Tags").Append(tags)
}

func (r *entryRepository) DetachTag(ctx context.Context, entry *model.Entry, tagID uint) error {
	return conn(ctx, r.db).
		Exec("DELETE FROM entry_tags WHERE entry_id = ? AND tag_id = ?", entry.ID, tagID).Error
}

// DetachTagsForUser removes the given tags from every entry owned by userID.
func (r *entryRepository) DetachTagsForUser(ctx context.Context, userID uint, tagIDs []uint) (int64, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}
	result := conn(ctx, r.db).Exec(
		"DELETE FROM entry_tags WHERE tag_id IN ? AND entry_id IN (SELECT id FROM entries WHERE user_id = ?)",
		tagIDs, userID,
	)
	return result.RowsAffected, result.Error
}

func (r *entryRepository) ReplaceGroups(ctx context.Context, entry *model.Entry, groups []model.Group) error {
	return conn(ctx, r.db).Model(entry).Omit("Groups.*").Association("Groups").Replace(groups)
}
