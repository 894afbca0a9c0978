package repository

import (
	"context"

	"github.com/sifan077/PowerRead/internal/app/model"
	"gorm.io/gorm"
)

// GroupRepository reads group membership. Groups themselves are managed elsewhere.
type GroupRepository interface {
	IsMember(ctx context.Context, userID, groupID uint) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Group, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository returns a GORM-backed GroupRepository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) IsMember(ctx context.Context, userID, groupID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.GroupMembership{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&count).Error
	return count > 0, err
}

func (r *groupRepository) ListForUser(ctx context.Context, userID uint) ([]model.Group, error) {
	var groups []model.Group
	err := conn(ctx, r.db).
		Model(&model.Group{}).
		Where("id IN (?)", conn(ctx, r.db).Model(&model.GroupMembership{}).Select("group_id").Where("user_id = ?", userID)).
		Order("id ASC").
		Find(&groups).Error
	return groups, err
}
