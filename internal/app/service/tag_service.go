package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"go.uber.org/zap"
)

// TagService removes tags from a user's whole library and lists them.
type TagService interface {
	RemoveTagByLabel(ctx context.Context, userID uint, label string) (*model.Tag, error)
	RemoveTagByID(ctx context.Context, userID, tagID uint) (*model.Tag, error)
	RemoveTagsByLabels(ctx context.Context, userID uint, labels []string) ([]model.Tag, error)
	ListTags(ctx context.Context, userID uint) ([]model.TagUsage, error)
}

type tagService struct {
	entries  repository.EntryRepository
	tags     repository.TagRepository
	tx       repository.Transactor
	recorder Recorder
	logger   *zap.Logger
}

// NewTagService returns a TagService. recorder and logger may be nil.
func NewTagService(entries repository.EntryRepository, tags repository.TagRepository, tx repository.Transactor, recorder Recorder, logger *zap.Logger) TagService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tagService{entries: entries, tags: tags, tx: tx, recorder: recorder, logger: logger}
}

func (s *tagService) RemoveTagByLabel(ctx context.Context, userID uint, label string) (*model.Tag, error) {
	tags, err := s.RemoveTagsByLabels(ctx, userID, []string{label})
	if err != nil {
		return nil, err
	}
	return &tags[0], nil
}

func (s *tagService) RemoveTagByID(ctx context.Context, userID, tagID uint) (*model.Tag, error) {
	tag, err := s.tags.FindByID(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("load tag %d: %w", tagID, err)
	}
	if err := s.removeForUser(ctx, userID, []model.Tag{*tag}); err != nil {
		return nil, err
	}
	return tag, nil
}

// RemoveTagsByLabels resolves every label before touching anything; one
// unknown label aborts the whole removal.
func (s *tagService) RemoveTagsByLabels(ctx context.Context, userID uint, labels []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}

		tag, err := s.tags.FindByLabel(ctx, label)
		if err != nil {
			return nil, fmt.Errorf("load tag %q: %w", label, err)
		}
		tags = append(tags, *tag)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: no tag given", ErrInvalidInput)
	}

	if err := s.removeForUser(ctx, userID, tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *tagService) removeForUser(ctx context.Context, userID uint, tags []model.Tag) error {
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}

	var detached, swept int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.entries.DetachTagsForUser(ctx, userID, ids)
		if err != nil {
			return fmt.Errorf("detach tags: %w", err)
		}
		detached = n
		n, err = s.tags.Sweep(ctx, ids)
		if err != nil {
			return fmt.Errorf("sweep tags: %w", err)
		}
		swept = n
		return nil
	})
	if err != nil {
		return err
	}

	s.recorder.TagsSwept(swept)
	s.logger.Debug("tags removed from user entries",
		zap.Uint("user_id", userID),
		zap.Int64("detached", detached),
		zap.Int64("swept", swept),
	)
	return nil
}

func (s *tagService) ListTags(ctx context.Context, userID uint) ([]model.TagUsage, error) {
	usage, err := s.tags.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return usage, nil
}
