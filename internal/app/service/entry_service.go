package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"go.uber.org/zap"
)

const createLockTTL = 10 * time.Second

// EntryService drives the lifecycle of a user's entries.
type EntryService interface {
	Create(ctx context.Context, userID uint, input CreateEntryInput) (*CreateResult, error)
	CreateFromBookmarklet(ctx context.Context, userID uint, rawURL string) (*CreateResult, error)
	Reload(ctx context.Context, userID, entryID uint) (*ReloadResult, error)
	Update(ctx context.Context, userID, entryID uint, input UpdateEntryInput) (*model.Entry, error)
	Get(ctx context.Context, userID, entryID uint) (*model.Entry, error)
	ToggleArchive(ctx context.Context, userID, entryID uint) (bool, error)
	ToggleStar(ctx context.Context, userID, entryID uint) (bool, error)
	Delete(ctx context.Context, userID, entryID uint) error
	Share(ctx context.Context, userID, entryID uint) (string, error)
	Unshare(ctx context.Context, userID, entryID uint) error
	GetShared(ctx context.Context, uid string) (*model.Entry, error)
	SetGroupVisibility(ctx context.Context, userID, entryID uint, groupIDs []uint) (*model.Entry, error)
	AddTags(ctx context.Context, userID, entryID uint, labels []string) (*model.Entry, error)
	RemoveTag(ctx context.Context, userID, entryID, tagID uint) error
	CountForUser(ctx context.Context, userID uint) (int64, error)
}

// CreateEntryInput captures the entry form.
type CreateEntryInput struct {
	URL   string
	Title string
	Tags  []string
}

// UpdateEntryInput captures the editable fields of an entry.
type UpdateEntryInput struct {
	Title string
}

// CreateResult reports the saved entry. Existing is true when the user had
// already saved the URL and nothing was written.
type CreateResult struct {
	Entry    *model.Entry
	Existing bool
}

// ReloadResult reports a refetch. Failed entries are left untouched in storage.
type ReloadResult struct {
	Entry  *model.Entry
	Failed bool
}

// EntryServiceDeps groups the collaborators of NewEntryService. Bus, Locker,
// Recorder and Logger are optional.
type EntryServiceDeps struct {
	Entries     repository.EntryRepository
	Tags        repository.TagRepository
	Groups      repository.GroupRepository
	Tx          repository.Transactor
	Fetch       ContentFetchService
	Bus         EventBus
	Locker      Locker
	Recorder    Recorder
	Logger      *zap.Logger
	SharePublic bool
}

type entryService struct {
	entries     repository.EntryRepository
	tags        repository.TagRepository
	groups      repository.GroupRepository
	tx          repository.Transactor
	fetch       ContentFetchService
	bus         EventBus
	locker      Locker
	recorder    Recorder
	logger      *zap.Logger
	sharePublic bool
}

// NewEntryService returns an EntryService wired to deps.
func NewEntryService(deps EntryServiceDeps) EntryService {
	s := &entryService{
		entries:     deps.Entries,
		tags:        deps.Tags,
		groups:      deps.Groups,
		tx:          deps.Tx,
		fetch:       deps.Fetch,
		bus:         deps.Bus,
		locker:      deps.Locker,
		recorder:    deps.Recorder,
		logger:      deps.Logger,
		sharePublic: deps.SharePublic,
	}
	if s.bus == nil {
		s.bus = nopEventBus{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *entryService) Create(ctx context.Context, userID uint, input CreateEntryInput) (*CreateResult, error) {
	return s.create(ctx, userID, input)
}

func (s *entryService) CreateFromBookmarklet(ctx context.Context, userID uint, rawURL string) (*CreateResult, error) {
	return s.create(ctx, userID, CreateEntryInput{URL: rawURL})
}

func (s *entryService) create(ctx context.Context, userID uint, input CreateEntryInput) (*CreateResult, error) {
	rawURL, err := normalizeURL(input.URL)
	if err != nil {
		return nil, err
	}

	existing, err := s.entries.FindByURLAndUser(ctx, rawURL, userID)
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	if existing != nil {
		return &CreateResult{Entry: existing, Existing: true}, nil
	}

	entry := model.NewEntry(userID, rawURL)
	s.fetch.Refresh(ctx, entry, "")
	if title := strings.TrimSpace(input.Title); title != "" {
		entry.Title = title
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, fmt.Sprintf("entry:create:%d", userID), createLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire create lock: %w", err)
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				s.logger.Warn("release create lock failed", zap.Uint("user_id", userID), zap.Error(err))
			}
		}()
	}

	result := &CreateResult{Entry: entry}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		dup, err := s.entries.FindByURLAndUser(ctx, rawURL, userID)
		if err != nil {
			return fmt.Errorf("find entry: %w", err)
		}
		if dup != nil {
			result = &CreateResult{Entry: dup, Existing: true}
			return nil
		}
		if err := s.entries.Create(ctx, entry); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		tags, err := s.tags.FindOrCreate(ctx, input.Tags)
		if err != nil {
			return fmt.Errorf("resolve tags: %w", err)
		}
		if err := s.entries.AttachTags(ctx, entry, tags); err != nil {
			return fmt.Errorf("attach tags: %w", err)
		}
		entry.Tags = tags
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Existing {
		s.publish(ctx, model.EventEntrySaved, entry)
	}
	return result, nil
}

func (s *entryService) Reload(ctx context.Context, userID, entryID uint) (*ReloadResult, error) {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return nil, err
	}

	refreshed := *entry
	s.fetch.Refresh(ctx, &refreshed, "")
	if s.fetch.IsFailureMarker(refreshed.Content) {
		return &ReloadResult{Entry: entry, Failed: true}, nil
	}

	if err := s.entries.SaveContent(ctx, &refreshed); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	s.publish(ctx, model.EventEntrySaved, &refreshed)
	return &ReloadResult{Entry: &refreshed}, nil
}

func (s *entryService) Update(ctx context.Context, userID, entryID uint, input UpdateEntryInput) (*model.Entry, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.entries.UpdateTitle(ctx, entry.ID, title); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	entry.Title = title
	return entry, nil
}

func (s *entryService) Get(ctx context.Context, userID, entryID uint) (*model.Entry, error) {
	return loadOwned(ctx, s.entries, userID, entryID)
}

func (s *entryService) ToggleArchive(ctx context.Context, userID, entryID uint) (bool, error) {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return false, err
	}
	archived := !entry.IsArchived
	if err := s.entries.SetArchived(ctx, entry.ID, archived); err != nil {
		return false, fmt.Errorf("archive entry: %w", err)
	}
	return archived, nil
}

func (s *entryService) ToggleStar(ctx context.Context, userID, entryID uint) (bool, error) {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return false, err
	}
	starred := !entry.IsStarred
	if err := s.entries.SetStarred(ctx, entry.ID, starred); err != nil {
		return false, fmt.Errorf("star entry: %w", err)
	}
	return starred, nil
}

// Delete announces the deletion first so consumers still see the entry, then
// removes it and sweeps the tags it carried in one transaction.
func (s *entryService) Delete(ctx context.Context, userID, entryID uint) error {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return err
	}

	s.publish(ctx, model.EventEntryDeleted, entry)

	var swept int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.entries.Delete(ctx, entry); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		n, err := s.tags.Sweep(ctx, entry.TagIDs())
		if err != nil {
			return fmt.Errorf("sweep tags: %w", err)
		}
		swept = n
		return nil
	})
	if err != nil {
		return err
	}
	s.recordSweep(swept)
	return nil
}

func (s *entryService) Share(ctx context.Context, userID, entryID uint) (string, error) {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return "", err
	}
	if entry.UID != nil {
		return *entry.UID, nil
	}
	uid := uuid.NewString()
	if err := s.entries.SetUID(ctx, entry.ID, &uid); err != nil {
		return "", fmt.Errorf("share entry: %w", err)
	}
	return uid, nil
}

func (s *entryService) Unshare(ctx context.Context, userID, entryID uint) error {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return err
	}
	if entry.UID == nil {
		return nil
	}
	if err := s.entries.SetUID(ctx, entry.ID, nil); err != nil {
		return fmt.Errorf("unshare entry: %w", err)
	}
	return nil
}

func (s *entryService) GetShared(ctx context.Context, uid string) (*model.Entry, error) {
	if !s.sharePublic {
		return nil, ErrSharingDisabled
	}
	entry, err := s.entries.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load shared entry: %w", err)
	}
	return entry, nil
}

// SetGroupVisibility replaces the groups an entry is visible to. Every group
// must be one the user belongs to; otherwise nothing changes.
func (s *entryService) SetGroupVisibility(ctx context.Context, userID, entryID uint, groupIDs []uint) (*model.Entry, error) {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return nil, err
	}

	mine, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	byID := make(map[uint]model.Group, len(mine))
	for _, g := range mine {
		byID[g.ID] = g
	}

	selected := make([]model.Group, 0, len(groupIDs))
	seen := make(map[uint]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		g, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("group %d: %w", id, ErrAccessDenied)
		}
		selected = append(selected, g)
	}

	if err := s.entries.ReplaceGroups(ctx, entry, selected); err != nil {
		return nil, fmt.Errorf("set entry groups: %w", err)
	}
	entry.Groups = selected
	return entry, nil
}

func (s *entryService) AddTags(ctx context.Context, userID, entryID uint, labels []string) (*model.Entry, error) {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		tags, err := s.tags.FindOrCreate(ctx, labels)
		if err != nil {
			return fmt.Errorf("resolve tags: %w", err)
		}
		if err := s.entries.AttachTags(ctx, entry, tags); err != nil {
			return fmt.Errorf("attach tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.entries.GetByID(ctx, entry.ID)
}

func (s *entryService) RemoveTag(ctx context.Context, userID, entryID, tagID uint) error {
	entry, err := loadOwned(ctx, s.entries, userID, entryID)
	if err != nil {
		return err
	}
	if !hasTag(entry, tagID) {
		return fmt.Errorf("tag %d: %w", tagID, repository.ErrTagNotFound)
	}

	var swept int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.entries.DetachTag(ctx, entry, tagID); err != nil {
			return fmt.Errorf("detach tag: %w", err)
		}
		n, err := s.tags.Sweep(ctx, []uint{tagID})
		if err != nil {
			return fmt.Errorf("sweep tags: %w", err)
		}
		swept = n
		return nil
	})
	if err != nil {
		return err
	}
	s.recordSweep(swept)
	return nil
}

func (s *entryService) CountForUser(ctx context.Context, userID uint) (int64, error) {
	count, err := s.entries.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// publish never fails the caller; errors are logged and counted.
func (s *entryService) publish(ctx context.Context, name string, entry *model.Entry) {
	err := s.bus.Publish(ctx, name, entry)
	s.recorder.EventPublished(name, err)
	if err != nil {
		s.logger.Warn("publish entry event failed",
			zap.String("event", name),
			zap.Uint("entry_id", entry.ID),
			zap.Error(err),
		)
	}
}

func (s *entryService) recordSweep(n int64) {
	s.recorder.TagsSwept(n)
	if n > 0 {
		s.logger.Debug("orphan tags removed", zap.Int64("count", n))
	}
}

func hasTag(entry *model.Entry, tagID uint) bool {
	for _, t := range entry.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q is not an http(s) url", ErrInvalidInput, raw)
	}
	return raw, nil
}
