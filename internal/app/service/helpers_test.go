package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testMarker = "<p>fetch failed</p>"

type mockFetcher struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, url string) (*model.FetchedContent, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*model.FetchedContent, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}
	return &model.FetchedContent{
		URL:      url,
		Title:    "Fetched " + url,
		Content:  "<p>hello world</p>",
		Language: "en",
		MimeType: "text/html",
	}, nil
}

func (m *mockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type publishedEvent struct {
	name    string
	entryID uint
}

type mockBus struct {
	events    []publishedEvent
	publishFn func(ctx context.Context, name string, entry *model.Entry) error
}

func (m *mockBus) Publish(ctx context.Context, name string, entry *model.Entry) error {
	m.events = append(m.events, publishedEvent{name: name, entryID: entry.ID})
	if m.publishFn != nil {
		return m.publishFn(ctx, name, entry)
	}
	return nil
}

type mockRecorder struct {
	outcomes    []string
	swept       int64
	publishErrs int
}

func (m *mockRecorder) FetchCompleted(outcome string) { m.outcomes = append(m.outcomes, outcome) }
func (m *mockRecorder) TagsSwept(n int64)             { m.swept += n }
func (m *mockRecorder) EventPublished(_ string, err error) {
	if err != nil {
		m.publishErrs++
	}
}

type harness struct {
	db       *gorm.DB
	entries  repository.EntryRepository
	tags     repository.TagRepository
	groups   repository.GroupRepository
	fetcher  *mockFetcher
	bus      *mockBus
	recorder *mockRecorder
	entrySvc EntryService
	tagSvc   TagService
	listing  ListingService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Models()...))
	return db
}

func newHarness(t *testing.T, sharePublic bool) *harness {
	t.Helper()

	db := newTestDB(t)
	h := &harness{
		db:       db,
		entries:  repository.NewEntryRepository(db),
		tags:     repository.NewTagRepository(db),
		groups:   repository.NewGroupRepository(db),
		fetcher:  &mockFetcher{},
		bus:      &mockBus{},
		recorder: &mockRecorder{},
	}
	tx := repository.NewTransactor(db)
	fetch := NewContentFetchService(h.fetcher, FetchOptions{FailureMarker: testMarker}, nil, h.recorder)

	h.entrySvc = NewEntryService(EntryServiceDeps{
		Entries:     h.entries,
		Tags:        h.tags,
		Groups:      h.groups,
		Tx:          tx,
		Fetch:       fetch,
		Bus:         h.bus,
		Recorder:    h.recorder,
		SharePublic: sharePublic,
	})
	h.tagSvc = NewTagService(h.entries, h.tags, tx, h.recorder, nil)
	h.listing = NewListingService(h.entries, h.groups, 2, 1)
	return h
}

func (h *harness) create(t *testing.T, userID uint, url string, tags ...string) *model.Entry {
	t.Helper()
	res, err := h.entrySvc.Create(context.Background(), userID, CreateEntryInput{URL: url, Tags: tags})
	require.NoError(t, err)
	require.False(t, res.Existing)
	return res.Entry
}

func (h *harness) tagCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&model.Tag{}).Count(&n).Error)
	return n
}
