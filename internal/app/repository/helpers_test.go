package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func seedEntry(t *testing.T, db *gorm.DB, entry *model.Entry) *model.Entry {
	t.Helper()
	require.NoError(t, NewEntryRepository(db).Create(context.Background(), entry))
	return entry
}

func seedTagged(t *testing.T, db *gorm.DB, entry *model.Entry, labels ...string) {
	t.Helper()
	ctx := context.Background()
	tags, err := NewTagRepository(db).FindOrCreate(ctx, labels)
	require.NoError(t, err)
	require.NoError(t, NewEntryRepository(db).AttachTags(ctx, entry, tags))
}

func entryAt(userID uint, url string, created time.Time) *model.Entry {
	e := model.NewEntry(userID, url)
	e.CreatedAt = created
	return e
}
