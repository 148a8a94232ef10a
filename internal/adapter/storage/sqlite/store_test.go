package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicyouth/portal/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newEntryAt(section domain.Section, title string, published bool, createdAt time.Time) *domain.Entry {
	e := domain.NewEntry(section, title, "", "summary of "+title, "body of "+title, published)
	e.CreatedAt = createdAt
	e.UpdatedAt = createdAt
	return e
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, "admin@civic.org", "hash"))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	hasUser, err := reopened.HasUser(ctx)
	require.NoError(t, err)
	assert.True(t, hasUser)
	assert.NoError(t, reopened.Ping(ctx))
}

func TestStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hasUser, err := store.HasUser(ctx)
	require.NoError(t, err)
	assert.False(t, hasUser)

	require.NoError(t, store.CreateUser(ctx, "admin@civic.org", "hash-1"))

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := store.CreateUser(ctx, "admin@civic.org", "hash-2")
		assert.ErrorIs(t, err, domain.ErrUserExists)
	})

	t.Run("lookup by email and id", func(t *testing.T) {
		user, err := store.GetUserByEmail(ctx, "admin@civic.org")
		require.NoError(t, err)
		assert.Equal(t, "hash-1", user.PasswordHash)
		assert.False(t, user.CreatedAt.IsZero())

		byID, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@civic.org")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.GetUserByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update password", func(t *testing.T) {
		user, err := store.GetUserByEmail(ctx, "admin@civic.org")
		require.NoError(t, err)
		require.NoError(t, store.UpdatePassword(ctx, user.ID, "hash-3"))

		user, err = store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-3", user.PasswordHash)

		assert.ErrorIs(t, store.UpdatePassword(ctx, 999, "x"), domain.ErrNotFound)
	})
}

func TestStore_EntryCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	entry := newEntryAt(domain.SectionNews, "Youth Council Elected", true, created)
	require.NoError(t, store.SaveEntry(ctx, entry))

	got, err := store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Title, got.Title)
	assert.Equal(t, domain.SectionNews, got.Section)
	assert.Equal(t, "youth-council-elected", got.Slug)
	assert.True(t, got.Published)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)

	bySlug, err := store.GetEntryBySlug(ctx, domain.SectionNews, "youth-council-elected")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, bySlug.ID)

	_, err = store.GetEntryBySlug(ctx, domain.SectionEvents, "youth-council-elected")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got.Title = "Youth Council Sworn In"
	got.Published = false
	got.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, store.UpdateEntry(ctx, got))

	updated, err := store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Youth Council Sworn In", updated.Title)
	assert.False(t, updated.Published)

	require.NoError(t, store.DeleteEntry(ctx, entry.ID))
	_, err = store.GetEntry(ctx, entry.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteEntry(ctx, entry.ID), domain.ErrNotFound)

	missing := domain.NewEntry(domain.SectionNews, "Ghost", "", "", "", false)
	assert.ErrorIs(t, store.UpdateEntry(ctx, missing), domain.ErrNotFound)
}

func TestStore_SlugUniquePerSection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.SaveEntry(ctx, newEntryAt(domain.SectionEvents, "Open Day", true, now)))

	err := store.SaveEntry(ctx, newEntryAt(domain.SectionEvents, "Open Day", true, now))
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	assert.NoError(t, store.SaveEntry(ctx, newEntryAt(domain.SectionNews, "Open Day", true, now)))

	other := newEntryAt(domain.SectionEvents, "Debate Night", true, now)
	require.NoError(t, store.SaveEntry(ctx, other))
	other.Slug = "open-day"
	assert.ErrorIs(t, store.UpdateEntry(ctx, other), domain.ErrSlugTaken)
}

func TestStore_ListEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := newEntryAt(domain.SectionCourses, "Civics Basics", true, base)
	newer := newEntryAt(domain.SectionCourses, "Public Speaking", true, base.Add(48*time.Hour))
	draft := newEntryAt(domain.SectionCourses, "Draft Course", false, base.Add(72*time.Hour))
	news := newEntryAt(domain.SectionNews, "Announcement", true, base.Add(24*time.Hour))
	for _, e := range []*domain.Entry{older, newer, draft, news} {
		require.NoError(t, store.SaveEntry(ctx, e))
	}

	all, err := store.ListEntries(ctx, domain.SectionCourses, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, draft.ID, all[0].ID)

	published, err := store.ListEntries(ctx, domain.SectionCourses, true)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, newer.ID, published[0].ID)
	assert.Equal(t, older.ID, published[1].ID)

	empty, err := store.ListEntries(ctx, domain.SectionStaff, true)
	require.NoError(t, err)
	assert.Empty(t, empty)

	latest, err := store.ListLatestPublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, newer.ID, latest[0].ID)
	assert.Equal(t, news.ID, latest[1].ID)
}
