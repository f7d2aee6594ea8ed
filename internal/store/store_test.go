package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobbeacon/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestState(t *testing.T, capacity int) *State {
	t.Helper()
	return NewState(NewMemoryBackend(), capacity, testLogger())
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func postingAt(url string, hours int) model.Posting {
	return model.Posting{
		ID:       url,
		Title:    "Job " + url,
		URL:      url,
		PostedAt: base.Add(time.Duration(hours) * time.Hour),
		JobType:  model.JobTypeFullTime,
	}
}

func TestMergeAndCap_EmptyStore(t *testing.T) {
	s := newTestState(t, 200)
	ctx := context.Background()

	added, err := s.Jobs().MergeAndCap(ctx, []model.Posting{postingAt("a", 1), postingAt("b", 3), postingAt("c", 2)})
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	list, err := s.Jobs().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].URL)
	assert.Equal(t, "c", list[1].URL)
	assert.Equal(t, "a", list[2].URL)
}

func TestMergeAndCap_TruncatesToNewest(t *testing.T) {
	s := newTestState(t, 200)
	ctx := context.Background()

	var existing []model.Posting
	for i := 0; i < 195; i++ {
		existing = append(existing, postingAt(fmt.Sprintf("old-%d", i), i))
	}
	_, err := s.Jobs().MergeAndCap(ctx, existing)
	require.NoError(t, err)

	var fresh []model.Posting
	for i := 0; i < 10; i++ {
		fresh = append(fresh, postingAt(fmt.Sprintf("new-%d", i), 1000+i))
	}
	added, err := s.Jobs().MergeAndCap(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, 10, added)

	list, err := s.Jobs().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 200)
	assert.Equal(t, "new-9", list[0].URL)

	// The five oldest existing postings are evicted.
	known, err := s.Jobs().KnownURLs(ctx)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, ok := known[fmt.Sprintf("old-%d", i)]
		assert.False(t, ok, "old-%d should be evicted", i)
	}
	_, ok := known["old-5"]
	assert.True(t, ok)

	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].PostedAt.After(list[i-1].PostedAt), "list not sorted at %d", i)
	}
}

func TestMergeAndCap_CountsOnlyRetainedPostings(t *testing.T) {
	s := newTestState(t, 3)
	ctx := context.Background()

	_, err := s.Jobs().MergeAndCap(ctx, []model.Posting{postingAt("a", 10), postingAt("b", 11), postingAt("c", 12)})
	require.NoError(t, err)

	added, err := s.Jobs().MergeAndCap(ctx, []model.Posting{postingAt("old", 1), postingAt("new", 20)})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	ok, err := s.Jobs().Contains(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.Jobs().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].URL)
}

func TestMergeAndCap_ExistingWinsOnDuplicateURL(t *testing.T) {
	s := newTestState(t, 200)
	ctx := context.Background()

	orig := postingAt("same", 1)
	orig.Title = "Original"
	_, err := s.Jobs().MergeAndCap(ctx, []model.Posting{orig})
	require.NoError(t, err)

	dup := postingAt("same", 5)
	dup.Title = "Replacement"
	added, err := s.Jobs().MergeAndCap(ctx, []model.Posting{dup})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	list, err := s.Jobs().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Original", list[0].Title)
}

func TestMergeAndCap_Idempotent(t *testing.T) {
	s := newTestState(t, 200)
	ctx := context.Background()
	batch := []model.Posting{postingAt("a", 1), postingAt("b", 2)}

	_, err := s.Jobs().MergeAndCap(ctx, batch)
	require.NoError(t, err)
	first, err := s.Jobs().List(ctx)
	require.NoError(t, err)

	added, err := s.Jobs().MergeAndCap(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	second, err := s.Jobs().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestContains(t *testing.T) {
	s := newTestState(t, 200)
	ctx := context.Background()

	_, err := s.Jobs().MergeAndCap(ctx, []model.Posting{postingAt("https://x/1", 1)})
	require.NoError(t, err)

	ok, err := s.Jobs().Contains(ctx, "https://x/1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Jobs().Contains(ctx, "https://x/2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := newTestState(t, 0)
	ctx := context.Background()

	p, err := s.Users().Register(ctx, "Asha", "Asha@Example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "asha@example.com", p.Email)
	assert.True(t, p.NotificationsEnabled)
	assert.Empty(t, p.SavedSearches)
	assert.True(t, p.LastNotified.Equal(time.Unix(0, 0)))

	got, err := s.Users().Authenticate(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = s.Users().Authenticate(ctx, "asha@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = s.Users().Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestState(t, 0)
	ctx := context.Background()

	_, err := s.Users().Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.Users().Register(ctx, "Other", "ASHA@example.com", "another")
	assert.ErrorIs(t, err, model.ErrDuplicateAccount)

	accounts, err := s.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestRegister_ConcurrentDistinctEmails(t *testing.T) {
	s := newTestState(t, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Users().Register(ctx, "User", fmt.Sprintf("u%d@example.com", i), "secret1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	accounts, err := s.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 5)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestState(t, 0)
	ctx := context.Background()

	p, err := s.Users().Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)

	searches := []model.SavedSearch{
		{Name: "go", Keywords: "go"},
		{Name: "react", Keywords: "react"},
		{Name: "go", Keywords: "golang"},
	}
	off := false
	updated, err := s.Users().UpdateProfile(ctx, p.ID, model.ProfileUpdate{
		SavedSearches:        &searches,
		NotificationsEnabled: &off,
	})
	require.NoError(t, err)
	assert.False(t, updated.NotificationsEnabled)
	require.Len(t, updated.SavedSearches, 2)
	assert.Equal(t, "golang", updated.SavedSearches[0].Keywords)
	assert.Equal(t, "react", updated.SavedSearches[1].Name)

	// Nil fields leave state untouched.
	again, err := s.Users().UpdateProfile(ctx, p.ID, model.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, updated.SavedSearches, again.SavedSearches)
	assert.False(t, again.NotificationsEnabled)

	_, err = s.Users().UpdateProfile(ctx, "missing", model.ProfileUpdate{})
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestSaveAndDeleteSearch(t *testing.T) {
	s := newTestState(t, 0)
	ctx := context.Background()

	p, err := s.Users().Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.Users().SaveSearch(ctx, p.ID, model.SavedSearch{Name: "go", Keywords: "go"})
	require.NoError(t, err)
	got, err := s.Users().SaveSearch(ctx, p.ID, model.SavedSearch{Name: "go", Keywords: "golang"})
	require.NoError(t, err)
	require.Len(t, got.SavedSearches, 1)
	assert.Equal(t, "golang", got.SavedSearches[0].Keywords)

	got, err = s.Users().DeleteSearch(ctx, p.ID, "go")
	require.NoError(t, err)
	assert.Empty(t, got.SavedSearches)

	_, err = s.Users().DeleteSearch(ctx, p.ID, "go")
	assert.ErrorIs(t, err, model.ErrSearchNotFound)
}

func TestTouchLastNotifiedAndPush(t *testing.T) {
	s := newTestState(t, 0)
	ctx := context.Background()

	p, err := s.Users().Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Users().TouchLastNotified(ctx, p.ID, ts))

	reg := &model.PushRegistration{Endpoint: "https://push.example/abc", Keys: model.PushKeys{P256dh: "k", Auth: "a"}}
	_, err = s.Users().SetPushRegistration(ctx, p.ID, reg)
	require.NoError(t, err)

	got, err := s.Users().GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.LastNotified.Equal(ts))
	require.NotNil(t, got.Push)
	assert.Equal(t, "https://push.example/abc", got.Push.Endpoint)

	assert.ErrorIs(t, s.Users().TouchLastNotified(ctx, "missing", ts), model.ErrAccountNotFound)
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	b, err := NewSQLiteBackend(dbPath)
	require.NoError(t, err)
	s := NewState(b, 200, testLogger())
	_, err = s.Jobs().MergeAndCap(ctx, []model.Posting{postingAt("a", 1)})
	require.NoError(t, err)
	p, err := s.Users().Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b, err = NewSQLiteBackend(dbPath)
	require.NoError(t, err)
	s = NewState(b, 200, testLogger())
	t.Cleanup(func() { s.Close() })

	list, err := s.Jobs().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].URL)
	assert.True(t, list[0].PostedAt.Equal(base.Add(time.Hour)))

	got, err := s.Users().GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", got.Email)
}

func TestSQLiteBackend_MissingKey(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	_, err = b.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
