package beacon

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobbeacon/internal/model"
	"github.com/amishk599/jobbeacon/internal/pipeline"
	"github.com/amishk599/jobbeacon/internal/store"
)

type stubRunner struct {
	sum pipeline.Summary
}

func (r *stubRunner) Run(context.Context) (pipeline.Summary, error) {
	return r.sum, nil
}

func newTestService(t *testing.T, runner Runner) (*Service, *store.State) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewState(store.NewMemoryBackend(), 200, logger)
	return New(st, runner, logger), st
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	p, err := svc.RegisterUser(ctx, RegisterRequest{Name: "A ", Email: "a@x.com", Password: "secret1"})
	require.Error(t, err, "single-character name must be rejected")
	assert.ErrorIs(t, err, model.ErrValidation)

	p, err = svc.RegisterUser(ctx, RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Email)

	got, err := svc.Authenticate(ctx, LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.Authenticate(ctx, LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, LoginRequest{Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.RegisterUser(ctx, RegisterRequest{Name: "Ann", Email: "A@X.com", Password: "secret1"})
	assert.ErrorIs(t, err, model.ErrDuplicateAccount)
}

func TestAuthenticate_MalformedEmailStillComparesHash(t *testing.T) {
	svc, _ := newTestService(t, nil)
	var compared []string
	svc.compareDummy = func(pw string) { compared = append(compared, pw) }

	_, err := svc.Authenticate(context.Background(), LoginRequest{Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Equal(t, []string{"secret1"}, compared)

	_, err = svc.Authenticate(context.Background(), LoginRequest{Email: "", Password: ""})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Len(t, compared, 2)
}

func TestRegisterUser_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short password", RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "12345"}},
		{"bad email", RegisterRequest{Name: "Ann", Email: "ann-at-x", Password: "secret1"}},
		{"missing name", RegisterRequest{Email: "a@x.com", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterUser(ctx, tt.req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestSearchJobs(t *testing.T) {
	svc, st := newTestService(t, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := st.Jobs().MergeAndCap(ctx, []model.Posting{
		{Title: "React Developer", URL: "https://x/1", Location: "India", PostedAt: base, JobType: model.JobTypeFullTime},
		{Title: "DevOps Engineer", URL: "https://x/2", Location: "Remote", PostedAt: base.Add(time.Hour), JobType: model.JobTypeFullTime},
		{Title: "Node Intern", URL: "https://x/3", Location: "India", PostedAt: base.Add(2 * time.Hour), JobType: model.JobTypeInternship},
	})
	require.NoError(t, err)

	all, err := svc.GetJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://x/3", all[0].URL)

	got, err := svc.SearchJobs(ctx, SearchQuery{Keywords: "react, node", Location: "india"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://x/3", got[0].URL)
	assert.Equal(t, "https://x/1", got[1].URL)

	got, err = svc.SearchJobs(ctx, SearchQuery{ExperienceLevel: "internship"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Node Intern", got[0].Title)
}

func TestSavedSearchesAndProfile(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	p, err := svc.RegisterUser(ctx, RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.SaveSearch(ctx, p.ID, model.SavedSearch{Name: "  "})
	assert.ErrorIs(t, err, model.ErrValidation)

	got, err := svc.SaveSearch(ctx, p.ID, model.SavedSearch{Name: "go", Keywords: "go"})
	require.NoError(t, err)
	require.Len(t, got.SavedSearches, 1)

	bad := []model.SavedSearch{{Name: ""}}
	_, err = svc.UpdateProfile(ctx, p.ID, model.ProfileUpdate{SavedSearches: &bad})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.UpdateProfile(ctx, "missing", model.ProfileUpdate{})
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	got, err = svc.DeleteSearch(ctx, p.ID, "go")
	require.NoError(t, err)
	assert.Empty(t, got.SavedSearches)

	byEmail, err := svc.GetProfileByEmail(ctx, "A@x.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byEmail.ID)
}

func TestSetPushRegistration_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	p, err := svc.RegisterUser(ctx, RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.SetPushRegistration(ctx, p.ID, &model.PushRegistration{Endpoint: "not a url", Keys: model.PushKeys{P256dh: "k", Auth: "a"}})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.SetPushRegistration(ctx, p.ID, &model.PushRegistration{Endpoint: "https://push.example/1", Keys: model.PushKeys{P256dh: "k"}})
	assert.ErrorIs(t, err, model.ErrValidation)

	got, err := svc.SetPushRegistration(ctx, p.ID, &model.PushRegistration{Endpoint: "https://push.example/1", Keys: model.PushKeys{P256dh: "k", Auth: "a"}})
	require.NoError(t, err)
	require.NotNil(t, got.Push)

	got, err = svc.SetPushRegistration(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Push)
}

func TestRunIngestAndNotify(t *testing.T) {
	svc, _ := newTestService(t, &stubRunner{sum: pipeline.Summary{Fetched: 3, Added: 1}})
	sum, err := svc.RunIngestAndNotify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Fetched)

	noRunner, _ := newTestService(t, nil)
	_, err = noRunner.RunIngestAndNotify(context.Background())
	assert.Error(t, err)
}
