package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amishk599/jobbeacon/internal/model"
)

// UserStore holds registered accounts.
type UserStore struct {
	state *State
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// CompareDummyHash burns the same bcrypt work as a real comparison so that
// rejected logins take similar time whatever the reason.
func CompareDummyHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("jobbeacon-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The password is hashed before the state lock is
// taken.
func (u *UserStore) Register(ctx context.Context, name, email, password string) (model.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.Profile{}, fmt.Errorf("hashing password: %w", err)
	}
	email = normalizeEmail(email)

	u.state.mu.Lock()
	defer u.state.mu.Unlock()

	accounts, err := u.state.loadAccounts(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	for _, a := range accounts {
		if normalizeEmail(a.Email) == email {
			return model.Profile{}, model.ErrDuplicateAccount
		}
	}

	acct := model.Account{
		ID:                   uuid.NewString(),
		Name:                 strings.TrimSpace(name),
		Email:                email,
		PasswordHash:         string(hash),
		SavedSearches:        []model.SavedSearch{},
		NotificationsEnabled: true,
		LastNotified:         time.Unix(0, 0).UTC(),
	}
	accounts = append(accounts, acct)
	if err := u.state.saveAccounts(ctx, accounts); err != nil {
		return model.Profile{}, fmt.Errorf("persisting accounts: %w", err)
	}
	u.state.logger.Info("account registered", "id", acct.ID)
	return acct.Profile(), nil
}

// Authenticate verifies email and password. Unknown emails and wrong passwords
// both yield model.ErrInvalidCredentials.
func (u *UserStore) Authenticate(ctx context.Context, email, password string) (model.Profile, error) {
	acct, err := u.byEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			CompareDummyHash(password)
			return model.Profile{}, model.ErrInvalidCredentials
		}
		return model.Profile{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return model.Profile{}, model.ErrInvalidCredentials
	}
	return acct.Profile(), nil
}

// GetProfile returns the profile for id.
func (u *UserStore) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	u.state.mu.Lock()
	defer u.state.mu.Unlock()

	accounts, err := u.state.loadAccounts(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	i := indexByID(accounts, id)
	if i < 0 {
		return model.Profile{}, model.ErrAccountNotFound
	}
	return accounts[i].Profile(), nil
}

// GetByEmail returns the profile registered under email.
func (u *UserStore) GetByEmail(ctx context.Context, email string) (model.Profile, error) {
	acct, err := u.byEmail(ctx, email)
	if err != nil {
		return model.Profile{}, err
	}
	return acct.Profile(), nil
}

func (u *UserStore) byEmail(ctx context.Context, email string) (model.Account, error) {
	email = normalizeEmail(email)

	u.state.mu.Lock()
	defer u.state.mu.Unlock()

	accounts, err := u.state.loadAccounts(ctx)
	if err != nil {
		return model.Account{}, err
	}
	for _, a := range accounts {
		if normalizeEmail(a.Email) == email {
			return a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

// UpdateProfile applies the non-nil fields of upd. Saved searches are
// normalised so names are unique.
func (u *UserStore) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (model.Profile, error) {
	return u.mutate(ctx, id, func(a *model.Account) error {
		if upd.SavedSearches != nil {
			a.SavedSearches = uniqueSearches(*upd.SavedSearches)
		}
		if upd.NotificationsEnabled != nil {
			a.NotificationsEnabled = *upd.NotificationsEnabled
		}
		return nil
	})
}

// SaveSearch inserts s, replacing any existing search with the same name.
func (u *UserStore) SaveSearch(ctx context.Context, id string, s model.SavedSearch) (model.Profile, error) {
	return u.mutate(ctx, id, func(a *model.Account) error {
		a.SavedSearches = uniqueSearches(append(a.SavedSearches, s))
		return nil
	})
}

// DeleteSearch removes the saved search called name.
func (u *UserStore) DeleteSearch(ctx context.Context, id, name string) (model.Profile, error) {
	return u.mutate(ctx, id, func(a *model.Account) error {
		for i, s := range a.SavedSearches {
			if s.Name == name {
				a.SavedSearches = append(a.SavedSearches[:i], a.SavedSearches[i+1:]...)
				return nil
			}
		}
		return model.ErrSearchNotFound
	})
}

// SetPushRegistration replaces the account's push registration; nil clears it.
func (u *UserStore) SetPushRegistration(ctx context.Context, id string, reg *model.PushRegistration) (model.Profile, error) {
	return u.mutate(ctx, id, func(a *model.Account) error {
		a.Push = reg
		return nil
	})
}

// TouchLastNotified sets the account's notification watermark.
func (u *UserStore) TouchLastNotified(ctx context.Context, id string, ts time.Time) error {
	_, err := u.mutate(ctx, id, func(a *model.Account) error {
		a.LastNotified = ts.UTC()
		return nil
	})
	return err
}

// List returns every account.
func (u *UserStore) List(ctx context.Context) ([]model.Account, error) {
	u.state.mu.Lock()
	defer u.state.mu.Unlock()
	return u.state.loadAccounts(ctx)
}

func (u *UserStore) mutate(ctx context.Context, id string, fn func(*model.Account) error) (model.Profile, error) {
	u.state.mu.Lock()
	defer u.state.mu.Unlock()

	accounts, err := u.state.loadAccounts(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	i := indexByID(accounts, id)
	if i < 0 {
		return model.Profile{}, model.ErrAccountNotFound
	}
	if err := fn(&accounts[i]); err != nil {
		return model.Profile{}, err
	}
	if err := u.state.saveAccounts(ctx, accounts); err != nil {
		return model.Profile{}, fmt.Errorf("persisting accounts: %w", err)
	}
	return accounts[i].Profile(), nil
}

func indexByID(accounts []model.Account, id string) int {
	for i, a := range accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// uniqueSearches keeps the first position of each name and the last value
// written under it.
func uniqueSearches(in []model.SavedSearch) []model.SavedSearch {
	out := make([]model.SavedSearch, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, s := range in {
		if i, ok := pos[s.Name]; ok {
			out[i] = s
			continue
		}
		pos[s.Name] = len(out)
		out = append(out, s)
	}
	return out
}
