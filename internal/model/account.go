package model

import (
	"context"
	"time"
)

// SavedSearch is a named filter owned by an Account. Empty fields (and "any")
// impose no constraint.
type SavedSearch struct {
	Name            string `json:"searchName"`
	Keywords        string `json:"keywords,omitempty"` // comma-separated
	Location        string `json:"location,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
	JobType         string `json:"jobType,omitempty"`
}

// PushKeys holds the client keys of a web-push subscription.
type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushRegistration is a browser push subscription.
type PushRegistration struct {
	Endpoint       string   `json:"endpoint"`
	ExpirationTime *int64   `json:"expirationTime,omitempty"`
	Keys           PushKeys `json:"keys"`
}

// Account is a registered user as persisted. LastNotified is the watermark:
// postings published at or before it were already considered. The zero value
// means "never notified".
type Account struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Email                string            `json:"email"`
	PasswordHash         string            `json:"passwordHash"`
	SavedSearches        []SavedSearch     `json:"savedSearches"`
	NotificationsEnabled bool              `json:"notifications"`
	Push                 *PushRegistration `json:"pushSubscription,omitempty"`
	LastNotified         time.Time         `json:"lastNotified"`
}

// Profile is the externally visible view of an Account; it never carries the
// password hash.
type Profile struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Email                string            `json:"email"`
	SavedSearches        []SavedSearch     `json:"savedSearches"`
	NotificationsEnabled bool              `json:"notifications"`
	Push                 *PushRegistration `json:"pushSubscription,omitempty"`
	LastNotified         time.Time         `json:"lastNotified"`
}

// Profile returns the account view without the hash.
func (a Account) Profile() Profile {
	searches := make([]SavedSearch, len(a.SavedSearches))
	copy(searches, a.SavedSearches)
	return Profile{
		ID:                   a.ID,
		Name:                 a.Name,
		Email:                a.Email,
		SavedSearches:        searches,
		NotificationsEnabled: a.NotificationsEnabled,
		Push:                 a.Push,
		LastNotified:         a.LastNotified,
	}
}

// ProfileUpdate is a partial profile update; nil fields are left untouched.
type ProfileUpdate struct {
	SavedSearches        *[]SavedSearch
	NotificationsEnabled *bool
}

// NotificationUnit pairs one account's contact info with one saved search and
// the postings that newly match it. Units are never persisted.
type NotificationUnit struct {
	AccountID  string
	Email      string
	Push       *PushRegistration
	SearchName string
	Postings   []Posting
}

// EmailSender delivers a notification email. Transport is up to the implementation.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string, postings []Posting) error
}

// PushPayload is the small JSON document delivered to a push registration.
type PushPayload struct {
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Data  PushPayloadData `json:"data"`
}

// PushPayloadData carries the target URL of a push message.
type PushPayloadData struct {
	URL string `json:"url"`
}

// PushSender delivers one push message to a registration.
type PushSender interface {
	SendPush(ctx context.Context, reg PushRegistration, payload PushPayload) error
}
