// Package dispatch turns newly stored postings into per-search notification
// units and delivers them with failure isolated to each unit.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobbeacon/internal/filter"
	"github.com/amishk599/jobbeacon/internal/model"
	"github.com/amishk599/jobbeacon/internal/notifier"
)

// DefaultConcurrency bounds in-flight deliveries when none is configured.
const DefaultConcurrency = 8

// PostingLister reads stored postings.
type PostingLister interface {
	List(ctx context.Context) ([]model.Posting, error)
}

// AccountStore reads accounts and advances their watermark.
type AccountStore interface {
	List(ctx context.Context) ([]model.Account, error)
	TouchLastNotified(ctx context.Context, id string, ts time.Time) error
}

// Outcome counts one Deliver call.
type Outcome struct {
	Succeeded       int
	Failed          int
	WatermarkErrors int
}

// Dispatcher builds and delivers notification units.
type Dispatcher struct {
	postings    PostingLister
	accounts    AccountStore
	email       model.EmailSender
	push        model.PushSender
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func New(postings PostingLister, accounts AccountStore, email model.EmailSender, push model.PushSender, concurrency int, logger *slog.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		postings:    postings,
		accounts:    accounts,
		email:       email,
		push:        push,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Pending returns one unit per (account, saved search) pair with at least one
// posting published after the account's watermark. Accounts with
// notifications disabled or no saved searches are skipped.
func (d *Dispatcher) Pending(ctx context.Context) ([]model.NotificationUnit, error) {
	postings, err := d.postings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	accounts, err := d.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	var units []model.NotificationUnit
	for _, a := range accounts {
		if !a.NotificationsEnabled || len(a.SavedSearches) == 0 {
			continue
		}

		var newer []model.Posting
		for _, p := range postings {
			if p.PostedAt.After(a.LastNotified) {
				newer = append(newer, p)
			}
		}
		if len(newer) == 0 {
			continue
		}

		for _, s := range a.SavedSearches {
			matched := filter.Apply(newer, filter.FromSavedSearch(s))
			if len(matched) == 0 {
				continue
			}
			units = append(units, model.NotificationUnit{
				AccountID:  a.ID,
				Email:      a.Email,
				Push:       a.Push,
				SearchName: s.Name,
				Postings:   matched,
			})
		}
	}
	return units, nil
}

// Deliver sends every unit concurrently. A failing unit never affects its
// siblings. Once all units have finished, each account whose units all
// succeeded has its watermark moved to the completion time; an account with
// any failed unit keeps its old watermark and is retried next run.
func (d *Dispatcher) Deliver(ctx context.Context, units []model.NotificationUnit) Outcome {
	var out Outcome
	if len(units) == 0 {
		return out
	}

	failed := make([]bool, len(units))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, u := range units {
		g.Go(func() error {
			if err := d.deliverRecovered(ctx, u); err != nil {
				failed[i] = true
				d.logger.Error("notification failed", "error", &model.DeliveryError{Email: u.Email, Search: u.SearchName, Err: err})
			}
			return nil
		})
	}
	_ = g.Wait()
	completedAt := d.now()

	allOK := make(map[string]bool)
	var order []string
	for i, u := range units {
		ok, seen := allOK[u.AccountID]
		if !seen {
			order = append(order, u.AccountID)
			ok = true
		}
		if failed[i] {
			out.Failed++
			ok = false
		} else {
			out.Succeeded++
		}
		allOK[u.AccountID] = ok
	}

	for _, id := range order {
		if !allOK[id] {
			continue
		}
		if err := d.accounts.TouchLastNotified(ctx, id, completedAt); err != nil {
			out.WatermarkErrors++
			d.logger.Error("advancing watermark failed", "account", id, "error", err)
		}
	}

	d.logger.Info("notifications delivered",
		"units", len(units),
		"succeeded", out.Succeeded,
		"failed", out.Failed,
	)
	return out
}

// deliverRecovered runs deliverUnit and turns a panicking sender into a unit
// failure.
func (d *Dispatcher) deliverRecovered(ctx context.Context, u model.NotificationUnit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	return d.deliverUnit(ctx, u)
}

// deliverUnit sends the email and then one push per posting. The first error
// fails the unit.
func (d *Dispatcher) deliverUnit(ctx context.Context, u model.NotificationUnit) error {
	subject, body, err := notifier.RenderEmail(u.SearchName, u.Postings)
	if err != nil {
		return err
	}
	if err := d.email.SendEmail(ctx, u.Email, subject, body, u.Postings); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	if u.Push == nil {
		return nil
	}
	for _, p := range u.Postings {
		if err := d.push.SendPush(ctx, *u.Push, notifier.BuildPushPayload(p)); err != nil {
			return fmt.Errorf("sending push for %s: %w", p.URL, err)
		}
	}
	return nil
}
