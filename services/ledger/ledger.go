package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/models"
	"github.com/zennieheo/hackathon2024-BE/services/metrics"
	"github.com/zennieheo/hackathon2024-BE/services/trackLog"
)

// ErrNothingToPurge reports a purge that found no entries. It is a signal, not a failure.
var ErrNothingToPurge = apperr.NotFound("No intake records to delete.")

// Ledger owns the food intake entries of every owner.
type Ledger struct {
	store    Store
	now      func() time.Time
	location *time.Location
}

type Option func(*Ledger)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithLocation sets the time zone that decides what "today" is.
func WithLocation(location *time.Location) Option {
	return func(l *Ledger) {
		if location != nil {
			l.location = location
		}
	}
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Store() Store {
	return l.store
}

// Today is the current date in the ledger's time zone.
func (l *Ledger) Today() string {
	return l.now().In(l.location).Format(enums.DateLayout)
}

// Record validates and appends one entry stamped with today's date.
func (l *Ledger) Record(ctx context.Context, owner string, input NewEntry) (models.FoodIntakeEntry, error) {
	if err := requireOwner(owner); err != nil {
		return models.FoodIntakeEntry{}, err
	}
	problems := apperr.FieldErrors{}
	input.Validate("", problems)
	if err := problems.Err(); err != nil {
		return models.FoodIntakeEntry{}, err
	}

	entry := l.stamp(owner, input)
	if err := l.store.Create(ctx, &entry); err != nil {
		return models.FoodIntakeEntry{}, apperr.Internal("record intake entry", err)
	}

	metrics.EntriesRecorded.WithLabelValues(entry.MealSlot.String()).Inc()
	return entry, nil
}

// RecordBatch validates every item first and then writes all of them atomically.
func (l *Ledger) RecordBatch(ctx context.Context, owner string, inputs []NewEntry) ([]models.FoodIntakeEntry, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, apperr.FieldErrors{"entries": {"This list may not be empty."}}.Err()
	}
	problems := apperr.FieldErrors{}
	for i, input := range inputs {
		input.Validate(fmt.Sprintf("entries[%d].", i), problems)
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	entries := make([]models.FoodIntakeEntry, 0, len(inputs))
	for _, input := range inputs {
		entries = append(entries, l.stamp(owner, input))
	}
	if err := l.store.CreateBatch(ctx, entries); err != nil {
		return nil, apperr.Internal("record intake batch", err)
	}

	for _, entry := range entries {
		metrics.EntriesRecorded.WithLabelValues(entry.MealSlot.String()).Inc()
	}
	return entries, nil
}

// EntriesFor returns the entries of (owner, date) in insertion order.
func (l *Ledger) EntriesFor(ctx context.Context, owner, date string) ([]models.FoodIntakeEntry, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	entries, err := l.store.Filter(ctx, owner, date)
	if err != nil {
		return nil, apperr.Internal("list intake entries", err)
	}
	if entries == nil {
		entries = []models.FoodIntakeEntry{}
	}
	return entries, nil
}

// PurgeAll deletes every entry of owner across all dates.
func (l *Ledger) PurgeAll(ctx context.Context, owner string) (int64, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}
	deleted, err := l.store.DeleteByOwner(ctx, owner)
	if err != nil {
		return 0, apperr.Internal("purge intake entries", err)
	}
	if deleted == 0 {
		return 0, ErrNothingToPurge
	}

	metrics.Purges.Inc()
	trackLog.WithFields(logrus.Fields{"task": "purge", "owner_id": owner, "deleted": deleted}).Info("intake ledger purged")
	return deleted, nil
}

func (l *Ledger) stamp(owner string, input NewEntry) models.FoodIntakeEntry {
	now := l.now().In(l.location)
	slot, _ := ParseMealSlot(input.MealSlot)
	return models.FoodIntakeEntry{
		OwnerID:       owner,
		Date:          now.Format(enums.DateLayout),
		MealSlot:      slot,
		Calories:      *input.Calories,
		Carbohydrates: *input.Carbohydrates,
		Protein:       *input.Protein,
		Fat:           *input.Fat,
		CreatedAt:     &now,
	}
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return apperr.FieldErrors{"owner": {msgRequired}}.Err()
	}
	return nil
}
