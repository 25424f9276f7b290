// Package history keeps the bounded, newest-first log of successful
// translations shown on the dashboard and recent screens.
package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"codeberg.org/snonux/marghivasal/internal"
	"codeberg.org/snonux/marghivasal/internal/store"
)

const (
	// StorageKey is the key the log is persisted under
	StorageKey = "translationHistory"
	// MaxRecords is the number of records kept; older ones are dropped
	MaxRecords = 30
)

// Record is one successful translation. Records are never mutated after
// they are stored.
type Record struct {
	ID             string    `json:"id"`
	SourceLanguage string    `json:"fromCode"`
	TargetLanguage string    `json:"toCode"`
	SourceText     string    `json:"text"`
	ResultText     string    `json:"translated"`
	Timestamp      time.Time `json:"time"`
}

// Store is the persisted translation history
type Store struct {
	kv  store.KV
	now func() time.Time
	mu  sync.Mutex
}

// New creates a history store on top of kv
func New(kv store.KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Record prepends r, keeps the newest MaxRecords entries and persists the
// result before returning. Missing ID and Timestamp are filled in.
func (s *Store) Record(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}
	if r.ID == "" {
		r.ID = internal.GenerateRecordID(r.Timestamp, r.SourceText)
	}

	records, err := s.load(ctx)
	if err != nil {
		return err
	}

	records = append([]Record{r}, records...)
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}

	return store.SetJSON(ctx, s.kv, StorageKey, records)
}

// List returns the stored records newest first. The slice is a copy.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Clear removes every record
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return store.SetJSON(ctx, s.kv, StorageKey, []Record{})
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int, error) {
	records, err := s.List(ctx)
	return len(records), err
}

func (s *Store) load(ctx context.Context) ([]Record, error) {
	var records []Record
	err := store.GetJSON(ctx, s.kv, StorageKey, &records)
	if errors.Is(err, store.ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
