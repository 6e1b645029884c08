package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu           sync.RWMutex
	nextSeq      int64
	trips        map[string][]store.Trip
	tripIDs      map[string]struct{}
	thresholds   map[string]float64
	calibrations map[string][]store.Calibration
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextSeq:      1,
		trips:        make(map[string][]store.Trip),
		tripIDs:      make(map[string]struct{}),
		thresholds:   make(map[string]float64),
		calibrations: make(map[string][]store.Calibration),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// AppendTrip records a trip and assigns its sequence number. A trip id seen
// before is rejected with internalerr.ErrDuplicate.
func (s *Store) AppendTrip(ctx context.Context, t store.Trip) (store.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.EntityID == "" || t.ID == "" {
		return store.Trip{}, fmt.Errorf("%w: trip needs id and entity", internalerr.ErrInvalidInput)
	}
	if _, ok := s.tripIDs[t.ID]; ok {
		return store.Trip{}, fmt.Errorf("trip %s: %w", t.ID, internalerr.ErrDuplicate)
	}
	if t.RecordedAt.IsZero() {
		t.RecordedAt = time.Now().UTC()
	}
	t.Seq = s.nextSeq
	s.nextSeq++
	s.tripIDs[t.ID] = struct{}{}
	s.trips[t.EntityID] = append(s.trips[t.EntityID], t)
	return t, nil
}

// TripsFor returns the entity's trips in arrival order.
func (s *Store) TripsFor(ctx context.Context, entityID string) ([]store.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trips := s.trips[entityID]
	out := make([]store.Trip, len(trips))
	copy(out, trips)
	return out, nil
}

// Entities returns every entity with at least one trip, sorted.
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.trips))
	for id := range s.trips {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// UpsertThreshold sets the entity's current threshold.
func (s *Store) UpsertThreshold(ctx context.Context, entityID string, threshold float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entityID == "" {
		return nil
	}
	s.thresholds[entityID] = threshold
	return nil
}

// GetThreshold returns the stored threshold if present.
func (s *Store) GetThreshold(ctx context.Context, entityID string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	th, ok := s.thresholds[entityID]
	return th, ok, nil
}

// AppendCalibration records a calibration run.
func (s *Store) AppendCalibration(ctx context.Context, c store.Calibration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" || c.EntityID == "" {
		return fmt.Errorf("%w: calibration needs id and entity", internalerr.ErrInvalidInput)
	}
	s.calibrations[c.EntityID] = append(s.calibrations[c.EntityID], c)
	return nil
}

// CalibrationsFor returns the entity's calibrations, newest first.
func (s *Store) CalibrationsFor(ctx context.Context, entityID string, limit int) ([]store.Calibration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	runs := s.calibrations[entityID]
	out := make([]store.Calibration, 0, min(limit, len(runs)))
	for i := len(runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, runs[i])
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
