package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/store"
)

func TestTrips_ArrivalOrderPerEntity(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, tr := range []store.Trip{
		{ID: "t1", EntityID: "a", Symbols: "ab"},
		{ID: "t2", EntityID: "b", Symbols: "cd"},
		{ID: "t3", EntityID: "a", Symbols: "ef"},
	} {
		if _, err := s.AppendTrip(ctx, tr); err != nil {
			t.Fatalf("AppendTrip(%s): %v", tr.ID, err)
		}
	}

	trips, err := s.TripsFor(ctx, "a")
	if err != nil {
		t.Fatalf("TripsFor: %v", err)
	}
	if len(trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(trips))
	}
	if trips[0].Symbols != "ab" || trips[1].Symbols != "ef" {
		t.Errorf("expected [ab ef], got [%s %s]", trips[0].Symbols, trips[1].Symbols)
	}
	if trips[0].Seq >= trips[1].Seq {
		t.Errorf("sequence numbers should increase: %d, %d", trips[0].Seq, trips[1].Seq)
	}
	if trips[0].RecordedAt.IsZero() {
		t.Error("RecordedAt should default to now")
	}

	ents, _ := s.Entities(ctx)
	if len(ents) != 2 || ents[0] != "a" || ents[1] != "b" {
		t.Errorf("expected sorted [a b], got %v", ents)
	}
}

func TestTrips_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.AppendTrip(ctx, store.Trip{ID: "t1", EntityID: "a", Symbols: "ab"}); err != nil {
		t.Fatalf("AppendTrip: %v", err)
	}
	_, err := s.AppendTrip(ctx, store.Trip{ID: "t1", EntityID: "a", Symbols: "ab"})
	if !errors.Is(err, internalerr.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	trips, _ := s.TripsFor(ctx, "a")
	if len(trips) != 1 {
		t.Errorf("duplicate should not be stored, got %d trips", len(trips))
	}
}

func TestTrips_InvalidInput(t *testing.T) {
	_, err := New().AppendTrip(context.Background(), store.Trip{ID: "t1"})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestThreshold_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, _ := s.GetThreshold(ctx, "a"); ok {
		t.Fatal("expected no threshold before upsert")
	}
	_ = s.UpsertThreshold(ctx, "a", 1.5)
	_ = s.UpsertThreshold(ctx, "a", 2.5)

	th, ok, err := s.GetThreshold(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("GetThreshold: ok=%v err=%v", ok, err)
	}
	if th != 2.5 {
		t.Errorf("expected 2.5, got %v", th)
	}
}

func TestCalibrations_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, id := range []string{"01A", "01B", "01C"} {
		c := store.Calibration{ID: id, EntityID: "a", Threshold: float64(i)}
		if err := s.AppendCalibration(ctx, c); err != nil {
			t.Fatalf("AppendCalibration: %v", err)
		}
	}

	runs, err := s.CalibrationsFor(ctx, "a", 2)
	if err != nil {
		t.Fatalf("CalibrationsFor: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "01C" || runs[1].ID != "01B" {
		t.Errorf("expected [01C 01B], got [%s %s]", runs[0].ID, runs[1].ID)
	}
}
