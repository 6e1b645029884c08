package store

import (
	"context"
	"time"
)

// Store persists what is needed to rebuild every profile: the trips in
// arrival order, the current thresholds and the history of calibrations.
type Store interface {
	Close() error

	// Trips
	AppendTrip(ctx context.Context, t Trip) (Trip, error)
	TripsFor(ctx context.Context, entityID string) ([]Trip, error)
	Entities(ctx context.Context) ([]string, error)

	// Thresholds
	UpsertThreshold(ctx context.Context, entityID string, threshold float64) error
	GetThreshold(ctx context.Context, entityID string) (float64, bool, error)

	// Calibrations
	AppendCalibration(ctx context.Context, c Calibration) error
	CalibrationsFor(ctx context.Context, entityID string, limit int) ([]Calibration, error)
}

// Trip is one symbolized trip. Seq is assigned by the store and orders trips
// by arrival; replaying them in Seq order rebuilds the same trie.
type Trip struct {
	Seq        int64
	ID         string
	EntityID   string
	Symbols    string
	RecordedAt time.Time
}

// Calibration is one persisted calibration run.
type Calibration struct {
	ID       string
	EntityID string

	Threshold   float64
	J           float64
	AUC         float64
	TP, TN      int
	FP, FN      int
	Recall      float64
	Precision   float64
	Specificity float64
	Samples     int

	// CurveJSON holds the ROC points as encoded by the caller.
	CurveJSON string
	CreatedAt time.Time
}
