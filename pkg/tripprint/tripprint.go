// Package tripprint ties trip ingestion, per-entity profiles, threshold
// calibration and persistence together behind one Engine.
package tripprint

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/tripprint/pkg/tripprint/calibrate"
	"github.com/cognicore/tripprint/pkg/tripprint/ingest"
	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/profile"
	"github.com/cognicore/tripprint/pkg/tripprint/report"
	"github.com/cognicore/tripprint/pkg/tripprint/store"
	"github.com/cognicore/tripprint/pkg/tripprint/symbolize"
)

// Engine is the main facade
type Engine struct {
	store      store.Store
	profiles   *profile.Store
	symbolizer symbolize.Symbolizer
	logger     *slog.Logger

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures an Engine. Store is required.
type Options struct {
	Store      store.Store
	Profiles   *profile.Store       // Optional, built from DefaultThreshold and CacheSize if nil
	Symbolizer symbolize.Symbolizer // Optional, default buckets if nil

	DefaultThreshold *float64 // nil means profile.DefaultThreshold
	CacheSize        int

	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Profiles == nil {
		opts.Profiles = profile.New(profile.Options{
			DefaultThreshold: opts.DefaultThreshold,
			CacheSize:        opts.CacheSize,
			Logger:           opts.Logger,
		})
	}
	if opts.Symbolizer == nil {
		opts.Symbolizer = symbolize.New(symbolize.DefaultConfig())
	}
	return &Engine{
		store:      opts.Store,
		profiles:   opts.Profiles,
		symbolizer: opts.Symbolizer,
		logger:     opts.Logger,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Close closes the underlying store
func (e *Engine) Close() error {
	return e.store.Close()
}

// Profiles exposes the in-memory profile store.
func (e *Engine) Profiles() *profile.Store {
	return e.profiles
}

// Symbolize maps a raw trip record to its symbol string.
func (e *Engine) Symbolize(r ingest.Record) string {
	return e.symbolizer.Symbolize(r)
}

func (e *Engine) newID() string {
	e.idMu.Lock()
	defer e.idMu.Unlock()
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}

// IngestStats counts what happened to an ingested batch.
type IngestStats struct {
	Learned    int
	Duplicates int
	Invalid    int
	Entities   int
}

// Ingest symbolizes, persists and learns each record in input order. A trip
// whose id is already stored is skipped, so re-running an import is safe.
// Records without a trip id get one derived from their content.
func (e *Engine) Ingest(ctx context.Context, records []ingest.Record) (IngestStats, error) {
	var stats IngestStats
	seen := make(map[string]struct{})
	ids := ingest.NewTripIDs()

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if r.TripID == "" {
			r.TripID = ids.Next(r.EntityID, r.Canonical())
		}
		if err := r.Validate(); err != nil {
			stats.Invalid++
			e.logger.Warn("skipping invalid trip", "trip", r.TripID, "error", err)
			continue
		}

		trip := store.Trip{
			ID:         r.TripID,
			EntityID:   r.EntityID,
			Symbols:    e.symbolizer.Symbolize(r),
			RecordedAt: r.StartDrive,
		}
		if err := e.learn(ctx, trip); err != nil {
			if errors.Is(err, internalerr.ErrDuplicate) {
				stats.Duplicates++
				continue
			}
			return stats, err
		}
		stats.Learned++
		seen[r.EntityID] = struct{}{}
	}
	stats.Entities = len(seen)

	e.logger.Info("ingest complete",
		"learned", stats.Learned,
		"duplicates", stats.Duplicates,
		"invalid", stats.Invalid,
		"entities", stats.Entities,
	)
	return stats, nil
}

// learn persists a trip and then grows the entity's profile with it.
func (e *Engine) learn(ctx context.Context, t store.Trip) error {
	if _, err := e.store.AppendTrip(ctx, t); err != nil {
		return fmt.Errorf("persist trip %s: %w", t.ID, err)
	}
	return e.profiles.AddTrip(t.EntityID, t.Symbols)
}

// Score returns how typical sequence is for the entity. The second result is
// false for an entity without a profile.
func (e *Engine) Score(entityID, sequence string) (float64, bool) {
	return e.profiles.Score(entityID, sequence)
}

// LabeledBatch returns the first limit stored trips across all entities, in
// arrival order. A limit of zero returns every trip.
func (e *Engine) LabeledBatch(ctx context.Context, limit int) ([]profile.LabeledTrip, error) {
	entities, err := e.store.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	var all []store.Trip
	for _, id := range entities {
		trips, err := e.store.TripsFor(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("trips for %s: %w", id, err)
		}
		all = append(all, trips...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]profile.LabeledTrip, len(all))
	for i, t := range all {
		out[i] = profile.LabeledTrip{EntityID: t.EntityID, Symbols: t.Symbols}
	}
	return out, nil
}

// Calibration is the outcome of one calibration run.
type Calibration struct {
	ID      string
	Result  calibrate.Result
	Samples []calibrate.Sample
}

// Calibrate scores trips against the entity's profile, selects a threshold
// and writes it back onto the profile and the store. When the calibrator
// fails the previous threshold stays in force and the error is returned.
func (e *Engine) Calibrate(ctx context.Context, entityID string, trips []profile.LabeledTrip) (Calibration, error) {
	if _, ok := e.profiles.Threshold(entityID); !ok {
		return Calibration{}, fmt.Errorf("calibrate %q: %w", entityID, internalerr.ErrUnknownEntity)
	}

	samples := e.profiles.ScoreBatch(entityID, trips)
	res, err := calibrate.CalibrateSamples(samples)
	if err != nil {
		stale, _ := e.profiles.Threshold(entityID)
		e.logger.Warn("calibration failed, keeping threshold",
			"entity", entityID,
			"threshold", stale,
			"samples", len(samples),
			"error", err,
		)
		return Calibration{Samples: samples}, fmt.Errorf("calibrate %q: %w", entityID, err)
	}

	// the store goes first so a failed write leaves both sides on the old value
	if err := e.store.UpsertThreshold(ctx, entityID, res.Threshold); err != nil {
		return Calibration{}, fmt.Errorf("persist threshold: %w", err)
	}
	if err := e.profiles.SetThreshold(entityID, res.Threshold); err != nil {
		return Calibration{}, err
	}

	curve, err := report.CurveJSON(res.Curve)
	if err != nil {
		return Calibration{}, fmt.Errorf("encode curve: %w", err)
	}
	run := store.Calibration{
		ID:          e.newID(),
		EntityID:    entityID,
		Threshold:   res.Threshold,
		J:           res.J,
		AUC:         res.AUC,
		TP:          res.TP,
		TN:          res.TN,
		FP:          res.FP,
		FN:          res.FN,
		Recall:      res.Recall,
		Precision:   res.Precision,
		Specificity: res.Specificity,
		Samples:     len(samples),
		CurveJSON:   curve,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.store.AppendCalibration(ctx, run); err != nil {
		return Calibration{}, fmt.Errorf("persist calibration: %w", err)
	}

	e.logger.Info("calibrated",
		"entity", entityID,
		"threshold", res.Threshold,
		"youden_j", res.J,
		"auc", res.AUC,
		"recall", res.Recall,
		"precision", res.Precision,
		"specificity", res.Specificity,
	)
	return Calibration{ID: run.ID, Result: res, Samples: samples}, nil
}

// Verdict is the decision taken on one trip.
type Verdict struct {
	Score     float64
	Threshold float64
	Accepted  bool
}

// Verify decides whether sequence was made by the entity: it is accepted when
// its score is strictly above the entity's threshold. Accepted trips are
// persisted and learned, so the profile keeps adapting to its owner.
func (e *Engine) Verify(ctx context.Context, entityID, sequence string) (Verdict, error) {
	score, ok := e.profiles.Score(entityID, sequence)
	if !ok {
		return Verdict{}, fmt.Errorf("verify %q: %w", entityID, internalerr.ErrUnknownEntity)
	}
	threshold, _ := e.profiles.Threshold(entityID)

	v := Verdict{Score: score, Threshold: threshold, Accepted: score > threshold}
	e.logger.Debug("verified trip",
		"entity", entityID,
		"score", score,
		"threshold", threshold,
		"accepted", v.Accepted,
	)
	if !v.Accepted {
		return v, nil
	}

	trip := store.Trip{ID: uuid.NewString(), EntityID: entityID, Symbols: sequence}
	if err := e.learn(ctx, trip); err != nil {
		return v, err
	}
	return v, nil
}

// Restore rebuilds every profile from the store by replaying its trips in
// arrival order, then reinstates persisted thresholds. It refuses to run
// once any profile exists, since replaying would append the corpora again.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	if n := len(e.profiles.Entities()); n > 0 {
		return 0, fmt.Errorf("%w: restore into an engine holding %d profiles", internalerr.ErrInvalidInput, n)
	}
	entities, err := e.store.Entities(ctx)
	if err != nil {
		return 0, fmt.Errorf("list entities: %w", err)
	}

	replayed := 0
	for _, id := range entities {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}
		trips, err := e.store.TripsFor(ctx, id)
		if err != nil {
			return replayed, fmt.Errorf("trips for %s: %w", id, err)
		}
		for _, t := range trips {
			if err := e.profiles.AddTrip(t.EntityID, t.Symbols); err != nil {
				return replayed, err
			}
			replayed++
		}

		th, ok, err := e.store.GetThreshold(ctx, id)
		if err != nil {
			return replayed, fmt.Errorf("threshold for %s: %w", id, err)
		}
		if ok {
			if err := e.profiles.SetThreshold(id, th); err != nil {
				return replayed, err
			}
		}
	}

	e.logger.Info("profiles restored", "entities", len(entities), "trips", replayed)
	return replayed, nil
}

// History returns the entity's most recent calibration runs, newest first.
func (e *Engine) History(ctx context.Context, entityID string, limit int) ([]store.Calibration, error) {
	return e.store.CalibrationsFor(ctx, entityID, limit)
}

// Report describes an entity's profile together with a calibration run.
// run may be nil.
func (e *Engine) Report(entityID, title string, run *Calibration) (report.EntityReport, error) {
	sum, ok := e.profiles.Summary(entityID)
	if !ok {
		return report.EntityReport{}, fmt.Errorf("report %q: %w", entityID, internalerr.ErrUnknownEntity)
	}
	if run == nil {
		return report.New(title, sum, nil, nil), nil
	}
	var res *calibrate.Result
	if run.ID != "" {
		res = &run.Result
	}
	return report.New(title, sum, res, run.Samples), nil
}
