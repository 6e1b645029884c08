// Package report renders the outcome of a calibration run for one entity,
// as JSON for machines and as a standalone HTML page with the ROC curve.
package report

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/cognicore/tripprint/pkg/tripprint/calibrate"
	"github.com/cognicore/tripprint/pkg/tripprint/profile"
)

// ProfileShape summarizes the entity's trie at report time.
type ProfileShape struct {
	Trips        int            `json:"trips"`
	CorpusLen    int            `json:"corpus_len"`
	Leaves       int64          `json:"leaves"`
	Nodes        int            `json:"nodes"`
	RootChildren int            `json:"root_children"`
	Descendants  map[string]int `json:"descendants"`
	Alphabet     string         `json:"alphabet"`
	Threshold    float64        `json:"threshold"`
	Calibrated   bool           `json:"calibrated"`
}

// Calibration is the selected operating point.
type Calibration struct {
	Threshold   float64 `json:"threshold"`
	J           float64 `json:"youden_j"`
	TP          int     `json:"tp"`
	TN          int     `json:"tn"`
	FP          int     `json:"fp"`
	FN          int     `json:"fn"`
	Recall      float64 `json:"recall"`
	Precision   float64 `json:"precision"`
	Specificity float64 `json:"specificity"`
	AUC         float64 `json:"auc"`
	Samples     int     `json:"samples"`
}

// CurvePoint is a JSON-safe ROC point. Threshold is nil for the strictest
// point, whose threshold is +Inf.
type CurvePoint struct {
	Threshold *float64 `json:"threshold"`
	FPR       float64  `json:"fpr"`
	TPR       float64  `json:"tpr"`
}

// ScoredTrip is one trip of the labeled batch.
type ScoredTrip struct {
	Sequence string  `json:"sequence"`
	Score    float64 `json:"score"`
	Belongs  bool    `json:"belongs"`
}

// EntityReport is everything known about one calibration run.
type EntityReport struct {
	Title       string       `json:"title"`
	EntityID    string       `json:"entity_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Profile     ProfileShape `json:"profile"`
	Calibration *Calibration `json:"calibration,omitempty"`
	Curve       []CurvePoint `json:"curve,omitempty"`
	Trips       []ScoredTrip `json:"trips,omitempty"`
}

// New assembles a report. res may be nil when the run failed or no run has
// been made yet; the profile shape is reported regardless.
func New(title string, sum profile.Summary, res *calibrate.Result, samples []calibrate.Sample) EntityReport {
	r := EntityReport{
		Title:       title,
		EntityID:    sum.EntityID,
		GeneratedAt: time.Now().UTC(),
		Profile: ProfileShape{
			Trips:        sum.Trips,
			CorpusLen:    sum.CorpusLen,
			Leaves:       sum.Leaves,
			Nodes:        sum.Nodes,
			RootChildren: sum.RootChildren,
			Descendants:  sum.Descendants,
			Alphabet:     sum.Alphabet,
			Threshold:    sum.Threshold,
			Calibrated:   sum.Calibrated,
		},
	}

	for _, s := range samples {
		r.Trips = append(r.Trips, ScoredTrip{Sequence: s.Sequence, Score: s.Score, Belongs: s.Belongs})
	}

	if res != nil {
		r.Calibration = &Calibration{
			Threshold:   res.Threshold,
			J:           res.J,
			TP:          res.TP,
			TN:          res.TN,
			FP:          res.FP,
			FN:          res.FN,
			Recall:      res.Recall,
			Precision:   res.Precision,
			Specificity: res.Specificity,
			AUC:         res.AUC,
			Samples:     res.TP + res.TN + res.FP + res.FN,
		}
		r.Curve = Curve(res.Curve)
	}
	return r
}

// Curve converts calibrator points to their JSON form.
func Curve(points []calibrate.Point) []CurvePoint {
	out := make([]CurvePoint, 0, len(points))
	for _, p := range points {
		cp := CurvePoint{FPR: p.FPR, TPR: p.TPR}
		if !math.IsInf(p.Threshold, 0) {
			th := p.Threshold
			cp.Threshold = &th
		}
		out = append(out, cp)
	}
	return out
}

// CurveJSON encodes points compactly, for storage next to a calibration run.
func CurveJSON(points []calibrate.Point) (string, error) {
	data, err := json.Marshal(Curve(points))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteJSON writes the report as indented JSON.
func (r EntityReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
