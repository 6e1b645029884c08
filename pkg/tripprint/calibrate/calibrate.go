// Package calibrate picks a decision threshold for a batch of scored trips
// using the ROC curve and Youden's J statistic.
//
// The calibrator is stateless: it knows nothing about profiles. Writing the
// chosen threshold back is the caller's job.
package calibrate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
)

// Sample is one scored sequence with its ground truth.
type Sample struct {
	Sequence string
	Score    float64
	Belongs  bool
}

// Point is one operating point of the ROC curve: the rates obtained when
// every score >= Threshold is classified positive.
type Point struct {
	Threshold float64
	FPR       float64
	TPR       float64
}

// Result is the calibrated operating point and its classification quality.
type Result struct {
	Threshold float64
	J         float64

	TP, TN, FP, FN int

	Recall      float64
	Precision   float64
	Specificity float64
	AUC         float64

	// Curve runs from the strictest threshold (+Inf) to the most permissive.
	Curve []Point
}

// Calibrate computes the ROC curve of scores against labels, selects the
// threshold that maximizes tpr - fpr and reports the confusion counts at it.
func Calibrate(scores []float64, labels []bool) (Result, error) {
	if len(scores) != len(labels) {
		return Result{}, fmt.Errorf("%w: %d scores for %d labels", internalerr.ErrInvalidInput, len(scores), len(labels))
	}

	var pos, neg int
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return Result{}, fmt.Errorf("%w: sample %d = %v", internalerr.ErrInvalidScore, i, s)
		}
		if labels[i] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return Result{}, fmt.Errorf("%w: %d positive, %d negative", internalerr.ErrDegenerateLabelSet, pos, neg)
	}

	curve := rocCurve(scores, labels, pos, neg)

	best := 1
	bestJ := curve[1].TPR - curve[1].FPR
	for k := 2; k < len(curve); k++ {
		if j := curve[k].TPR - curve[k].FPR; j > bestJ {
			best, bestJ = k, j
		}
	}

	res := Result{
		Threshold: curve[best].Threshold,
		J:         bestJ,
		AUC:       area(curve),
		Curve:     curve,
	}
	res.TP, res.TN, res.FP, res.FN = Confusion(scores, labels, res.Threshold)
	res.Recall = ratio(res.TP, res.TP+res.FN)
	res.Precision = ratio(res.TP, res.TP+res.FP)
	res.Specificity = ratio(res.TN, res.TN+res.FP)
	return res, nil
}

// CalibrateSamples is Calibrate over a slice of samples.
func CalibrateSamples(samples []Sample) (Result, error) {
	scores := make([]float64, len(samples))
	labels := make([]bool, len(samples))
	for i, s := range samples {
		scores[i] = s.Score
		labels[i] = s.Belongs
	}
	return Calibrate(scores, labels)
}

// Confusion classifies every sample as positive iff score >= threshold.
func Confusion(scores []float64, labels []bool, threshold float64) (tp, tn, fp, fn int) {
	for i, s := range scores {
		predicted := s >= threshold
		switch {
		case predicted && labels[i]:
			tp++
		case predicted:
			fp++
		case labels[i]:
			fn++
		default:
			tn++
		}
	}
	return tp, tn, fp, fn
}

// rocCurve sweeps the distinct scores from highest to lowest. Tied scores
// collapse into a single point.
func rocCurve(scores []float64, labels []bool, pos, neg int) []Point {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	inds := make([]int, len(scores))
	floats.Argsort(sorted, inds)

	curve := []Point{{Threshold: math.Inf(1)}}
	var tp, fp int
	for k := len(sorted) - 1; k >= 0; k-- {
		if labels[inds[k]] {
			tp++
		} else {
			fp++
		}
		if k > 0 && sorted[k-1] == sorted[k] {
			continue
		}
		curve = append(curve, Point{
			Threshold: sorted[k],
			FPR:       float64(fp) / float64(neg),
			TPR:       float64(tp) / float64(pos),
		})
	}
	return curve
}

func area(curve []Point) float64 {
	x := make([]float64, len(curve))
	y := make([]float64, len(curve))
	for i, p := range curve {
		x[i], y[i] = p.FPR, p.TPR
	}
	return integrate.Trapezoidal(x, y)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
