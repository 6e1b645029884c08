package calibrate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
)

func TestCalibrate_SeparableScores(t *testing.T) {
	res, err := Calibrate([]float64{0.9, 0.8, 0.3, 0.1}, []bool{true, true, false, false})
	require.NoError(t, err)

	assert.Greater(t, res.Threshold, 0.3)
	assert.LessOrEqual(t, res.Threshold, 0.8)
	assert.InDelta(t, 1.0, res.AUC, 1e-12)
	assert.Equal(t, 2, res.TP)
	assert.Equal(t, 2, res.TN)
	assert.Equal(t, 0, res.FP)
	assert.Equal(t, 0, res.FN)
	assert.Equal(t, 1.0, res.Recall)
	assert.Equal(t, 1.0, res.Precision)
	assert.Equal(t, 1.0, res.Specificity)
	assert.Equal(t, 1.0, res.J)
}

func TestCalibrate_CurveOrdering(t *testing.T) {
	res, err := Calibrate([]float64{0.9, 0.8, 0.3, 0.1}, []bool{true, true, false, false})
	require.NoError(t, err)

	want := []Point{
		{Threshold: math.Inf(1), FPR: 0, TPR: 0},
		{Threshold: 0.9, FPR: 0, TPR: 0.5},
		{Threshold: 0.8, FPR: 0, TPR: 1},
		{Threshold: 0.3, FPR: 0.5, TPR: 1},
		{Threshold: 0.1, FPR: 1, TPR: 1},
	}
	assert.Equal(t, want, res.Curve)
}

func TestCalibrate_TieBreaksOnStrictestThreshold(t *testing.T) {
	// J is 0.5 at both 0.9 and 0.5; the stricter one comes first
	res, err := Calibrate([]float64{0.9, 0.7, 0.5, 0.3}, []bool{true, false, true, false})
	require.NoError(t, err)

	assert.Equal(t, 0.9, res.Threshold)
	assert.InDelta(t, 0.5, res.J, 1e-12)
	assert.Equal(t, 1, res.TP)
	assert.Equal(t, 1, res.FN)
	assert.InDelta(t, 0.75, res.AUC, 1e-12)
}

func TestCalibrate_TiedScoresCollapse(t *testing.T) {
	res, err := Calibrate([]float64{0.5, 0.5}, []bool{true, false})
	require.NoError(t, err)

	assert.Len(t, res.Curve, 2)
	assert.Equal(t, 0.5, res.Threshold)
	assert.Equal(t, 1, res.TP)
	assert.Equal(t, 1, res.FP)
	assert.InDelta(t, 0.5, res.AUC, 1e-12)
	assert.Equal(t, 0.5, res.Precision)
}

func TestCalibrate_InvertedScoresZeroDenominators(t *testing.T) {
	res, err := Calibrate([]float64{0.1, 0.9}, []bool{true, false})
	require.NoError(t, err)

	assert.Equal(t, 0.1, res.Threshold)
	assert.Equal(t, 0, res.TN)
	assert.Equal(t, 0.0, res.Specificity)
	assert.InDelta(t, 0.0, res.AUC, 1e-12)
}

func TestCalibrate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		labels []bool
		want   error
	}{
		{"single class", []float64{0.1, 0.2, 0.3}, []bool{true, true, true}, internalerr.ErrDegenerateLabelSet},
		{"only negatives", []float64{0.1, 0.2}, []bool{false, false}, internalerr.ErrDegenerateLabelSet},
		{"empty", nil, nil, internalerr.ErrDegenerateLabelSet},
		{"nan", []float64{math.NaN(), 0.2}, []bool{true, false}, internalerr.ErrInvalidScore},
		{"inf", []float64{0.1, math.Inf(-1)}, []bool{true, false}, internalerr.ErrInvalidScore},
		{"length mismatch", []float64{0.1}, []bool{true, false}, internalerr.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calibrate(tc.scores, tc.labels)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCalibrateSamples(t *testing.T) {
	samples := []Sample{
		{Sequence: "ab", Score: 40, Belongs: true},
		{Sequence: "cd", Score: 2, Belongs: false},
		{Sequence: "ef", Score: 30, Belongs: true},
	}
	res, err := CalibrateSamples(samples)
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Threshold)
	assert.Equal(t, 2, res.TP)
	assert.Equal(t, 1, res.TN)
}

func TestConfusion_InclusiveThreshold(t *testing.T) {
	tp, tn, fp, fn := Confusion([]float64{1, 2, 3}, []bool{false, true, true}, 2)
	assert.Equal(t, [4]int{2, 1, 0, 0}, [4]int{tp, tn, fp, fn})
}
