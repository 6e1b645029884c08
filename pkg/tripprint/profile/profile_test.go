package profile

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/lz78"
)

func TestStore_AddTripAndScore(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.AddTrip("235268", "aabdbbacbbda"))

	score, ok := s.Score("235268", "bdca")
	require.True(t, ok)
	assert.InDelta(t, 32.0, score, 1e-9)

	corpus, ok := s.Corpus("235268")
	require.True(t, ok)
	assert.Equal(t, "aabdbbacbbda", corpus)
}

func TestStore_AddTripRebuildsFromFullCorpus(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.AddTrip("v", "aabd"))
	require.NoError(t, s.AddTrip("v", "bbacbbda"))

	// same trie as parsing "aabd" then "aabdbbacbbda" onto one tree
	want := lz78.New()
	want.Build("aabd")
	want.Build("aabdbbacbbda")

	for _, seq := range []string{"bdca", "ab", "bba", "dab"} {
		got, ok := s.Score("v", seq)
		require.True(t, ok)
		assert.Equal(t, want.Probability(seq), got, seq)
	}
}

func TestStore_UnknownEntity(t *testing.T) {
	s := New(Options{})

	score, ok := s.Score("ghost", "abc")
	assert.False(t, ok)
	assert.Equal(t, 0.0, score)

	th, ok := s.Threshold("ghost")
	assert.False(t, ok)
	assert.Equal(t, DefaultThreshold, th)

	err := s.SetThreshold("ghost", 1)
	assert.ErrorIs(t, err, internalerr.ErrUnknownEntity)

	_, ok = s.Summary("ghost")
	assert.False(t, ok)
}

func TestStore_ThresholdRoundTrip(t *testing.T) {
	five := 5.0
	s := New(Options{DefaultThreshold: &five})
	require.NoError(t, s.AddTrip("v", "abc"))

	th, ok := s.Threshold("v")
	require.True(t, ok)
	assert.Equal(t, 5.0, th)

	require.NoError(t, s.SetThreshold("v", 123.5))
	th, _ = s.Threshold("v")
	assert.Equal(t, 123.5, th)

	sum, ok := s.Summary("v")
	require.True(t, ok)
	assert.True(t, sum.Calibrated)
}

func TestStore_EmptyEntityRejected(t *testing.T) {
	s := New(Options{})
	assert.ErrorIs(t, s.AddTrip("", "abc"), internalerr.ErrInvalidInput)
}

func TestStore_CacheInvalidatedByTrip(t *testing.T) {
	s := New(Options{CacheSize: 8})
	require.NoError(t, s.AddTrip("v", "ab"))

	before, _ := s.Score("v", "ba")
	cached, _ := s.Score("v", "ba")
	assert.Equal(t, before, cached)

	require.NoError(t, s.AddTrip("v", "cdcd"))
	after, _ := s.Score("v", "ba")
	assert.InDelta(t, 2500.0, before, 1e-9)
	assert.InDelta(t, 625.0, after, 1e-9)
}

func TestStore_ScoreBatch(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.AddTrip("a", "aabdbbacbbda"))
	require.NoError(t, s.AddTrip("b", "xyzxyz"))

	samples := s.ScoreBatch("a", []LabeledTrip{
		{EntityID: "b", Symbols: "xyz"},
		{EntityID: "a", Symbols: "ab"},
		{EntityID: "a", Symbols: "bdca"},
	})
	require.Len(t, samples, 3)

	assert.Equal(t, "xyz", samples[0].Sequence, "unknown alphabet keeps the base score")
	assert.False(t, samples[0].Belongs)
	assert.Equal(t, "ab", samples[1].Sequence)
	assert.True(t, samples[1].Belongs)
	assert.Equal(t, "bdca", samples[2].Sequence)
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i-1].Score, samples[i].Score)
	}
}

func TestStore_Summary(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.AddTrip("v", "aabdbb"))
	require.NoError(t, s.AddTrip("v", "acbbda"))

	sum, ok := s.Summary("v")
	require.True(t, ok)
	assert.Equal(t, "v", sum.EntityID)
	assert.Equal(t, 2, sum.Trips)
	assert.Equal(t, 12, sum.CorpusLen)
	assert.Equal(t, DefaultThreshold, sum.Threshold)
	assert.False(t, sum.Calibrated)
	assert.Greater(t, sum.Leaves, int64(0))
}

func TestStore_ConcurrentEntities(t *testing.T) {
	s := New(Options{})
	var wg sync.WaitGroup
	for e := 0; e < 8; e++ {
		wg.Add(1)
		go func(e int) {
			defer wg.Done()
			id := fmt.Sprintf("e%d", e)
			for i := 0; i < 20; i++ {
				_ = s.AddTrip(id, "abcab")
				s.Score(id, "abc")
			}
		}(e)
	}
	wg.Wait()

	assert.Len(t, s.Entities(), 8)
	for _, id := range s.Entities() {
		corpus, _ := s.Corpus(id)
		assert.Len(t, corpus, 100)
	}
}

func TestStore_ZeroDefaultThresholdIsKept(t *testing.T) {
	zero := 0.0
	s := New(Options{DefaultThreshold: &zero})
	require.NoError(t, s.AddTrip("v", "abc"))

	th, ok := s.Threshold("v")
	require.True(t, ok)
	assert.Equal(t, 0.0, th)

	th, ok = s.Threshold("ghost")
	assert.False(t, ok)
	assert.Equal(t, 0.0, th)
}
