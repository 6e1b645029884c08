// Package profile keeps one behavioral profile per entity: its symbol
// corpus, the trie parsed from it and its decision threshold.
package profile

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/tripprint/pkg/tripprint/calibrate"
	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/lz78"
)

// DefaultThreshold applies to every profile until it is calibrated.
const DefaultThreshold = 0.02

// DefaultCacheSize bounds the score memo shared by all profiles.
const DefaultCacheSize = 4096

// Profile is the aggregate for one entity. Its mutex serializes every
// mutation so a trie is never grown by two callers at once.
type Profile struct {
	mu         sync.Mutex
	corpus     strings.Builder
	trips      int
	trie       *lz78.Trie
	threshold  float64
	calibrated bool
	revision   uint64
}

// Options configures a Store.
type Options struct {
	DefaultThreshold *float64 // nil means DefaultThreshold; zero is a valid setting
	CacheSize        int
	Logger           *slog.Logger // Optional, uses slog.Default() if nil
}

type cacheKey struct {
	entity   string
	revision uint64
	sequence string
}

// Store maps entity ids to profiles. Profiles are created on the first trip
// and live for the lifetime of the store.
type Store struct {
	mu               sync.RWMutex
	profiles         map[string]*Profile
	defaultThreshold float64
	scores           *lru.Cache[cacheKey, float64]
	logger           *slog.Logger
}

// New creates an empty store.
func New(opts Options) *Store {
	threshold := DefaultThreshold
	if opts.DefaultThreshold != nil {
		threshold = *opts.DefaultThreshold
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	// only fails on a non-positive size
	cache, _ := lru.New[cacheKey, float64](opts.CacheSize)
	return &Store{
		profiles:         make(map[string]*Profile),
		defaultThreshold: threshold,
		scores:           cache,
		logger:           opts.Logger,
	}
}

func (s *Store) get(entityID string) (*Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[entityID]
	return p, ok
}

func (s *Store) getOrCreate(entityID string) *Profile {
	if p, ok := s.get(entityID); ok {
		return p
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[entityID]; ok {
		return p
	}
	p := &Profile{trie: lz78.New(), threshold: s.defaultThreshold}
	s.profiles[entityID] = p
	return p
}

// AddTrip appends symbols to the entity's corpus and re-parses the whole
// corpus into its trie. The cost grows with the corpus, not the trip.
func (s *Store) AddTrip(entityID, symbols string) error {
	if entityID == "" {
		return fmt.Errorf("%w: empty entity id", internalerr.ErrInvalidInput)
	}
	p := s.getOrCreate(entityID)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.corpus.WriteString(symbols)
	p.trips++
	created := p.trie.Build(p.corpus.String())
	p.revision++

	s.logger.Debug("trip added",
		"entity", entityID,
		"trip_len", len(symbols),
		"corpus_len", p.corpus.Len(),
		"new_nodes", len(created),
	)
	return nil
}

// Score returns the probability of sequence under the entity's trie. The
// second result is false, with a zero score, when the entity has no profile.
func (s *Store) Score(entityID, sequence string) (float64, bool) {
	p, ok := s.get(entityID)
	if !ok {
		s.logger.Debug("score for unknown entity", "entity", entityID)
		return 0, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := cacheKey{entity: entityID, revision: p.revision, sequence: sequence}
	if v, ok := s.scores.Get(key); ok {
		return v, true
	}
	v := p.trie.Probability(sequence)
	s.scores.Add(key, v)
	return v, true
}

// Threshold returns the entity's decision threshold, or the default when the
// entity is unknown.
func (s *Store) Threshold(entityID string) (float64, bool) {
	p, ok := s.get(entityID)
	if !ok {
		return s.defaultThreshold, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threshold, true
}

// SetThreshold replaces the entity's decision threshold.
func (s *Store) SetThreshold(entityID string, threshold float64) error {
	p, ok := s.get(entityID)
	if !ok {
		return fmt.Errorf("set threshold for %q: %w", entityID, internalerr.ErrUnknownEntity)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.threshold = threshold
	p.calibrated = true
	return nil
}

// Corpus returns the accumulated symbol string of an entity.
func (s *Store) Corpus(entityID string) (string, bool) {
	p, ok := s.get(entityID)
	if !ok {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.corpus.String(), true
}

// Entities returns all known entity ids, sorted.
func (s *Store) Entities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LabeledTrip is a symbolized trip together with the entity that made it.
type LabeledTrip struct {
	EntityID string
	Symbols  string
}

// ScoreBatch scores trips against one entity's profile. A trip is labeled as
// belonging when it was made by that entity. Results are sorted by score,
// highest first; ties keep input order.
func (s *Store) ScoreBatch(entityID string, trips []LabeledTrip) []calibrate.Sample {
	out := make([]calibrate.Sample, 0, len(trips))
	for _, tr := range trips {
		score, _ := s.Score(entityID, tr.Symbols)
		out = append(out, calibrate.Sample{
			Sequence: tr.Symbols,
			Score:    score,
			Belongs:  tr.EntityID == entityID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Summary describes one profile.
type Summary struct {
	EntityID   string
	Trips      int
	CorpusLen  int
	Threshold  float64
	Calibrated bool
	lz78.Summary
}

// Summary reports the shape of an entity's profile.
func (s *Store) Summary(entityID string) (Summary, bool) {
	p, ok := s.get(entityID)
	if !ok {
		return Summary{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Summary{
		EntityID:   entityID,
		Trips:      p.trips,
		CorpusLen:  p.corpus.Len(),
		Threshold:  p.threshold,
		Calibrated: p.calibrated,
		Summary:    p.trie.Summarize(),
	}, true
}
