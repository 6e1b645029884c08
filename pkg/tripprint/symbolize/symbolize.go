// Package symbolize turns raw trip records into symbol strings. Each trip
// becomes one block per feature: start time, start cell, end time, end cell,
// drive duration, idle duration, mileage.
package symbolize

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/tripprint/pkg/tripprint/ingest"
)

// earthCircumferenceKM is used for the equirectangular grid projection.
const earthCircumferenceKM = 40075.0

// Symbolizer maps one trip to its symbol string.
type Symbolizer interface {
	Symbolize(r ingest.Record) string
}

// Func adapts a plain function to Symbolizer.
type Func func(r ingest.Record) string

// Symbolize implements Symbolizer.
func (f Func) Symbolize(r ingest.Record) string { return f(r) }

// Scale is an ordered list of upper bounds and the symbol for each bucket.
// A value falls into the first bucket whose bound it is strictly below. When
// Symbols has one more entry than Thresholds, the extra symbol catches
// everything at or above the last bound.
type Scale struct {
	Thresholds []float64 `yaml:"thresholds"`
	Symbols    string    `yaml:"symbols"`
}

// Config holds the bucket boundaries for every feature.
type Config struct {
	TimeOfDay     Scale   `yaml:"time_of_day"` // minutes since midnight
	GridSizeKM    float64 `yaml:"grid_size_km"`
	DriveDuration Scale   `yaml:"drive_duration"`
	IdleDuration  Scale   `yaml:"idle_duration"`
	Mileage       Scale   `yaml:"mileage"`
	Unknown       string  `yaml:"unknown"`
}

// DefaultConfig returns the production bucket boundaries.
func DefaultConfig() Config {
	return Config{
		TimeOfDay: Scale{
			Thresholds: []float64{270, 360, 480, 660, 780, 870, 990, 1140, 1260, 1440},
			Symbols:    "jabcdefghi",
		},
		GridSizeKM: 2,
		DriveDuration: Scale{
			Thresholds: []float64{7, 15, 25, 50, 100, 140, 240},
			Symbols:    "abcdefgh",
		},
		IdleDuration: Scale{
			Thresholds: []float64{3, 5, 8, 11, 15, 18, 25},
			Symbols:    "abcdefgh",
		},
		Mileage: Scale{
			Thresholds: []float64{4, 8, 15, 30, 35, 38, 55, 70, 85, 100, 115},
			Symbols:    "abcdefghijkl",
		},
		Unknown: "n",
	}
}

// Validate checks that every scale is ascending and has a symbol per bucket.
func (c Config) Validate() error {
	scales := []struct {
		name string
		s    Scale
	}{
		{"time_of_day", c.TimeOfDay},
		{"drive_duration", c.DriveDuration},
		{"idle_duration", c.IdleDuration},
		{"mileage", c.Mileage},
	}
	for _, sc := range scales {
		n := len([]rune(sc.s.Symbols))
		if n != len(sc.s.Thresholds) && n != len(sc.s.Thresholds)+1 {
			return fmt.Errorf("%s: %d symbols for %d thresholds", sc.name, n, len(sc.s.Thresholds))
		}
		for i := 1; i < len(sc.s.Thresholds); i++ {
			if sc.s.Thresholds[i] <= sc.s.Thresholds[i-1] {
				return fmt.Errorf("%s: thresholds must be strictly ascending", sc.name)
			}
		}
	}
	if c.GridSizeKM <= 0 {
		return fmt.Errorf("grid_size_km must be positive, got %v", c.GridSizeKM)
	}
	if c.Unknown == "" {
		return fmt.Errorf("unknown symbol must be set")
	}
	return nil
}

// Buckets is the default Symbolizer.
type Buckets struct {
	cfg Config
}

// New creates a bucket symbolizer. The config is assumed valid.
func New(cfg Config) *Buckets {
	return &Buckets{cfg: cfg}
}

// Symbolize implements Symbolizer.
func (b *Buckets) Symbolize(r ingest.Record) string {
	var sb strings.Builder
	sb.WriteString(b.timeOfDay(r.StartDrive))
	sb.WriteString(b.Cell(r.StartLat, r.StartLon))
	sb.WriteString(b.timeOfDay(r.EndDrive))
	sb.WriteString(b.Cell(r.EndLat, r.EndLon))
	sb.WriteString(b.bucket(b.cfg.DriveDuration, r.DriveDuration))
	sb.WriteString(b.bucket(b.cfg.IdleDuration, r.IdleDuration))
	sb.WriteString(b.bucket(b.cfg.Mileage, r.Mileage))
	return sb.String()
}

func (b *Buckets) timeOfDay(t time.Time) string {
	if t.IsZero() {
		return b.cfg.Unknown
	}
	return b.bucket(b.cfg.TimeOfDay, float64(t.Hour()*60+t.Minute()))
}

func (b *Buckets) bucket(s Scale, v float64) string {
	if ingest.Missing(v) {
		return b.cfg.Unknown
	}
	symbols := []rune(s.Symbols)
	for i, bound := range s.Thresholds {
		if v < bound {
			return string(symbols[i])
		}
	}
	if len(symbols) > len(s.Thresholds) {
		return string(symbols[len(symbols)-1])
	}
	return b.cfg.Unknown
}

// Cell encodes the grid cell of a coordinate as two letter groups, x from
// longitude then y from latitude. Coordinates off the globe are unknown.
func (b *Buckets) Cell(lat, lon float64) string {
	if ingest.Missing(lat) || ingest.Missing(lon) {
		return b.cfg.Unknown
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return b.cfg.Unknown
	}
	kmPerDegree := earthCircumferenceKM / 360.0
	x := int(lon * kmPerDegree / b.cfg.GridSizeKM)
	y := int(lat * kmPerDegree / b.cfg.GridSizeKM)
	return Letters(x) + Letters(y)
}

// Letters renders an index in bijective base 26: 0 is "a", 25 is "z", 26 is
// "aa". Negative indices use their magnitude.
func Letters(index int) string {
	if index < 0 {
		index = -index
	}
	var buf []byte
	for index >= 0 {
		buf = append(buf, byte('a'+index%26))
		index = index/26 - 1
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

var _ Symbolizer = (*Buckets)(nil)
