package ingest

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Record is one raw trip as read from a trip log. Missing numeric fields are
// NaN; missing timestamps are the zero time.
type Record struct {
	TripID   string
	EntityID string

	StartDrive time.Time
	EndDrive   time.Time

	StartLat, StartLon float64
	EndLat, EndLon     float64

	DriveDuration float64 // minutes
	IdleDuration  float64 // minutes
	Mileage       float64 // km
}

// Validate checks the fields every downstream step relies on. Numeric gaps
// are allowed; the symbolizer maps them to its unknown symbol.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.EntityID) == "" {
		return errors.New("trip entity id is required")
	}
	if strings.TrimSpace(r.TripID) == "" {
		return errors.New("trip id is required")
	}
	return nil
}

// Missing reports whether a numeric field was absent or unparsable.
func Missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Group holds the records of one entity in arrival order.
type Group struct {
	EntityID string
	Records  []Record
}

// GroupByEntity partitions records by entity. Groups appear in order of each
// entity's first record and keep their records in input order, which defines
// corpus concatenation order.
func GroupByEntity(records []Record) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		i, ok := index[r.EntityID]
		if !ok {
			i = len(groups)
			index[r.EntityID] = i
			groups = append(groups, Group{EntityID: r.EntityID})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}
