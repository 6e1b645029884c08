package ingest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// tripNamespace scopes derived trip ids.
var tripNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/cognicore/tripprint/trips"))

// TripIDs derives ids for trips that arrive without one. The id is a
// name-based UUID of the entity, the raw row and how many identical rows of
// that entity came before it, so reading the same log again yields the same
// ids and appended rows do not shift earlier ones.
type TripIDs struct {
	seen map[string]int
}

// NewTripIDs starts a derivation for one pass over a log.
func NewTripIDs() *TripIDs {
	return &TripIDs{seen: make(map[string]int)}
}

// Next returns the id of the next trip with this entity and raw content.
func (g *TripIDs) Next(entityID, raw string) string {
	key := entityID + "\x00" + raw
	n := g.seen[key]
	g.seen[key] = n + 1
	return uuid.NewSHA1(tripNamespace, []byte(key+"\x00"+strconv.Itoa(n))).String()
}

// Canonical renders every field except the trip id in a fixed form, for
// records built in code rather than read from a log.
func (r *Record) Canonical() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	ts := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		ts(r.StartDrive), ts(r.EndDrive),
		f(r.StartLat), f(r.StartLon), f(r.EndLat), f(r.EndLon),
		f(r.DriveDuration), f(r.IdleDuration), f(r.Mileage),
		r.EntityID,
	)
}
