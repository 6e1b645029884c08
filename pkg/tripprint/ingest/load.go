package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp format of trip logs (day first).
const TimeLayout = "02/01/2006 15:04"

// Column names of the trip log.
const (
	ColTripID        = "trip_id"
	ColEntityID      = "vehicle_id"
	ColStartDrive    = "start_drive"
	ColEndDrive      = "end_drive"
	ColStartLat      = "start_latitude"
	ColStartLon      = "start_longitude"
	ColEndLat        = "end_latitude"
	ColEndLon        = "end_longitude"
	ColDriveDuration = "drive_duration"
	ColIdleDuration  = "idle_duration"
	ColMileage       = "mileage"
)

// LoadCSV reads a trip log with a header row. Rows without an entity id are
// skipped with a warning; trips without a trip_id get an id derived from the
// row, stable across reads of the same log.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols[ColEntityID]; !ok {
		return nil, fmt.Errorf("missing %q column", ColEntityID)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Record
	ids := NewTripIDs()
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			slog.Warn("skipping malformed trip row", "line", line, "err", err)
			continue
		}

		rec := Record{
			TripID:        field(row, ColTripID),
			EntityID:      field(row, ColEntityID),
			StartDrive:    parseTime(field(row, ColStartDrive)),
			EndDrive:      parseTime(field(row, ColEndDrive)),
			StartLat:      parseFloat(field(row, ColStartLat)),
			StartLon:      parseFloat(field(row, ColStartLon)),
			EndLat:        parseFloat(field(row, ColEndLat)),
			EndLon:        parseFloat(field(row, ColEndLon)),
			DriveDuration: parseFloat(field(row, ColDriveDuration)),
			IdleDuration:  parseFloat(field(row, ColIdleDuration)),
			Mileage:       parseFloat(field(row, ColMileage)),
		}
		if rec.TripID == "" {
			rec.TripID = ids.Next(rec.EntityID, strings.Join(row, "\x1f"))
		}
		if err := rec.Validate(); err != nil {
			slog.Warn("skipping trip row", "line", line, "err", err)
			continue
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		return nil, errors.New("no valid trips found")
	}
	return out, nil
}

// jsonRecord mirrors one line of a JSONL trip log.
type jsonRecord struct {
	TripID        string   `json:"trip_id"`
	EntityID      string   `json:"vehicle_id"`
	StartDrive    string   `json:"start_drive"`
	EndDrive      string   `json:"end_drive"`
	StartLat      *float64 `json:"start_latitude"`
	StartLon      *float64 `json:"start_longitude"`
	EndLat        *float64 `json:"end_latitude"`
	EndLon        *float64 `json:"end_longitude"`
	DriveDuration *float64 `json:"drive_duration"`
	IdleDuration  *float64 `json:"idle_duration"`
	Mileage       *float64 `json:"mileage"`
}

// LoadFromJSONL loads trips from a JSONL file, one object per line.
func LoadFromJSONL(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var out []Record
	ids := NewTripIDs()
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var jr jsonRecord
		if err := json.Unmarshal([]byte(line), &jr); err != nil {
			slog.Warn("skipping malformed JSON", "line", i+1, "path", path, "err", err)
			continue
		}
		rec := Record{
			TripID:        jr.TripID,
			EntityID:      jr.EntityID,
			StartDrive:    parseTime(jr.StartDrive),
			EndDrive:      parseTime(jr.EndDrive),
			StartLat:      deref(jr.StartLat),
			StartLon:      deref(jr.StartLon),
			EndLat:        deref(jr.EndLat),
			EndLon:        deref(jr.EndLon),
			DriveDuration: deref(jr.DriveDuration),
			IdleDuration:  deref(jr.IdleDuration),
			Mileage:       deref(jr.Mileage),
		}
		if rec.TripID == "" {
			rec.TripID = ids.Next(rec.EntityID, line)
		}
		if err := rec.Validate(); err != nil {
			slog.Warn("skipping trip", "line", i+1, "path", path, "err", err)
			continue
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid trips found in %s", path)
	}

	return out, nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
