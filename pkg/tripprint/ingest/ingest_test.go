package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `vehicle_id,start_drive,end_drive,start_latitude,start_longitude,end_latitude,end_longitude,drive_duration,idle_duration,mileage
235268,01/03/2024 07:15,01/03/2024 07:40,32.08,34.78,32.11,34.85,25,4,12.5
111,01/03/2024 09:00,01/03/2024 09:30,31.77,35.21,,35.20,n/a,6,30
235268,02/03/2024 18:05,02/03/2024 18:20,32.11,34.85,32.08,34.78,15,3,12.1
,02/03/2024 18:05,02/03/2024 18:20,1,1,1,1,1,1,1
`

func TestReadCSV(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, recs, 3, "row without entity id should be skipped")

	first := recs[0]
	assert.Equal(t, "235268", first.EntityID)
	assert.NotEmpty(t, first.TripID)
	assert.Equal(t, time.Date(2024, 3, 1, 7, 15, 0, 0, time.UTC), first.StartDrive)
	assert.Equal(t, 32.08, first.StartLat)
	assert.Equal(t, 25.0, first.DriveDuration)
	assert.Equal(t, 12.5, first.Mileage)

	second := recs[1]
	assert.True(t, Missing(second.EndLat))
	assert.True(t, Missing(second.DriveDuration))
	assert.Equal(t, 6.0, second.IdleDuration)

	assert.NotEqual(t, recs[0].TripID, recs[2].TripID)
}

func TestReadCSV_RequiresEntityColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n"))
	assert.Error(t, err)
}

func TestLoadFromJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.jsonl")
	data := `{"trip_id":"t1","vehicle_id":"7","start_drive":"01/03/2024 07:15","drive_duration":12}
not json
{"trip_id":"t2","vehicle_id":"7","mileage":40.5}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	recs, err := LoadFromJSONL(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "t1", recs[0].TripID)
	assert.Equal(t, 12.0, recs[0].DriveDuration)
	assert.True(t, Missing(recs[0].Mileage))
	assert.True(t, recs[1].StartDrive.IsZero())
	assert.Equal(t, 40.5, recs[1].Mileage)
}

func TestLoadFromJSONL_NoValidTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))

	_, err := LoadFromJSONL(path)
	assert.Error(t, err)
}

func TestGroupByEntity_PreservesOrder(t *testing.T) {
	recs := []Record{
		{TripID: "1", EntityID: "b"},
		{TripID: "2", EntityID: "a"},
		{TripID: "3", EntityID: "b"},
		{TripID: "4", EntityID: "a"},
		{TripID: "5", EntityID: "b"},
	}

	groups := GroupByEntity(recs)
	require.Len(t, groups, 2)
	assert.Equal(t, "b", groups[0].EntityID)
	assert.Equal(t, "a", groups[1].EntityID)

	var ids []string
	for _, r := range groups[0].Records {
		ids = append(ids, r.TripID)
	}
	assert.Equal(t, []string{"1", "3", "5"}, ids)
}

func TestReadCSV_DerivedTripIDsAreStable(t *testing.T) {
	first, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	second, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].TripID, second[i].TripID, "row %d", i)
	}

	// appending rows keeps earlier ids
	grown, err := ReadCSV(strings.NewReader(sampleCSV + "111,05/03/2024 10:00,05/03/2024 10:20,31.77,35.21,31.78,35.22,20,3,9\n"))
	require.NoError(t, err)
	require.Len(t, grown, len(first)+1)
	for i := range first {
		assert.Equal(t, first[i].TripID, grown[i].TripID)
	}
}

func TestReadCSV_IdenticalRowsGetDistinctIDs(t *testing.T) {
	row := "235268,01/03/2024 07:15,01/03/2024 07:40,32.08,34.78,32.11,34.85,25,4,12.5\n"
	data := "vehicle_id,start_drive,end_drive,start_latitude,start_longitude,end_latitude,end_longitude,drive_duration,idle_duration,mileage\n" + row + row

	recs, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].TripID, recs[1].TripID)
}

func TestLoadFromJSONL_DerivedTripIDsAreStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.jsonl")
	data := `{"vehicle_id":"7","start_drive":"01/03/2024 07:15","drive_duration":12}
{"vehicle_id":"7","start_drive":"01/03/2024 07:15","drive_duration":12}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	first, err := LoadFromJSONL(path)
	require.NoError(t, err)
	second, err := LoadFromJSONL(path)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.NotEqual(t, first[0].TripID, first[1].TripID)
	assert.Equal(t, first[0].TripID, second[0].TripID)
	assert.Equal(t, first[1].TripID, second[1].TripID)
}

func TestTripIDs_DependOnEntity(t *testing.T) {
	a := NewTripIDs().Next("a", "row")
	b := NewTripIDs().Next("b", "row")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, NewTripIDs().Next("a", "row"))
}
