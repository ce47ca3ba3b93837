package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsAt(zone string, hour int, value float64) Observation {
	return Observation{
		ZoneID:    zone,
		Timestamp: time.Date(2023, 2, 10, hour, 30, 0, 0, time.UTC),
		Source:    SourceSensor,
		ValueDB:   value,
	}
}

func validReport(zone, window string) Report {
	return Report{ZoneID: zone, TimeWindow: window, Status: StatusValid}
}

func TestComputeHotspots_Windowed(t *testing.T) {
	t.Run("documented example", func(t *testing.T) {
		// Z01 day-window observations averaging 58.3 dB plus two validated
		// reports score 58.3 + 2*0.8 = 59.9.
		observations := []Observation{
			obsAt("Z01", 10, 58.0),
			obsAt("Z01", 12, 58.6),
		}
		reports := []Report{
			validReport("Z01", WindowDay),
			validReport("Z01", WindowDay),
		}

		table := ComputeHotspots(observations, reports, VariantWindowed)
		require.Len(t, table, 1)

		expected := Hotspot{
			HotspotID:            "H01",
			ZoneID:               "Z01",
			TimeWindow:           WindowDay,
			SeverityScore:        59.9,
			AvgNoiseDB:           58.3,
			ReportCount:          2,
			ValidatedReportCount: 2,
			Rationale:            "Average noise: 58.3 dB | Validated reports: 2",
		}
		if diff := cmp.Diff(expected, table[0]); diff != "" {
			t.Errorf("hotspot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty inputs yield empty table", func(t *testing.T) {
		table := ComputeHotspots(nil, nil, VariantWindowed)
		assert.Empty(t, table)
	})

	t.Run("sorted descending with severity at least avg", func(t *testing.T) {
		observations := []Observation{
			obsAt("Z01", 10, 55.0),
			obsAt("Z02", 10, 70.0),
			obsAt("Z03", 19, 62.0),
		}
		reports := []Report{
			validReport("Z01", WindowDay),
			validReport("Z01", WindowDay),
			validReport("Z01", WindowDay),
		}

		table := ComputeHotspots(observations, reports, VariantWindowed)
		require.Len(t, table, 3)
		for i := 1; i < len(table); i++ {
			assert.GreaterOrEqual(t, table[i-1].SeverityScore, table[i].SeverityScore)
		}
		for _, h := range table {
			assert.GreaterOrEqual(t, h.SeverityScore, h.AvgNoiseDB, "zone %s", h.ZoneID)
		}
	})

	t.Run("ids renumbered after sorting", func(t *testing.T) {
		observations := []Observation{
			obsAt("Z01", 10, 50.0),
			obsAt("Z02", 10, 80.0),
		}

		table := ComputeHotspots(observations, nil, VariantWindowed)
		require.Len(t, table, 2)
		assert.Equal(t, "H01", table[0].HotspotID)
		assert.Equal(t, "Z02", table[0].ZoneID)
		assert.Equal(t, "H02", table[1].HotspotID)
		assert.Equal(t, "Z01", table[1].ZoneID)
	})

	t.Run("ties keep first appearance order", func(t *testing.T) {
		observations := []Observation{
			obsAt("Z05", 10, 60.0),
			obsAt("Z02", 11, 60.0),
			obsAt("Z09", 12, 60.0),
		}

		table := ComputeHotspots(observations, nil, VariantWindowed)
		require.Len(t, table, 3)
		assert.Equal(t, "Z05", table[0].ZoneID)
		assert.Equal(t, "Z02", table[1].ZoneID)
		assert.Equal(t, "Z09", table[2].ZoneID)
	})

	t.Run("unparseable observation timestamps dropped", func(t *testing.T) {
		observations := []Observation{
			obsAt("Z01", 10, 60.0),
			{ZoneID: "Z01", ValueDB: 120.0}, // zero timestamp
			{ZoneID: "Z02", ValueDB: 90.0},  // zero timestamp, whole zone drops
		}

		table := ComputeHotspots(observations, nil, VariantWindowed)
		require.Len(t, table, 1)
		assert.Equal(t, "Z01", table[0].ZoneID)
		assert.Equal(t, 60.0, table[0].AvgNoiseDB)
	})

	t.Run("buckets without observations omitted", func(t *testing.T) {
		observations := []Observation{obsAt("Z01", 10, 60.0)}
		reports := []Report{validReport("Z02", WindowDay), validReport("Z01", WindowEvening)}

		table := ComputeHotspots(observations, reports, VariantWindowed)
		require.Len(t, table, 1)
		assert.Equal(t, "Z01", table[0].ZoneID)
		assert.Equal(t, WindowDay, table[0].TimeWindow)
	})

	t.Run("report count informational only", func(t *testing.T) {
		observations := []Observation{obsAt("Z01", 10, 60.0)}
		reports := []Report{
			{ZoneID: "Z01", TimeWindow: WindowDay, Status: StatusPending},
			{ZoneID: "Z01", TimeWindow: WindowDay, Status: StatusInvalid},
			validReport("Z01", WindowDay),
		}

		table := ComputeHotspots(observations, reports, VariantWindowed)
		require.Len(t, table, 1)
		assert.Equal(t, 3, table[0].ReportCount)
		assert.Equal(t, 1, table[0].ValidatedReportCount)
		assert.Equal(t, 60.8, table[0].SeverityScore, "only the validated report boosts")
	})

	t.Run("raw report windows normalized before bucketing", func(t *testing.T) {
		observations := []Observation{obsAt("Z01", 10, 60.0)}
		reports := []Report{
			{ZoneID: "Z01", TimeWindow: "afternoon", Status: StatusValid},
			{ZoneID: "Z01", TimeWindow: "", Status: StatusValid}, // falls back to day
		}

		table := ComputeHotspots(observations, reports, VariantWindowed)
		require.Len(t, table, 1)
		assert.Equal(t, 2, table[0].ValidatedReportCount)
	})
}

func TestComputeHotspots_Baseline(t *testing.T) {
	t.Run("one row per zone ignoring windows", func(t *testing.T) {
		observations := []Observation{
			obsAt("Z01", 3, 40.0),
			obsAt("Z01", 14, 60.0),
		}

		table := ComputeHotspots(observations, nil, VariantBaseline)
		require.Len(t, table, 1)
		assert.Equal(t, 50.0, table[0].AvgNoiseDB)
		assert.Equal(t, 50.0, table[0].SeverityScore)
		assert.Equal(t, "Based on sensor trend", table[0].Rationale)
	})

	t.Run("zone with reports but no observations included", func(t *testing.T) {
		reports := []Report{
			{ZoneID: "Z09", TimeWindow: WindowDay, Status: StatusValid,
				Timestamp: time.Date(2023, 2, 10, 19, 0, 0, 0, time.UTC)},
		}

		table := ComputeHotspots(nil, reports, VariantBaseline)
		require.Len(t, table, 1)
		assert.Equal(t, "Z09", table[0].ZoneID)
		assert.Equal(t, 0.0, table[0].AvgNoiseDB)
		assert.Equal(t, 0.8, table[0].SeverityScore)
		assert.Equal(t, WindowEvening, table[0].TimeWindow, "window from latest validated report")
		assert.Equal(t, "Based on sensor trend and 1 validated reports", table[0].Rationale)
	})

	t.Run("window defaults to day without validated reports", func(t *testing.T) {
		observations := []Observation{obsAt("Z01", 23, 70.0)}

		table := ComputeHotspots(observations, nil, VariantBaseline)
		require.Len(t, table, 1)
		assert.Equal(t, WindowDay, table[0].TimeWindow)
	})
}

func TestTopHotspots(t *testing.T) {
	table := []Hotspot{{HotspotID: "H01"}, {HotspotID: "H02"}, {HotspotID: "H03"}}

	assert.Len(t, TopHotspots(table, 2), 2)
	assert.Len(t, TopHotspots(table, 10), 3)
	assert.Len(t, TopHotspots(table, 0), 3, "non-positive n means the whole table")
	assert.Empty(t, TopHotspots(nil, 5))
}
