package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ScoringVariant selects the hotspot severity formula.
type ScoringVariant string

const (
	// VariantWindowed scores each (zone, time window) bucket separately.
	// This is the primary formula.
	VariantWindowed ScoringVariant = "windowed"
	// VariantBaseline is the earlier per-zone formula, kept as a tagged
	// strategy for comparison runs rather than silently discarded.
	VariantBaseline ScoringVariant = "baseline"
)

// ValidScoringVariant reports whether v names a known formula.
func ValidScoringVariant(v ScoringVariant) bool {
	return v == VariantWindowed || v == VariantBaseline
}

// ReportBoost is the severity contribution of one validated report, in dB.
const ReportBoost = 0.8

// bucket identifies one (zone, window) aggregation group.
type bucket struct {
	zone   string
	window string
}

// ComputeHotspots derives the full ranked hotspot table from observation and
// report snapshots. It is a pure function: no clock, no stored state.
//
// The table is sorted descending by severity score with a stable sort, so
// ties keep first-appearance grouping order given identical input ordering,
// and hotspot IDs are assigned after sorting. Truncating to a top-N view is
// the read boundary's concern; the recompute always yields the whole table.
// Empty inputs yield an empty table, not an error.
func ComputeHotspots(observations []Observation, reports []Report, variant ScoringVariant) []Hotspot {
	if variant == VariantBaseline {
		return computeBaseline(observations, reports)
	}
	return computeWindowed(observations, reports)
}

// computeWindowed groups observations by (zone, window of the observation
// hour) and scores each bucket. Observations with unparseable timestamps are
// dropped, not defaulted. Buckets with no observations are omitted: a
// validated report alone does not fabricate a hotspot row.
func computeWindowed(observations []Observation, reports []Report) []Hotspot {
	var order []bucket
	samples := make(map[bucket][]float64)
	for _, obs := range observations {
		if obs.Timestamp.IsZero() {
			continue
		}
		b := bucket{obs.ZoneID, WindowForHour(obs.Timestamp.UTC().Hour())}
		if _, ok := samples[b]; !ok {
			order = append(order, b)
		}
		samples[b] = append(samples[b], obs.ValueDB)
	}

	// report_count covers reports of any status and is informational only;
	// the score uses the validated count alone.
	validated := make(map[bucket]int)
	total := make(map[bucket]int)
	for _, rep := range reports {
		b := bucket{rep.ZoneID, NormalizeReportWindow(rep.TimeWindow)}
		total[b]++
		if rep.Status == StatusValid {
			validated[b]++
		}
	}

	hotspots := make([]Hotspot, 0, len(order))
	for _, b := range order {
		avg := round2(stat.Mean(samples[b], nil))
		hotspots = append(hotspots, Hotspot{
			ZoneID:               b.zone,
			TimeWindow:           b.window,
			SeverityScore:        round2(avg + float64(validated[b])*ReportBoost),
			AvgNoiseDB:           avg,
			ReportCount:          total[b],
			ValidatedReportCount: validated[b],
			Rationale:            windowedRationale(avg, validated[b]),
		})
	}
	return rankHotspots(hotspots)
}

// computeBaseline scores whole zones over the union of zones appearing in
// observations and reports, ignoring window granularity. Zones without
// observations score from a 0.0 base, so a validated report still surfaces
// the zone.
func computeBaseline(observations []Observation, reports []Report) []Hotspot {
	seen := make(map[string]bool)
	var zones []string
	note := func(zone string) {
		if zone == "" || seen[zone] {
			return
		}
		seen[zone] = true
		zones = append(zones, zone)
	}
	for _, obs := range observations {
		note(obs.ZoneID)
	}
	for _, rep := range reports {
		note(rep.ZoneID)
	}
	sort.Strings(zones)

	samples := make(map[string][]float64)
	for _, obs := range observations {
		samples[obs.ZoneID] = append(samples[obs.ZoneID], obs.ValueDB)
	}

	validCount := make(map[string]int)
	totalCount := make(map[string]int)
	latestValid := make(map[string]time.Time)
	for _, rep := range reports {
		totalCount[rep.ZoneID]++
		if rep.Status != StatusValid {
			continue
		}
		validCount[rep.ZoneID]++
		if !rep.Timestamp.IsZero() && rep.Timestamp.After(latestValid[rep.ZoneID]) {
			latestValid[rep.ZoneID] = rep.Timestamp
		}
	}

	hotspots := make([]Hotspot, 0, len(zones))
	for _, zone := range zones {
		base := 0.0
		if vals := samples[zone]; len(vals) > 0 {
			base = stat.Mean(vals, nil)
		}
		base = round2(base)

		window := WindowDay
		if ts := latestValid[zone]; !ts.IsZero() {
			window = WindowForHour(ts.UTC().Hour())
		}

		hotspots = append(hotspots, Hotspot{
			ZoneID:               zone,
			TimeWindow:           window,
			SeverityScore:        round2(base + float64(validCount[zone])*ReportBoost),
			AvgNoiseDB:           base,
			ReportCount:          totalCount[zone],
			ValidatedReportCount: validCount[zone],
			Rationale:            baselineRationale(validCount[zone]),
		})
	}
	return rankHotspots(hotspots)
}

// rankHotspots orders the table by descending severity and renumbers IDs.
// Hotspot IDs are positional: they are only meaningful within one table
// generation.
func rankHotspots(hotspots []Hotspot) []Hotspot {
	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].SeverityScore > hotspots[j].SeverityScore
	})
	for i := range hotspots {
		hotspots[i].HotspotID = fmt.Sprintf("H%02d", i+1)
	}
	return hotspots
}

// TopHotspots returns at most n rows of an already-ranked table. n <= 0
// means the whole table.
func TopHotspots(table []Hotspot, n int) []Hotspot {
	if n <= 0 || n >= len(table) {
		return table
	}
	return table[:n]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func windowedRationale(avg float64, validated int) string {
	return fmt.Sprintf("Average noise: %s dB | Validated reports: %d",
		strconv.FormatFloat(avg, 'f', -1, 64), validated)
}

func baselineRationale(validated int) string {
	if validated == 0 {
		return "Based on sensor trend"
	}
	return fmt.Sprintf("Based on sensor trend and %d validated reports", validated)
}
