package domain

import (
	"strings"
	"time"
)

// Relative window presets accepted by ObservationFilter.Preset.
const (
	PresetLast24Hours = "Last 24 hours"
	PresetLast7Days   = "Last 7 days"
	PresetLast4Weeks  = "Last 4 weeks"
)

// ObservationFilter selects a subset of the observation table.
//
// Zones and Categories are OR-sets; empty slices match everything. Preset
// takes precedence over the explicit Start/End range and anchors to the
// newest timestamp in the already-filtered set, so historical datasets stay
// queryable without a live clock.
type ObservationFilter struct {
	Zones      []string
	Categories []string
	Source     string // "sensor", "report", or "" / "both" for all
	Start      time.Time
	End        time.Time
	Preset     string
}

// FilterObservations applies the filter to a snapshot of the observation
// table and returns the matching rows in their original order.
func FilterObservations(observations []Observation, filter ObservationFilter) []Observation {
	zones := toSet(filter.Zones)
	categories := toSet(filter.Categories)
	source := strings.ToLower(strings.TrimSpace(filter.Source))

	filtered := make([]Observation, 0, len(observations))
	for _, obs := range observations {
		if len(zones) > 0 && !zones[obs.ZoneID] {
			continue
		}
		if len(categories) > 0 && !categories[obs.CategoryTag] {
			continue
		}
		if source != "" && source != "both" && obs.Source != source {
			continue
		}
		filtered = append(filtered, obs)
	}

	if filter.Preset != "" {
		return filterSince(filtered, presetStart(filtered, filter.Preset))
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() {
		ranged := make([]Observation, 0, len(filtered))
		for _, obs := range filtered {
			if obs.Timestamp.IsZero() {
				continue
			}
			if obs.Timestamp.Before(filter.Start) || obs.Timestamp.After(filter.End) {
				continue
			}
			ranged = append(ranged, obs)
		}
		return ranged
	}
	return filtered
}

// presetStart resolves a preset to its cutoff instant, anchored to the
// newest parseable timestamp in the set. Zero when the set has no usable
// timestamps.
func presetStart(observations []Observation, preset string) time.Time {
	var newest time.Time
	for _, obs := range observations {
		if obs.Timestamp.After(newest) {
			newest = obs.Timestamp
		}
	}
	if newest.IsZero() {
		return time.Time{}
	}

	var lookback time.Duration
	switch preset {
	case PresetLast24Hours:
		lookback = 24 * time.Hour
	case PresetLast7Days:
		lookback = 7 * 24 * time.Hour
	case PresetLast4Weeks:
		lookback = 4 * 7 * 24 * time.Hour
	default:
		lookback = 7 * 24 * time.Hour
	}
	return newest.Add(-lookback)
}

func filterSince(observations []Observation, start time.Time) []Observation {
	if start.IsZero() {
		return observations
	}
	kept := make([]Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Timestamp.IsZero() || obs.Timestamp.Before(start) {
			continue
		}
		kept = append(kept, obs)
	}
	return kept
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}
