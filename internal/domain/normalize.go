package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical time-window labels. Every Report.TimeWindow and every bucketed
// observation carries exactly one of these.
const (
	WindowMorning = "morning(06-09)"
	WindowDay     = "day(09-17)"
	WindowEvening = "evening(17-22)"
	WindowLate    = "late(22-24)"
	WindowNight   = "night(00-06)"
)

// categorySynonyms collapses category aliases to their canonical tag.
var categorySynonyms = map[string]string{
	"nightlife": "music",
	"general":   "other",
}

// windowSynonyms maps free-text window hints to canonical labels.
var windowSynonyms = map[string]string{
	"morning":   WindowMorning,
	"afternoon": WindowDay,
	"day":       WindowDay,
	"evening":   WindowEvening,
	"night":     WindowNight,
	"late":      WindowLate,
}

var canonicalWindows = map[string]bool{
	WindowMorning: true,
	WindowDay:     true,
	WindowEvening: true,
	WindowLate:    true,
	WindowNight:   true,
}

// NormalizeZoneID uppercases a zone ID and reformats numeric forms as "Z"
// plus a zero-padded two-digit number: "z3", "Z03" and "3" all become "Z03".
// Non-numeric values pass through uppercased. Idempotent.
func NormalizeZoneID(zoneID string) string {
	value := strings.ToUpper(strings.TrimSpace(zoneID))
	if value == "" {
		return ""
	}
	if digits, ok := strings.CutPrefix(value, "Z"); ok && isDigits(digits) {
		n, _ := strconv.Atoi(digits)
		return fmt.Sprintf("Z%02d", n)
	}
	if isDigits(value) {
		n, _ := strconv.Atoi(value)
		return fmt.Sprintf("Z%02d", n)
	}
	return value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeCategory lowercases a category and collapses known synonyms.
// Unrecognized categories pass through unchanged rather than being rejected.
func NormalizeCategory(category string) string {
	value := strings.ToLower(strings.TrimSpace(category))
	if mapped, ok := categorySynonyms[value]; ok {
		return mapped
	}
	return value
}

// WindowForHour maps a UTC hour to its canonical time window.
func WindowForHour(hour int) string {
	switch {
	case hour >= 6 && hour < 9:
		return WindowMorning
	case hour >= 9 && hour < 17:
		return WindowDay
	case hour >= 17 && hour < 22:
		return WindowEvening
	case hour >= 22:
		return WindowLate
	default:
		return WindowNight
	}
}

// NormalizeTimeWindow resolves a raw window hint against the synonym table,
// accepts canonical labels as-is, and otherwise derives the window from the
// UTC hour of the submission instant.
func NormalizeTimeWindow(hint string, submittedAt time.Time) string {
	value := strings.ToLower(strings.TrimSpace(hint))
	if mapped, ok := windowSynonyms[value]; ok {
		return mapped
	}
	if canonicalWindows[value] {
		return value
	}
	return WindowForHour(submittedAt.UTC().Hour())
}

// NormalizeReportWindow maps an already-stored report window to a canonical
// label, defaulting to day(09-17) when the stored value is unusable. The
// aggregator must never bucket on a raw free-text value.
func NormalizeReportWindow(window string) string {
	value := strings.ToLower(strings.TrimSpace(window))
	if mapped, ok := windowSynonyms[value]; ok {
		return mapped
	}
	if canonicalWindows[value] {
		return value
	}
	return WindowDay
}

// BuildDescriptionStub synthesizes the stored description from the
// normalized fields. User-provided free text never reaches storage or the
// dedup rules, so the stub is both PII-free and deterministic.
func BuildDescriptionStub(zoneID, category, timeWindow string) string {
	return fmt.Sprintf("Report of %s noise in %s during %s. (Synthetic; no personal data)",
		category, zoneID, timeWindow)
}

// NextSequentialID scans existing IDs of the form <prefix><digits> and
// returns the next one, zero-padded to width. Malformed IDs are skipped.
func NextSequentialID(existing []string, prefix string, width int) string {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)$`)
	maxSeen := 0
	for _, value := range existing {
		m := re.FindStringSubmatch(strings.TrimSpace(value))
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxSeen {
			maxSeen = n
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, width, maxSeen+1)
}
