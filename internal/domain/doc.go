// Package domain models crowd-sourced noise incident reports, sensor
// observations, and the derived hotspot rankings for a set of monitored
// zones.
//
// # Zone IDs
//
// Zones carry canonical IDs of the form "Z" + two-digit number ("Z01" ...
// "Z12"). Submissions may arrive as "z3", "Z3", or a bare "3"; all are
// reformatted to "Z03" by [NormalizeZoneID]. Values that are neither
// Z-prefixed nor purely numeric pass through uppercased, so an unknown but
// well-formed zone is stored rather than rejected.
//
// # Time windows
//
// Every report and every bucketed observation falls into exactly one of five
// fixed daily windows, keyed off the UTC hour:
//
//	morning(06-09)  [06,09)
//	day(09-17)      [09,17)
//	evening(17-22)  [17,22)
//	late(22-24)     [22,24)
//	night(00-06)    [00,06)
//
// Free-text hints ("morning", "afternoon", "late", ...) are collapsed to
// these labels; when no usable hint is given the window is derived from the
// submission instant. Raw free-text window values never reach storage or the
// aggregator.
//
// # Deduplication
//
// An incoming report is compared against the whole existing collection with
// six overlapping rules (same zone/category/stub combinations, some bounded
// by a one-hour freshness window measured from the submission instant). The
// rule set intentionally over-flags: a flagged report is still stored and a
// moderator resolves the flag. See [EvaluateDuplicate].
//
// Reports never store user-provided description text. A synthetic
// description stub is derived from the normalized zone, category, and window
// ([BuildDescriptionStub]), which keeps duplicate comparison deterministic
// and keeps personal data out of the dataset.
//
// # Severity scoring
//
// A hotspot's severity is the average measured noise level in its bucket
// plus 0.8 dB per validated report:
//
//	severity_score = round(avg_noise_db + validated_report_count * 0.8, 2)
//
// Two formula generations exist: the primary windowed variant scores each
// (zone, window) bucket, the legacy baseline variant scores whole zones.
// Both are kept as a tagged strategy; see [ComputeHotspots].
//
// # Lenient timestamps
//
// Stored rows with unparseable timestamps carry the zero time.Time. Such
// rows are excluded from time-bounded dedup rules and dropped from hotspot
// bucketing; a single corrupt row never aborts a computation.
//
// # ID formats
//
// Sequential, zero-padded: "REP00042" for reports, "MOD00007" for moderation
// decisions, "O00123" for seeded observations. Hotspot IDs ("H01", "H02",
// ...) are positional and reassigned after every recompute.
package domain
