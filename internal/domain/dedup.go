package domain

import "time"

// FreshnessWindow is how far back a stored report counts as "recent" for the
// time-bounded dedup rules. It is always measured from the submission
// instant, not from each stored report's own age at the time it was flagged.
const FreshnessWindow = time.Hour

// dedupRule is one independent duplicate predicate. The rule set is a
// deliberate superset with heavy overlap: over-flagging is preferred to
// under-flagging, and moderators resolve the flags.
type dedupRule struct {
	name  string
	match func(existing, incoming Report, now time.Time) bool
}

// dedupRules are evaluated independently and OR'd. Order matches the rule
// numbering used in moderation tooling.
var dedupRules = []dedupRule{
	{"zone+category+recent", func(e, in Report, now time.Time) bool {
		return e.ZoneID == in.ZoneID && e.Category == in.Category && recent(e, now)
	}},
	{"zone+category+stub", func(e, in Report, _ time.Time) bool {
		return e.ZoneID == in.ZoneID && e.Category == in.Category && e.DescriptionStub == in.DescriptionStub
	}},
	{"zone+recent", func(e, in Report, now time.Time) bool {
		return e.ZoneID == in.ZoneID && recent(e, now)
	}},
	{"category+recent", func(e, in Report, now time.Time) bool {
		return e.Category == in.Category && recent(e, now)
	}},
	{"zone+stub", func(e, in Report, _ time.Time) bool {
		return e.ZoneID == in.ZoneID && e.DescriptionStub == in.DescriptionStub
	}},
	{"stub+recent", func(e, in Report, now time.Time) bool {
		return e.DescriptionStub == in.DescriptionStub && recent(e, now)
	}},
}

// recent reports whether an existing report falls inside the freshness
// window ending at now. Reports whose stored timestamp failed to parse
// (zero value) never match a time-bounded rule.
func recent(e Report, now time.Time) bool {
	if e.Timestamp.IsZero() {
		return false
	}
	return e.Timestamp.After(now.Add(-FreshnessWindow))
}

// EvaluateDuplicate runs every dedup rule for the incoming report against
// the full existing collection. It returns whether any rule matched and the
// names of the matching rules. A duplicate is a flag on a successful
// submission, never a failure of this function.
func EvaluateDuplicate(existing []Report, incoming Report, now time.Time) (bool, []string) {
	var matched []string
	for _, rule := range dedupRules {
		for i := range existing {
			if rule.match(existing[i], incoming, now) {
				matched = append(matched, rule.name)
				break
			}
		}
	}
	return len(matched) > 0, matched
}
