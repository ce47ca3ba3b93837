// Package service owns the mutable report, decision, observation, and
// hotspot collections and implements the core operations over them: report
// submission with duplicate flagging, moderation with hotspot recompute, and
// hotspot reads.
//
// All writes go through one mutex. Two concurrent submissions evaluating the
// dedup rules against a not-yet-appended report could both pass as
// non-duplicate, so the collections have a strict single-writer discipline.
//
// Persistence is fire-and-forget from the core's point of view: a failed
// save is reported to the caller as a *domain.PersistenceError but the
// in-memory mutation is kept. The inconsistency window is deliberate and
// covered by tests.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quietcity/noise-hotspot-service/internal/domain"
	"github.com/quietcity/noise-hotspot-service/internal/observability"
)

// DuplicatePolicy selects what happens to a submission flagged as duplicate.
type DuplicatePolicy string

const (
	// PolicyFlag stores flagged duplicates for moderation. Primary policy.
	PolicyFlag DuplicatePolicy = "flag"
	// PolicyReject refuses flagged duplicates with a DuplicateError, the
	// behavior of the first system generation. Kept configurable.
	PolicyReject DuplicatePolicy = "reject"
)

// Storage persists the tabular collections. Implementations load whole
// tables and replace whole tables; the service never issues partial updates.
type Storage interface {
	LoadZones() ([]domain.Zone, error)
	LoadObservations() ([]domain.Observation, error)
	LoadReports() ([]domain.Report, error)
	LoadDecisions() ([]domain.Decision, error)
	LoadHotspots() ([]domain.Hotspot, error)
	SaveReports([]domain.Report) error
	SaveDecisions([]domain.Decision) error
	SaveHotspots([]domain.Hotspot) error
}

// Publisher emits best-effort change events after successful mutations.
// Publish failures are logged and counted, never surfaced to callers.
type Publisher interface {
	PublishReportSubmitted(ctx context.Context, report domain.Report, isDuplicate bool) error
	PublishReportModerated(ctx context.Context, decision domain.Decision) error
	PublishHotspotsRecomputed(ctx context.Context, rows int) error
}

// Options tune optional service behavior.
type Options struct {
	Policy      DuplicatePolicy       // defaults to PolicyFlag
	Variant     domain.ScoringVariant // defaults to VariantWindowed
	DefaultTopN int                   // defaults to 10
	Publisher   Publisher             // nil disables event publishing
}

// Service owns the in-memory collections and their persistence.
type Service struct {
	mu           sync.Mutex
	zones        []domain.Zone
	observations []domain.Observation
	reports      []domain.Report
	decisions    []domain.Decision
	hotspots     []domain.Hotspot

	storage   Storage
	clock     clockwork.Clock
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	policy      DuplicatePolicy
	variant     domain.ScoringVariant
	defaultTopN int

	loaded atomic.Bool
}

// New creates a Service. Call Load before serving requests.
func New(storage Storage, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Service {
	if opts.Policy == "" {
		opts.Policy = PolicyFlag
	}
	if opts.Variant == "" {
		opts.Variant = domain.VariantWindowed
	}
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = 10
	}
	return &Service{
		storage:     storage,
		clock:       clock,
		publisher:   opts.Publisher,
		logger:      logger,
		metrics:     metrics,
		policy:      opts.Policy,
		variant:     opts.Variant,
		defaultTopN: opts.DefaultTopN,
	}
}

// Load reads all tables from storage into memory. Observations and zones are
// read-only after this point.
func (s *Service) Load() error {
	zones, err := s.storage.LoadZones()
	if err != nil {
		return err
	}
	observations, err := s.storage.LoadObservations()
	if err != nil {
		return err
	}
	reports, err := s.storage.LoadReports()
	if err != nil {
		return err
	}
	decisions, err := s.storage.LoadDecisions()
	if err != nil {
		return err
	}
	hotspots, err := s.storage.LoadHotspots()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.zones = zones
	s.observations = observations
	s.reports = reports
	s.decisions = decisions
	s.hotspots = hotspots
	s.mu.Unlock()

	s.loaded.Store(true)
	s.logger.Info("tables loaded",
		"zones", len(zones),
		"observations", len(observations),
		"reports", len(reports),
		"decisions", len(decisions),
		"hotspots", len(hotspots),
	)
	return nil
}

// CheckReadiness returns nil once the tables have been loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.loaded.Load() {
		return errors.New("tables have not been loaded yet")
	}
	return nil
}

// SubmitInput is a raw report submission before normalization.
type SubmitInput struct {
	ZoneID     string
	Category   string
	TimeWindow string
	// Description is accepted for API compatibility but deliberately unused:
	// identity comparison runs on the synthesized stub, never on free text.
	Description string
}

// SubmitResult is the outcome of a stored submission.
type SubmitResult struct {
	Report      domain.Report
	IsDuplicate bool
	// MatchedRules names the dedup rules that fired, for moderator context.
	MatchedRules []string
}

// SubmitReport normalizes and stores an incoming report, flagging likely
// duplicates. Returns a ValidationError when zone or category normalize to
// empty, and (under PolicyReject only) a DuplicateError for flagged
// duplicates. A flagged duplicate under PolicyFlag is a successful result.
func (s *Service) SubmitReport(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	zone := domain.NormalizeZoneID(input.ZoneID)
	category := domain.NormalizeCategory(input.Category)
	if zone == "" || category == "" {
		return SubmitResult{}, domain.Validationf("missing required fields: zone_id and category")
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	window := domain.NormalizeTimeWindow(input.TimeWindow, now)

	incoming := domain.Report{
		ZoneID:          zone,
		Timestamp:       now,
		Category:        category,
		TimeWindow:      window,
		DescriptionStub: domain.BuildDescriptionStub(zone, category, window),
		Status:          domain.StatusUnderReview,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	isDuplicate, matched := domain.EvaluateDuplicate(s.reports, incoming, now)
	for _, rule := range matched {
		s.metrics.DuplicatesFlagged.WithLabelValues(rule).Inc()
	}
	if isDuplicate && s.policy == PolicyReject {
		return SubmitResult{}, &domain.DuplicateError{Rules: matched}
	}

	incoming.ReportID = domain.NextSequentialID(reportIDs(s.reports), "REP", 5)
	s.reports = append(s.reports, incoming)
	s.metrics.ReportsSubmitted.Inc()
	s.logger.Info("report submitted",
		"report_id", incoming.ReportID,
		"zone_id", incoming.ZoneID,
		"category", incoming.Category,
		"time_window", incoming.TimeWindow,
		"is_duplicate", isDuplicate,
	)

	result := SubmitResult{Report: incoming, IsDuplicate: isDuplicate, MatchedRules: matched}

	if err := s.saveReportsLocked(); err != nil {
		return result, err
	}
	s.publish(ctx, "report.submitted", func(p Publisher) error {
		return p.PublishReportSubmitted(ctx, incoming, isDuplicate)
	})
	return result, nil
}

// ModerateReport applies a moderation decision to a stored report, appends
// the audit decision, and synchronously recomputes the full hotspot table.
// Returns NotFoundError for an unknown report and ValidationError for a
// decision outside the three-value enum.
func (s *Service) ModerateReport(ctx context.Context, reportID, decision, reason string) (domain.Decision, error) {
	decision = strings.ToLower(strings.TrimSpace(decision))
	if !domain.ValidDecision(decision) {
		return domain.Decision{}, domain.Validationf("invalid decision value %q", decision)
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "clear description"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.reports {
		if s.reports[i].ReportID == reportID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Decision{}, &domain.NotFoundError{Kind: "report", ID: reportID}
	}

	s.reports[idx].Status = decision
	entry := domain.Decision{
		DecisionID: domain.NextSequentialID(decisionIDs(s.decisions), "MOD", 5),
		ReportID:   reportID,
		Decision:   decision,
		Reason:     reason,
		Timestamp:  s.clock.Now().UTC().Truncate(time.Second),
	}
	s.decisions = append(s.decisions, entry)
	s.metrics.ModerationDecisions.WithLabelValues(decision).Inc()
	s.logger.Info("report moderated",
		"report_id", reportID,
		"decision_id", entry.DecisionID,
		"decision", decision,
	)

	// Persist both mutated tables, then recompute. The first persistence
	// failure is returned but never undoes the applied mutations.
	var persistErr error
	if err := s.saveReportsLocked(); err != nil {
		persistErr = err
	}
	if err := s.saveDecisionsLocked(); err != nil && persistErr == nil {
		persistErr = err
	}
	if err := s.recomputeHotspotsLocked(ctx); err != nil && persistErr == nil {
		persistErr = err
	}

	s.publish(ctx, "report.moderated", func(p Publisher) error {
		return p.PublishReportModerated(ctx, entry)
	})
	return entry, persistErr
}

// Hotspots computes the ranked hotspot table from the current snapshots and
// returns the top n rows. n <= 0 applies the configured default. The read
// path is pure: it does not touch the persisted table.
func (s *Service) Hotspots(n int) []domain.Hotspot {
	if n <= 0 {
		n = s.defaultTopN
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table := domain.ComputeHotspots(s.observations, s.reports, s.variant)
	return domain.TopHotspots(table, n)
}

// RecomputeAndPersistHotspots rebuilds the full hotspot table from the
// current snapshots, replaces the in-memory table atomically, and saves it.
// The returned table is never truncated.
func (s *Service) RecomputeAndPersistHotspots(ctx context.Context) ([]domain.Hotspot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.recomputeHotspotsLocked(ctx)
	return s.hotspots, err
}

// Reports returns the stored reports, optionally filtered by status.
func (s *Service) Reports(status string) []domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == "" {
		out := make([]domain.Report, len(s.reports))
		copy(out, s.reports)
		return out
	}
	out := make([]domain.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Observations returns the observations matching the filter.
func (s *Service) Observations(filter domain.ObservationFilter) []domain.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FilterObservations(s.observations, filter)
}

// Zones returns the zone reference table.
func (s *Service) Zones() []domain.Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Zone, len(s.zones))
	copy(out, s.zones)
	return out
}

// recomputeHotspotsLocked rebuilds and persists the hotspot table. Callers
// must hold s.mu.
func (s *Service) recomputeHotspotsLocked(ctx context.Context) error {
	start := time.Now()
	s.hotspots = domain.ComputeHotspots(s.observations, s.reports, s.variant)
	s.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	s.metrics.HotspotRows.Set(float64(len(s.hotspots)))
	s.logger.Debug("hotspots recomputed", "rows", len(s.hotspots), "variant", string(s.variant))

	var persistErr error
	if err := s.storage.SaveHotspots(s.hotspots); err != nil {
		s.metrics.PersistenceErrors.WithLabelValues("hotspots").Inc()
		persistErr = &domain.PersistenceError{Table: "hotspots", Err: err}
	}
	s.publish(ctx, "hotspots.recomputed", func(p Publisher) error {
		return p.PublishHotspotsRecomputed(ctx, len(s.hotspots))
	})
	return persistErr
}

func (s *Service) saveReportsLocked() error {
	if err := s.storage.SaveReports(s.reports); err != nil {
		s.metrics.PersistenceErrors.WithLabelValues("reports").Inc()
		return &domain.PersistenceError{Table: "reports", Err: err}
	}
	return nil
}

func (s *Service) saveDecisionsLocked() error {
	if err := s.storage.SaveDecisions(s.decisions); err != nil {
		s.metrics.PersistenceErrors.WithLabelValues("decisions").Inc()
		return &domain.PersistenceError{Table: "decisions", Err: err}
	}
	return nil
}

// publish sends one best-effort change event. Failures are logged and
// counted but never affect the operation's outcome.
func (s *Service) publish(ctx context.Context, event string, fn func(Publisher) error) {
	if s.publisher == nil {
		return
	}
	if err := fn(s.publisher); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.logger.Warn("event publish failed", "event", event, "error", err)
	}
}

func reportIDs(reports []domain.Report) []string {
	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = r.ReportID
	}
	return ids
}

func decisionIDs(decisions []domain.Decision) []string {
	ids := make([]string, len(decisions))
	for i, d := range decisions {
		ids[i] = d.DecisionID
	}
	return ids
}
