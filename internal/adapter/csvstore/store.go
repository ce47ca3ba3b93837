// Package csvstore persists the service's tabular collections as CSV files,
// one file per table, matching the dataset layout produced by the seeder.
// Loads are lenient: a row with a malformed timestamp is kept with the zero
// time so downstream computations can exclude it, and a missing file yields
// an empty table.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/quietcity/noise-hotspot-service/internal/domain"
)

// Table file names inside the data directory.
const (
	ZonesFile        = "zones.csv"
	ObservationsFile = "noise_observations.csv"
	ReportsFile      = "incident_reports.csv"
	DecisionsFile    = "moderation_decisions.csv"
	HotspotsFile     = "hotspots.csv"
)

// Store reads and writes CSV tables under a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) LoadZones() ([]domain.Zone, error) {
	rows, err := s.readTable(ZonesFile)
	if err != nil {
		return nil, err
	}
	zones := make([]domain.Zone, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		zones = append(zones, domain.Zone{
			ZoneID:       row[0],
			Name:         row[1],
			GeometryStub: row[2],
			Tags:         row[3],
		})
	}
	return zones, nil
}

func (s *Store) LoadObservations() ([]domain.Observation, error) {
	rows, err := s.readTable(ObservationsFile)
	if err != nil {
		return nil, err
	}
	observations := make([]domain.Observation, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		observations = append(observations, domain.Observation{
			ObsID:       row[0],
			ZoneID:      row[1],
			Timestamp:   parseTimeOrZero(row[2]),
			Source:      row[3],
			ValueDB:     parseFloatOrZero(row[4]),
			CategoryTag: row[5],
		})
	}
	return observations, nil
}

func (s *Store) LoadReports() ([]domain.Report, error) {
	rows, err := s.readTable(ReportsFile)
	if err != nil {
		return nil, err
	}
	reports := make([]domain.Report, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		reports = append(reports, domain.Report{
			ReportID:        row[0],
			ZoneID:          row[1],
			Timestamp:       parseTimeOrZero(row[2]),
			Category:        row[3],
			TimeWindow:      row[4],
			DescriptionStub: row[5],
			Status:          row[6],
		})
	}
	return reports, nil
}

func (s *Store) LoadDecisions() ([]domain.Decision, error) {
	rows, err := s.readTable(DecisionsFile)
	if err != nil {
		return nil, err
	}
	decisions := make([]domain.Decision, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		decisions = append(decisions, domain.Decision{
			DecisionID: row[0],
			ReportID:   row[1],
			Decision:   row[2],
			Reason:     row[3],
			Timestamp:  parseTimeOrZero(row[4]),
		})
	}
	return decisions, nil
}

func (s *Store) LoadHotspots() ([]domain.Hotspot, error) {
	rows, err := s.readTable(HotspotsFile)
	if err != nil {
		return nil, err
	}
	hotspots := make([]domain.Hotspot, 0, len(rows))
	for _, row := range rows {
		if len(row) < 8 {
			continue
		}
		hotspots = append(hotspots, domain.Hotspot{
			HotspotID:            row[0],
			ZoneID:               row[1],
			TimeWindow:           row[2],
			SeverityScore:        parseFloatOrZero(row[3]),
			AvgNoiseDB:           parseFloatOrZero(row[4]),
			ReportCount:          parseIntOrZero(row[5]),
			ValidatedReportCount: parseIntOrZero(row[6]),
			Rationale:            row[7],
		})
	}
	return hotspots, nil
}

func (s *Store) SaveZones(zones []domain.Zone) error {
	rows := make([][]string, 0, len(zones))
	for _, z := range zones {
		rows = append(rows, []string{z.ZoneID, z.Name, z.GeometryStub, z.Tags})
	}
	return s.writeTable(ZonesFile,
		[]string{"zone_id", "name", "geometry_stub", "tags"}, rows)
}

func (s *Store) SaveObservations(observations []domain.Observation) error {
	rows := make([][]string, 0, len(observations))
	for _, o := range observations {
		rows = append(rows, []string{
			o.ObsID, o.ZoneID, formatTime(o.Timestamp), o.Source,
			strconv.FormatFloat(o.ValueDB, 'f', 2, 64), o.CategoryTag,
		})
	}
	return s.writeTable(ObservationsFile,
		[]string{"obs_id", "zone_id", "timestamp", "source", "value_db", "category_tag"}, rows)
}

func (s *Store) SaveReports(reports []domain.Report) error {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ReportID, r.ZoneID, formatTime(r.Timestamp), r.Category,
			r.TimeWindow, r.DescriptionStub, r.Status,
		})
	}
	return s.writeTable(ReportsFile,
		[]string{"report_id", "zone_id", "timestamp", "category", "time_window", "description_stub", "status"}, rows)
}

func (s *Store) SaveDecisions(decisions []domain.Decision) error {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, []string{
			d.DecisionID, d.ReportID, d.Decision, d.Reason, formatTime(d.Timestamp),
		})
	}
	return s.writeTable(DecisionsFile,
		[]string{"decision_id", "report_id", "decision", "reason", "timestamp"}, rows)
}

func (s *Store) SaveHotspots(hotspots []domain.Hotspot) error {
	rows := make([][]string, 0, len(hotspots))
	for _, h := range hotspots {
		rows = append(rows, []string{
			h.HotspotID, h.ZoneID, h.TimeWindow,
			strconv.FormatFloat(h.SeverityScore, 'f', 2, 64),
			strconv.FormatFloat(h.AvgNoiseDB, 'f', 2, 64),
			strconv.Itoa(h.ReportCount),
			strconv.Itoa(h.ValidatedReportCount),
			h.Rationale,
		})
	}
	return s.writeTable(HotspotsFile,
		[]string{"hotspot_id", "zone_id", "time_window", "severity_score", "avg_noise_db", "report_count", "validated_report_count", "rationale"}, rows)
}

// readTable reads a CSV file and returns its data rows, skipping the header.
// A missing file is an empty table, not an error.
func (s *Store) readTable(name string) ([][]string, error) {
	file, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

// writeTable writes header and rows to a temp file and renames it into
// place, so a crash mid-save never leaves a truncated table behind.
func (s *Store) writeTable(name string, header []string, rows [][]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s rows: %w", name, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// parseTimeOrZero parses an RFC 3339 timestamp, returning the zero time on
// failure so malformed rows load instead of aborting the table.
func parseTimeOrZero(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// formatTime renders a timestamp as RFC 3339 UTC, preserving emptiness for
// rows that loaded with an unparseable timestamp.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseFloatOrZero(value string) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntOrZero(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
