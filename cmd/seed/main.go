// Command seed generates a synthetic dataset for local development and
// demos: 12 zones, noise observations over an 8-week span with dB values
// drawn from Normal(60, 10), incident reports across all statuses, and a
// moderation decision trail. Output is the CSV table layout hotspotd loads.
//
// Usage:
//
//	go run ./cmd/seed -out data -observations 10000 -reports 600 -decisions 300
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/quietcity/noise-hotspot-service/internal/adapter/csvstore"
	"github.com/quietcity/noise-hotspot-service/internal/domain"
)

var categories = []string{"traffic", "construction", "event", "music", "other"}

func main() {
	out := flag.String("out", "data", "output directory for the CSV tables")
	observations := flag.Int("observations", 10000, "number of noise observations")
	reports := flag.Int("reports", 600, "number of incident reports")
	decisions := flag.Int("decisions", 300, "number of moderation decisions")
	seed := flag.Int64("seed", 42, "random seed, fixed by default for reproducible datasets")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	zones := makeZones(rng)
	obs := makeObservations(rng, zones, start, *observations)
	reps := makeReports(rng, zones, start, *reports)
	decs := makeDecisions(rng, reps, start, *decisions)
	hotspots := domain.ComputeHotspots(obs, reps, domain.VariantWindowed)

	store := csvstore.New(*out)
	if err := store.SaveZones(zones); err != nil {
		log.Fatalf("save zones: %v", err)
	}
	if err := store.SaveObservations(obs); err != nil {
		log.Fatalf("save observations: %v", err)
	}
	if err := store.SaveReports(reps); err != nil {
		log.Fatalf("save reports: %v", err)
	}
	if err := store.SaveDecisions(decs); err != nil {
		log.Fatalf("save decisions: %v", err)
	}
	if err := store.SaveHotspots(hotspots); err != nil {
		log.Fatalf("save hotspots: %v", err)
	}

	fmt.Printf("seeded %s: %d zones, %d observations, %d reports, %d decisions, %d hotspots\n",
		*out, len(zones), len(obs), len(reps), len(decs), len(hotspots))
}

func makeZones(rng *rand.Rand) []domain.Zone {
	zoneTypes := []string{"residential", "campus", "event"}
	zones := make([]domain.Zone, 0, 12)
	for i := 1; i <= 12; i++ {
		zones = append(zones, domain.Zone{
			ZoneID:       fmt.Sprintf("Z%02d", i),
			Name:         fmt.Sprintf("Zone %d", i),
			GeometryStub: fmt.Sprintf("Schematic for Zone %d", i),
			Tags:         zoneTypes[rng.Intn(len(zoneTypes))],
		})
	}
	return zones
}

func makeObservations(rng *rand.Rand, zones []domain.Zone, start time.Time, n int) []domain.Observation {
	sources := []string{domain.SourceSensor, domain.SourceReport}
	obs := make([]domain.Observation, 0, n)
	for i := 1; i <= n; i++ {
		ts := start.Add(time.Duration(rng.Intn(56*24))*time.Hour +
			time.Duration(rng.Intn(60))*time.Minute)
		obs = append(obs, domain.Observation{
			ObsID:       fmt.Sprintf("O%05d", i),
			ZoneID:      zones[rng.Intn(len(zones))].ZoneID,
			Timestamp:   ts,
			Source:      sources[rng.Intn(len(sources))],
			ValueDB:     round2(rng.NormFloat64()*10 + 60),
			CategoryTag: categories[rng.Intn(len(categories))],
		})
	}
	return obs
}

func makeReports(rng *rand.Rand, zones []domain.Zone, start time.Time, n int) []domain.Report {
	statuses := []string{
		domain.StatusPending, domain.StatusUnderReview, domain.StatusValid,
		domain.StatusDuplicate, domain.StatusInvalid,
	}
	reps := make([]domain.Report, 0, n)
	for i := 1; i <= n; i++ {
		ts := start.Add(time.Duration(rng.Intn(56*24)) * time.Hour)
		zone := zones[rng.Intn(len(zones))].ZoneID
		category := categories[rng.Intn(len(categories))]
		window := domain.WindowForHour(ts.UTC().Hour())
		reps = append(reps, domain.Report{
			ReportID:        fmt.Sprintf("REP%05d", i),
			ZoneID:          zone,
			Timestamp:       ts,
			Category:        category,
			TimeWindow:      window,
			DescriptionStub: domain.BuildDescriptionStub(zone, category, window),
			Status:          statuses[rng.Intn(len(statuses))],
		})
	}
	return reps
}

func makeDecisions(rng *rand.Rand, reports []domain.Report, start time.Time, n int) []domain.Decision {
	if len(reports) == 0 {
		return nil
	}
	reasons := []string{"clear description", "matches sensor spike", "duplicate of earlier report", "insufficient detail"}
	decisionValues := []string{domain.DecisionValid, domain.DecisionDuplicate, domain.DecisionInvalid}
	decs := make([]domain.Decision, 0, n)
	for i := 1; i <= n; i++ {
		decs = append(decs, domain.Decision{
			DecisionID: fmt.Sprintf("MOD%05d", i),
			ReportID:   reports[rng.Intn(len(reports))].ReportID,
			Decision:   decisionValues[rng.Intn(len(decisionValues))],
			Reason:     reasons[rng.Intn(len(reasons))],
			Timestamp:  start.Add(time.Duration(56*24+rng.Intn(7*24)) * time.Hour),
		})
	}
	return decs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
