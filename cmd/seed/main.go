// Command seed populates a report store with deterministic demo data: a few
// accounts and two weeks of reports in every lifecycle state, so dashboards,
// the leaderboard, and trends have something to show on a fresh install.
//
// Usage:
//
//	go run ./cmd/seed -store civicfix.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/civicfix/report-service/internal/domain"
	"github.com/civicfix/report-service/internal/observability"
	"github.com/civicfix/report-service/internal/store"
	"github.com/civicfix/report-service/internal/triage"
)

// seededRandom makes location jitter and reward draws reproducible.
type seededRandom struct{ r *rand.Rand }

func (s seededRandom) Float64() float64 { return s.r.Float64() }
func (s seededRandom) IntN(n int) int   { return s.r.IntN(n) }

type seedUser struct {
	name  string
	email string
	role  domain.Role
}

var seedUsers = []seedUser{
	{"Asha Verma", "asha@example.com", domain.RoleCitizen},
	{"Ravi Kumar", "ravi@example.com", domain.RoleCitizen},
	{"Meena Pillai", "meena@example.com", domain.RoleCitizen},
	{"Inspector Rao", "rao@city.gov", domain.RoleAuthority},
}

type seedReport struct {
	issueType domain.IssueType
	title     string
	reporter  int // index into seedUsers
	daysAgo   int
	outcome   string // pending, in-progress, resolved, rejected
}

var seedReports = []seedReport{
	{domain.IssuePothole, "Deep pothole near bus stop", 0, 13, "resolved"},
	{domain.IssueStreetlight, "Streetlight dark for a week", 1, 12, "resolved"},
	{domain.IssueManhole, "Open manhole outside market", 0, 10, "resolved"},
	{domain.IssueWaste, "Garbage pile on the corner", 2, 9, "rejected"},
	{domain.IssueWaterLeak, "Water pooling from broken main", 1, 7, "in-progress"},
	{domain.IssuePothole, "Cracked road surface widening", 2, 5, "in-progress"},
	{domain.IssueStreetlight, "Flickering light at the crossing", 0, 4, "pending"},
	{domain.IssueWaste, "Overflowing community bin", 1, 2, "pending"},
	{domain.IssueManhole, "Loose manhole cover rattling", 2, 1, "pending"},
	{domain.IssuePothole, "Fresh pothole after the rain", 0, 0, "pending"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	storePath := flag.String("store", "civicfix.db", "sqlite file to seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(*storePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	// A fixed epoch keeps runs reproducible; reports are backdated from now
	// so the trailing-week trend has data.
	now := time.Now().UTC().Truncate(time.Hour)
	clock := clockwork.NewFakeClockAt(now.AddDate(0, 0, -14))

	engine := triage.NewEngine(triage.Options{
		Store:   st,
		Random:  seededRandom{r: rand.New(rand.NewPCG(42, 0))},
		Clock:   clock,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	})

	for _, su := range seedUsers {
		if _, err := engine.RegisterUser(ctx, domain.User{Name: su.name, Email: su.email, Role: su.role}); err != nil {
			return fmt.Errorf("register %s: %w", su.email, err)
		}
	}

	const authority = "rao@city.gov"
	for _, sr := range seedReports {
		reporter := seedUsers[sr.reporter]
		submittedAt := now.AddDate(0, 0, -sr.daysAgo)
		if delta := submittedAt.Sub(clock.Now()); delta > 0 {
			clock.Advance(delta)
		}

		d, err := engine.Submit(ctx, triage.NewReportInput{
			Type:            sr.issueType,
			Title:           sr.title,
			Description:     sr.title + ". Reported via the demo seeder.",
			Image:           []byte("demo-image"),
			ReportedBy:      reporter.name,
			ReportedByEmail: reporter.email,
		})
		if err != nil {
			return fmt.Errorf("submit %q: %w", sr.title, err)
		}
		if !d.Accepted() {
			return fmt.Errorf("submit %q refused: %s", sr.title, d.Reason)
		}

		switch sr.outcome {
		case "rejected":
			clock.Advance(2 * time.Hour)
			if _, err := engine.Reject(ctx, d.Report.ID, authority, ""); err != nil {
				return fmt.Errorf("reject %q: %w", sr.title, err)
			}
		case "in-progress", "resolved":
			clock.Advance(2 * time.Hour)
			if _, err := engine.Approve(ctx, d.Report.ID, authority); err != nil {
				return fmt.Errorf("approve %q: %w", sr.title, err)
			}
			if sr.outcome == "resolved" {
				clock.Advance(20 * time.Hour)
				if _, err := engine.Resolve(ctx, d.Report.ID, authority); err != nil {
					return fmt.Errorf("resolve %q: %w", sr.title, err)
				}
			}
		}
	}

	reports, err := st.Reports(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %s: %d users, %d reports\n", *storePath, len(seedUsers), len(reports))
	return nil
}
