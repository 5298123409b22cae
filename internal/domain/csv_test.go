package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportsCSV(t *testing.T) {
	reported := time.Date(2025, time.June, 1, 10, 30, 0, 0, time.UTC)
	resolved := reported.Add(48 * time.Hour)

	reports := []Report{
		{
			ID: "r1", Type: IssuePothole, Title: "Deep pothole", Status: StatusResolved,
			Priority: PriorityCritical, Location: Location{Address: "MG Road, Bangalore"},
			ReportedBy: "Asha", ReportedAt: reported, ResolvedAt: &resolved, Upvotes: 4,
		},
		{
			ID: "r2", Type: IssueWaste, Title: "Overflowing bin", Status: StatusPending,
			Priority: PriorityMedium, Location: Location{Address: "Park Street"},
			ReportedBy: "Ravi", ReportedAt: reported,
		},
	}

	out, err := ReportsCSV(reports)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "ID,Type,Title,Status,Priority,Location,Reported By,Reported At,Resolved At,Upvotes", lines[0])
	assert.Equal(t, "r1,pothole,Deep pothole,resolved,critical,\"MG Road, Bangalore\",Asha,2025-06-01T10:30:00Z,2025-06-03T10:30:00Z,4", lines[1])
	assert.Contains(t, lines[2], ",N/A,0")
}

func TestReportsCSV_Empty(t *testing.T) {
	out, err := ReportsCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "ID,Type,Title,Status,Priority,Location,Reported By,Reported At,Resolved At,Upvotes\n", out)
}
