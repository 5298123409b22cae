package domain

import (
	"math"

	"github.com/jonboulle/clockwork"
)

// Analytics is the dashboard summary computed over the full report collection.
type Analytics struct {
	TotalReports      int    `json:"totalReports"`
	ResolvedReports   int    `json:"resolvedReports"`
	AvgResolutionTime int    `json:"avgResolutionTime"` // hours, rounded
	TopIssueType      string `json:"topIssueType"`
	ReportsThisMonth  int    `json:"reportsThisMonth"`
	ResolutionRate    int    `json:"resolutionRate"` // percent, rounded
}

// CalculateAnalytics is a pure projection over the report collection. An
// empty collection yields zeroes with TopIssueType "none".
func CalculateAnalytics(reports []Report, clock clockwork.Clock) Analytics {
	if len(reports) == 0 {
		return Analytics{TopIssueType: "none"}
	}

	now := clock.Now()
	currentMonth, currentYear := now.Month(), now.Year()

	var resolvedCount, reportsThisMonth int
	var totalResolutionHours float64

	typeCounts := make(map[IssueType]int)
	var typeOrder []IssueType // first-encountered order breaks ties

	for _, r := range reports {
		if r.ReportedAt.Month() == currentMonth && r.ReportedAt.Year() == currentYear {
			reportsThisMonth++
		}
		if r.Status == StatusResolved {
			resolvedCount++
			if r.ResolvedAt != nil {
				totalResolutionHours += r.ResolvedAt.Sub(r.ReportedAt).Hours()
			}
		}
		if _, seen := typeCounts[r.Type]; !seen {
			typeOrder = append(typeOrder, r.Type)
		}
		typeCounts[r.Type]++
	}

	avgResolutionTime := 0
	if resolvedCount > 0 {
		avgResolutionTime = int(math.Round(totalResolutionHours / float64(resolvedCount)))
	}

	topIssueType := "none"
	topCount := 0
	for _, t := range typeOrder {
		if typeCounts[t] > topCount {
			topIssueType = string(t)
			topCount = typeCounts[t]
		}
	}

	return Analytics{
		TotalReports:      len(reports),
		ResolvedReports:   resolvedCount,
		AvgResolutionTime: avgResolutionTime,
		TopIssueType:      topIssueType,
		ReportsThisMonth:  reportsThisMonth,
		ResolutionRate:    int(math.Round(float64(resolvedCount) / float64(len(reports)) * 100)),
	}
}

// IssueTypeStat breaks one issue type down by lifecycle stage. Everything
// that is not resolved counts as pending here, including rejected reports.
type IssueTypeStat struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
}

// IssueTypeStats returns per-type counts for all five issue types, zeroed
// entries included.
func IssueTypeStats(reports []Report) map[IssueType]IssueTypeStat {
	stats := make(map[IssueType]IssueTypeStat, len(IssueTypes))
	for _, t := range IssueTypes {
		stats[t] = IssueTypeStat{}
	}
	for _, r := range reports {
		s := stats[r.Type]
		s.Total++
		if r.Status == StatusResolved {
			s.Resolved++
		} else {
			s.Pending++
		}
		stats[r.Type] = s
	}
	return stats
}

// TrendPoint is one day's submission count in the trailing-week trend.
type TrendPoint struct {
	Date  string `json:"date"` // e.g. "Apr 26"
	Count int    `json:"count"`
}

// ReportTrends buckets submissions into the trailing 7 days, today inclusive,
// oldest first.
func ReportTrends(reports []Report, clock clockwork.Clock) []TrendPoint {
	now := clock.Now()

	points := make([]TrendPoint, 7)
	for i := range points {
		points[i] = TrendPoint{Date: now.AddDate(0, 0, -(6 - i)).Format("Jan 2")}
	}

	for _, r := range reports {
		daysAgo := int(math.Floor(now.Sub(r.ReportedAt).Hours() / 24))
		if daysAgo >= 0 && daysAgo < 7 {
			points[6-daysAgo].Count++
		}
	}
	return points
}
