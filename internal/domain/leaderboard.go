package domain

import (
	"sort"

	"github.com/jonboulle/clockwork"
)

// leaderboardSize caps the ranking at the top 20 citizens.
const leaderboardSize = 20

// LeaderboardEntry aggregates one citizen's submissions. RewardsEarned here
// is the live count of their rewarded in-progress reports, not the lifetime
// counter stored on the User record.
type LeaderboardEntry struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	MonthlyReports int    `json:"monthlyReports"`
	TotalReports   int    `json:"totalReports"`
	RewardsEarned  int    `json:"rewardsEarned"`
}

// BuildLeaderboard ranks citizens by reports submitted this calendar month,
// lifetime count breaking ties, truncated to the top 20. Reports without a
// reporter name or email are skipped.
func BuildLeaderboard(reports []Report, clock clockwork.Clock) []LeaderboardEntry {
	now := clock.Now()
	currentMonth, currentYear := now.Month(), now.Year()

	byEmail := make(map[string]*LeaderboardEntry)
	var order []string // first-encountered order keeps full ties stable

	for _, r := range reports {
		if r.ReportedByEmail == "" || r.ReportedBy == "" {
			continue
		}
		entry, ok := byEmail[r.ReportedByEmail]
		if !ok {
			entry = &LeaderboardEntry{Email: r.ReportedByEmail, Name: r.ReportedBy}
			byEmail[r.ReportedByEmail] = entry
			order = append(order, r.ReportedByEmail)
		}

		entry.TotalReports++
		if r.ReportedAt.Month() == currentMonth && r.ReportedAt.Year() == currentYear {
			entry.MonthlyReports++
		}
		if r.Reward != nil && r.Status == StatusInProgress {
			entry.RewardsEarned++
		}
	}

	leaderboard := make([]LeaderboardEntry, 0, len(order))
	for _, email := range order {
		leaderboard = append(leaderboard, *byEmail[email])
	}

	sort.SliceStable(leaderboard, func(i, j int) bool {
		if leaderboard[i].MonthlyReports != leaderboard[j].MonthlyReports {
			return leaderboard[i].MonthlyReports > leaderboard[j].MonthlyReports
		}
		return leaderboard[i].TotalReports > leaderboard[j].TotalReports
	})

	if len(leaderboard) > leaderboardSize {
		leaderboard = leaderboard[:leaderboardSize]
	}
	return leaderboard
}
