package domain

import "time"

// Role determines what a user may do: citizens submit reports, authorities
// triage them. Admin exists in stored data but carries no extra privileges.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
	RoleAdmin     Role = "admin"
)

// User is an account in the local session store. Users and reports are
// correlated only by email; there is no referential enforcement, so a report
// may outlive its reporter's account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`

	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`

	// Authority-only fields, stored opaque and never validated.
	GovID    string `json:"govId,omitempty"`
	Password string `json:"password,omitempty"`

	ReportsSubmitted int `json:"reportsSubmitted"`
	ReportsResolved  int `json:"reportsResolved"`
	Reputation       int `json:"reputation"`

	JoinedAt time.Time `json:"joinedAt"`

	// Notifications is ordered newest-first.
	Notifications []Notification `json:"notifications"`

	// RewardsEarned is a monotonic lifetime counter, incremented once per
	// approval. It is intentionally not derived from the report collection;
	// the leaderboard computes its own live reward figure.
	RewardsEarned int `json:"rewardsEarned"`
}

// Normalize backfills fields added to the user schema over time.
func (u *User) Normalize() {
	if u.Notifications == nil {
		u.Notifications = []Notification{}
	}
}

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotificationApproval   NotificationType = "approval"
	NotificationRejection  NotificationType = "rejection"
	NotificationResolution NotificationType = "resolution"
	NotificationSystem     NotificationType = "system"
)

// Notification is a message delivered to a user's in-app inbox. Created by
// the lifecycle engine on state transitions and duplicate refusals, prepended
// to the target user's list. There is no deletion path.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	ReportID  string           `json:"reportId,omitempty"`
	Read      bool             `json:"read"`
	Timestamp time.Time        `json:"timestamp"`
	Reward    *Reward          `json:"reward,omitempty"`
}
