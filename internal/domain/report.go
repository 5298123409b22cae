package domain

import "time"

// IssueType classifies the physical problem a report describes.
type IssueType string

const (
	IssuePothole     IssueType = "pothole"
	IssueStreetlight IssueType = "streetlight"
	IssueWaterLeak   IssueType = "water-leak"
	IssueWaste       IssueType = "waste"
	IssueManhole     IssueType = "manhole"
)

// IssueTypes lists every valid issue type in display order.
var IssueTypes = []IssueType{IssuePothole, IssueStreetlight, IssueWaterLeak, IssueWaste, IssueManhole}

// Valid reports whether t is one of the known issue types.
func (t IssueType) Valid() bool {
	for _, known := range IssueTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Status is a report's position in the triage lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// Priority ranks how urgently a report should be handled.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// RewardType is the kind of reward granted when a report is approved.
type RewardType string

const (
	RewardVoucher RewardType = "voucher"
	RewardTshirt  RewardType = "tshirt"
	RewardGoodies RewardType = "goodies"
)

// RewardTypes lists the pool a reward is drawn from on approval.
var RewardTypes = []RewardType{RewardVoucher, RewardTshirt, RewardGoodies}

// LocationSource records how a report's coordinates were obtained, for
// user-visible disclosure when a fallback was used.
type LocationSource string

const (
	LocationFromPhoto  LocationSource = "photo" // EXIF GPS tags in the uploaded image
	LocationFromDevice LocationSource = "live"  // caller-supplied live geolocation
	LocationFromDemo   LocationSource = "demo"  // pseudo-random fallback city
)

// Location is a WGS-84 coordinate pair plus its human-readable address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Reward is granted to the reporter when an authority approves a report.
// It is only meaningful while the report is in progress.
type Reward struct {
	Type      RewardType `json:"type"`
	Claimed   bool       `json:"claimed"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

// Comment is a discussion entry attached to a report.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Report is a citizen-submitted record of a physical civic issue.
type Report struct {
	ID          string    `json:"id"`
	Type        IssueType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    Location  `json:"location"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`

	ImageURL       string         `json:"imageUrl,omitempty"`
	IsRainyHazard  bool           `json:"isRainyHazard"`
	LocationSource LocationSource `json:"locationSource,omitempty"`

	ReportedBy      string    `json:"reportedBy"`
	ReportedByEmail string    `json:"reportedByEmail"`
	ReportedAt      time.Time `json:"reportedAt"`

	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy      string     `json:"resolvedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	Reward *Reward `json:"reward,omitempty"`

	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	VotedBy    []string  `json:"votedBy"`
	Comments   []Comment `json:"comments"`
	Views      int       `json:"views"`
	ShareCount int       `json:"shareCount"`
	Tags       []string  `json:"tags"`
}

// defaultReporterEmail backfills legacy records stored before the email field
// existed, so notification fan-out always has a target.
const defaultReporterEmail = "user@example.com"

// Normalize backfills zero-valued fields that were added to the schema over
// time. The store applies it to every report decoded from persistence, since
// the storage layer itself carries no schema version.
func (r *Report) Normalize() {
	if r.VotedBy == nil {
		r.VotedBy = []string{}
	}
	if r.Comments == nil {
		r.Comments = []Comment{}
	}
	if len(r.Tags) == 0 {
		r.Tags = []string{string(r.Type)}
	}
	if r.ReportedByEmail == "" {
		r.ReportedByEmail = defaultReporterEmail
	}
}
