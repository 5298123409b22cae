package domain

import "time"

// EventKind names a lifecycle transition or refusal that produces side
// effects outside the report itself.
type EventKind string

const (
	EventReportSubmitted  EventKind = "report_submitted"
	EventReportApproved   EventKind = "report_approved"
	EventReportRejected   EventKind = "report_rejected"
	EventReportResolved   EventKind = "report_resolved"
	EventDuplicateRefused EventKind = "duplicate_refused"
)

// Event is emitted by the lifecycle engine alongside each transition. The
// notifier turns targeted events into stored notifications; the optional
// event publisher mirrors all of them to a stream. Keeping delivery out of
// the state machine keeps the transitions pure.
type Event struct {
	Kind       EventKind `json:"kind"`
	ReportID   string    `json:"reportId"`
	ReportType IssueType `json:"reportType,omitempty"`

	// TargetEmail is the user whose inbox receives a notification for this
	// event. Empty means the event is stream-only.
	TargetEmail string  `json:"targetEmail,omitempty"`
	Message     string  `json:"message,omitempty"`
	Reward      *Reward `json:"reward,omitempty"`

	OccurredAt time.Time `json:"occurredAt"`
}

// notificationTypes maps event kinds to the inbox category users see.
var notificationTypes = map[EventKind]NotificationType{
	EventReportApproved:   NotificationApproval,
	EventReportRejected:   NotificationRejection,
	EventReportResolved:   NotificationResolution,
	EventDuplicateRefused: NotificationSystem,
}

// Notification materializes the event as an inbox entry with the given id.
func (e Event) Notification(id string) Notification {
	return Notification{
		ID:        id,
		Type:      notificationTypes[e.Kind],
		Message:   e.Message,
		ReportID:  e.ReportID,
		Read:      false,
		Timestamp: e.OccurredAt,
		Reward:    e.Reward,
	}
}
