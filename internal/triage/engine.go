// Package triage implements the report lifecycle: submission with duplicate
// suppression and hazard classification, and the authority transitions that
// move a report from pending to in-progress, rejected, or resolved. State
// changes and their side effects (notifications, optional stream events) are
// returned together as a Decision so callers and tests can observe exactly
// what happened.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/civicfix/report-service/internal/domain"
	"github.com/civicfix/report-service/internal/observability"
	"github.com/civicfix/report-service/internal/store"
)

// EventPublisher mirrors lifecycle events to an external stream. Publishing
// is best effort; a failure is logged and counted but never rolls back the
// transition that produced the events.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Options collects the engine's collaborators. Store, Logger, and Metrics
// are required. Weather, Geocoder, and ImageLocator may be nil, in which
// case the engine simulates weather locally, falls back to plain coordinate
// addresses, and skips photo GPS extraction. Publisher may be nil to disable
// streaming. Random and Clock default to the system implementations.
type Options struct {
	Store        *store.Store
	Weather      domain.WeatherSource
	Geocoder     domain.Geocoder
	ImageLocator domain.ImageLocator
	Publisher    EventPublisher

	Random  domain.RandomSource
	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Engine owns every mutation of reports and users. All reads and writes go
// through the store's single-writer lock, so the read-check-update sequences
// below are safe as long as this engine is the only mutator of the store.
type Engine struct {
	store     *store.Store
	weather   domain.WeatherSource
	geocoder  domain.Geocoder
	locator   domain.ImageLocator
	publisher EventPublisher

	random  domain.RandomSource
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewEngine(opts Options) *Engine {
	if opts.Random == nil {
		opts.Random = domain.NewRandomSource()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Engine{
		store:     opts.Store,
		weather:   opts.Weather,
		geocoder:  opts.Geocoder,
		locator:   opts.ImageLocator,
		publisher: opts.Publisher,
		random:    opts.Random,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Coordinates is a caller-supplied live position.
type Coordinates struct {
	Lat float64
	Lng float64
}

// NewReportInput is a submission before any processing. Image holds the raw
// uploaded photo bytes and is mandatory; Live is the device position and may
// be nil when the caller could not obtain one.
type NewReportInput struct {
	Type        domain.IssueType
	Title       string
	Description string
	Image       []byte
	ImageURL    string
	Live        *Coordinates

	ReportedBy      string
	ReportedByEmail string
}

const defaultRejectionReason = "Report does not meet requirements"

// rewardMessages phrases each reward type for the approval notification.
var rewardMessages = map[domain.RewardType]string{
	domain.RewardVoucher: "a voucher",
	domain.RewardTshirt:  "a t-shirt",
	domain.RewardGoodies: "goodies",
}

// Submit validates and enriches a new report, refuses duplicates, and
// persists the result. The returned Decision carries the stored report on
// success. An error is returned only for store failures; a refused
// submission is a successful call with a non-empty Reason.
func (e *Engine) Submit(ctx context.Context, in NewReportInput) (Decision, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if !in.Type.Valid() {
		e.metrics.SubmissionsRefused.WithLabelValues(string(RefusalInvalidInput)).Inc()
		return refuse(RefusalInvalidInput, fmt.Sprintf("unknown issue type %q", in.Type)), nil
	}
	if in.Title == "" || in.Description == "" {
		e.metrics.SubmissionsRefused.WithLabelValues(string(RefusalInvalidInput)).Inc()
		return refuse(RefusalInvalidInput, "title and description are required"), nil
	}
	if len(in.Image) == 0 {
		e.metrics.SubmissionsRefused.WithLabelValues(string(RefusalInvalidInput)).Inc()
		return refuse(RefusalInvalidInput, "a photo of the issue is required"), nil
	}

	lat, lng, source := e.resolveCoordinates(in)

	reports, err := e.store.Reports(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("loading reports: %w", err)
	}
	if dup := domain.FindDuplicate(reports, lat, lng, in.Type); dup != nil {
		e.metrics.SubmissionsRefused.WithLabelValues(string(RefusalDuplicate)).Inc()
		e.logger.Info("duplicate submission refused",
			"duplicate_of", dup.ID,
			"type", in.Type,
			"location_key", domain.LocationKey(lat, lng),
		)
		events := []domain.Event{{
			Kind:        domain.EventDuplicateRefused,
			ReportID:    dup.ID,
			ReportType:  in.Type,
			TargetEmail: in.ReportedByEmail,
			Message: fmt.Sprintf(
				"A similar issue (%q) has already been reported at this location. Your report was not submitted.",
				dup.Title,
			),
			OccurredAt: e.clock.Now(),
		}}
		e.deliver(ctx, events)
		d := refuse(RefusalDuplicate, "an open report of this type already exists at this location")
		d.DuplicateOf = dup.ID
		d.Events = events
		return d, nil
	}

	address := domain.ResolveAddress(ctx, lat, lng, e.geocoder, e.logger)
	weather := e.currentWeather(ctx, lat, lng)
	hazard := domain.IsRainyHazard(in.Type, weather)

	now := e.clock.Now()
	report := domain.Report{
		ID:              uuid.NewString(),
		Type:            in.Type,
		Title:           in.Title,
		Description:     in.Description,
		Location:        domain.Location{Lat: lat, Lng: lng, Address: address},
		Status:          domain.StatusPending,
		Priority:        domain.PriorityFor(in.Type, hazard),
		ImageURL:        in.ImageURL,
		IsRainyHazard:   hazard,
		LocationSource:  source,
		ReportedBy:      in.ReportedBy,
		ReportedByEmail: in.ReportedByEmail,
		ReportedAt:      now,
	}
	report.Normalize()

	if err := e.store.AppendReport(ctx, report); err != nil {
		return Decision{}, fmt.Errorf("storing report: %w", err)
	}
	if _, err := e.store.UpdateUserByEmail(ctx, in.ReportedByEmail, func(u *domain.User) {
		u.ReportsSubmitted++
		u.Reputation += 10
	}); err != nil && err != store.ErrUserNotFound {
		return Decision{}, fmt.Errorf("updating reporter stats: %w", err)
	}

	events := []domain.Event{{
		Kind:       domain.EventReportSubmitted,
		ReportID:   report.ID,
		ReportType: report.Type,
		OccurredAt: now,
	}}
	e.deliver(ctx, events)

	e.metrics.ReportsSubmitted.Inc()
	e.logger.Info("report submitted",
		"report_id", report.ID,
		"type", report.Type,
		"priority", report.Priority,
		"rainy_hazard", report.IsRainyHazard,
		"location_source", report.LocationSource,
	)
	return Decision{Report: &report, Events: events}, nil
}

// resolveCoordinates picks the best available position for a submission:
// GPS tags embedded in the photo, then the device's live position, then a
// pseudo-random demo city so a submission never fails on missing location.
func (e *Engine) resolveCoordinates(in NewReportInput) (lat, lng float64, source domain.LocationSource) {
	if e.locator != nil {
		if lat, lng, ok := e.locator.Locate(in.Image); ok {
			return lat, lng, domain.LocationFromPhoto
		}
	}
	if in.Live != nil {
		return in.Live.Lat, in.Live.Lng, domain.LocationFromDevice
	}
	lat, lng = domain.DemoLocation(e.random)
	return lat, lng, domain.LocationFromDemo
}

func (e *Engine) currentWeather(ctx context.Context, lat, lng float64) domain.Weather {
	if e.weather == nil {
		return domain.SimulateWeather(e.random)
	}
	w, err := e.weather.Current(ctx, lat, lng)
	if err != nil {
		e.logger.Warn("weather lookup failed, simulating locally",
			"lat", lat,
			"lng", lng,
			"error", err,
		)
		e.metrics.WeatherRequests.WithLabelValues("fallback").Inc()
		return domain.SimulateWeather(e.random)
	}
	return w
}

// Approve moves a pending report to in-progress, grants the reporter a
// randomly drawn reward, and notifies them. Only authorities may approve.
func (e *Engine) Approve(ctx context.Context, reportID, actorEmail string) (Decision, error) {
	actor, d, err := e.authority(ctx, actorEmail)
	if err != nil || !d.Accepted() {
		return d, err
	}
	current, d, err := e.reportInStatus(ctx, reportID, domain.StatusPending)
	if err != nil || !d.Accepted() {
		return d, err
	}

	reward := &domain.Reward{Type: domain.RewardTypes[e.random.IntN(len(domain.RewardTypes))]}
	updated, err := e.store.UpdateReport(ctx, reportID, func(r *domain.Report) {
		r.Status = domain.StatusInProgress
		r.Reward = reward
	})
	if err != nil {
		return Decision{}, fmt.Errorf("approving report: %w", err)
	}
	if _, err := e.store.UpdateUserByEmail(ctx, current.ReportedByEmail, func(u *domain.User) {
		u.RewardsEarned++
	}); err != nil && err != store.ErrUserNotFound {
		return Decision{}, fmt.Errorf("updating reporter rewards: %w", err)
	}

	events := []domain.Event{{
		Kind:        domain.EventReportApproved,
		ReportID:    updated.ID,
		ReportType:  updated.Type,
		TargetEmail: updated.ReportedByEmail,
		Message: fmt.Sprintf(
			"Your report %q has been approved by %s! You've earned %s as a reward. Check your rewards section.",
			updated.Title, actor.Name, rewardMessages[reward.Type],
		),
		Reward:     reward,
		OccurredAt: e.clock.Now(),
	}}
	e.deliver(ctx, events)

	e.metrics.TriageTransitions.WithLabelValues("approve").Inc()
	e.logger.Info("report approved",
		"report_id", updated.ID,
		"approved_by", actor.Email,
		"reward", reward.Type,
	)
	return Decision{Report: &updated, Events: events}, nil
}

// Reject moves a pending report to rejected with the given reason, or a
// stock reason when none is supplied.
func (e *Engine) Reject(ctx context.Context, reportID, actorEmail, reason string) (Decision, error) {
	actor, d, err := e.authority(ctx, actorEmail)
	if err != nil || !d.Accepted() {
		return d, err
	}
	if _, d, err := e.reportInStatus(ctx, reportID, domain.StatusPending); err != nil || !d.Accepted() {
		return d, err
	}

	reason = strings.TrimSpace(reason)
	stored := reason
	if stored == "" {
		stored = defaultRejectionReason
	}

	now := e.clock.Now()
	updated, err := e.store.UpdateReport(ctx, reportID, func(r *domain.Report) {
		r.Status = domain.StatusRejected
		r.RejectedAt = &now
		r.RejectedBy = actor.Name
		r.RejectionReason = stored
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rejecting report: %w", err)
	}

	message := fmt.Sprintf("Your report %q has been rejected by %s.", updated.Title, actor.Name)
	if reason != "" {
		message += " Reason: " + reason
	}
	events := []domain.Event{{
		Kind:        domain.EventReportRejected,
		ReportID:    updated.ID,
		ReportType:  updated.Type,
		TargetEmail: updated.ReportedByEmail,
		Message:     message,
		OccurredAt:  now,
	}}
	e.deliver(ctx, events)

	e.metrics.TriageTransitions.WithLabelValues("reject").Inc()
	e.logger.Info("report rejected",
		"report_id", updated.ID,
		"rejected_by", actor.Email,
	)
	return Decision{Report: &updated, Events: events}, nil
}

// Resolve closes an in-progress report and credits the resolving authority.
// Resolution is terminal: the location becomes available for new reports and
// there is no transition out of resolved.
func (e *Engine) Resolve(ctx context.Context, reportID, actorEmail string) (Decision, error) {
	actor, d, err := e.authority(ctx, actorEmail)
	if err != nil || !d.Accepted() {
		return d, err
	}
	if _, d, err := e.reportInStatus(ctx, reportID, domain.StatusInProgress); err != nil || !d.Accepted() {
		return d, err
	}

	now := e.clock.Now()
	updated, err := e.store.UpdateReport(ctx, reportID, func(r *domain.Report) {
		r.Status = domain.StatusResolved
		r.ResolvedAt = &now
		r.ResolvedBy = actor.Name
	})
	if err != nil {
		return Decision{}, fmt.Errorf("resolving report: %w", err)
	}
	if _, err := e.store.UpdateUserByEmail(ctx, actor.Email, func(u *domain.User) {
		u.ReportsResolved++
		u.Reputation += 25
	}); err != nil && err != store.ErrUserNotFound {
		return Decision{}, fmt.Errorf("updating resolver stats: %w", err)
	}

	events := []domain.Event{{
		Kind:        domain.EventReportResolved,
		ReportID:    updated.ID,
		ReportType:  updated.Type,
		TargetEmail: updated.ReportedByEmail,
		Message: fmt.Sprintf(
			"Your report %q has been resolved by %s. Please check the app for details.",
			updated.Title, actor.Name,
		),
		OccurredAt: now,
	}}
	e.deliver(ctx, events)

	e.metrics.TriageTransitions.WithLabelValues("resolve").Inc()
	e.logger.Info("report resolved",
		"report_id", updated.ID,
		"resolved_by", actor.Email,
	)
	return Decision{Report: &updated, Events: events}, nil
}

// RecordView bumps a report's view counter and returns the updated report.
func (e *Engine) RecordView(ctx context.Context, reportID string) (domain.Report, error) {
	return e.store.UpdateReport(ctx, reportID, func(r *domain.Report) {
		r.Views++
	})
}

// RegisterUser creates an account, or signs in the existing one when the
// email is already known. Either way the account becomes the current user.
func (e *Engine) RegisterUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Email == "" || strings.TrimSpace(u.Name) == "" {
		return domain.User{}, fmt.Errorf("name and email are required")
	}

	existing, err := e.store.UserByEmail(ctx, u.Email)
	switch err {
	case nil:
		if err := e.store.SetCurrentUser(ctx, &existing); err != nil {
			return domain.User{}, fmt.Errorf("setting current user: %w", err)
		}
		return existing, nil
	case store.ErrUserNotFound:
	default:
		return domain.User{}, fmt.Errorf("looking up user: %w", err)
	}

	if u.Role == "" {
		u.Role = domain.RoleCitizen
	}
	u.ID = uuid.NewString()
	u.JoinedAt = e.clock.Now()
	u.Normalize()

	if err := e.store.UpsertUser(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("storing user: %w", err)
	}
	if err := e.store.SetCurrentUser(ctx, &u); err != nil {
		return domain.User{}, fmt.Errorf("setting current user: %w", err)
	}
	e.logger.Info("user registered", "email", u.Email, "role", u.Role)
	return u, nil
}

// CheckReadiness verifies the engine can reach its store.
func (e *Engine) CheckReadiness(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// authority loads the acting user and refuses unless they hold the
// authority role. Unknown callers are refused the same way so the response
// does not leak which emails exist.
func (e *Engine) authority(ctx context.Context, email string) (domain.User, Decision, error) {
	actor, err := e.store.UserByEmail(ctx, email)
	if err == store.ErrUserNotFound {
		e.metrics.TriageRefusals.WithLabelValues(string(RefusalNotAuthority)).Inc()
		return domain.User{}, refuse(RefusalNotAuthority, "only authority accounts may triage reports"), nil
	}
	if err != nil {
		return domain.User{}, Decision{}, fmt.Errorf("looking up actor: %w", err)
	}
	if actor.Role != domain.RoleAuthority {
		e.metrics.TriageRefusals.WithLabelValues(string(RefusalNotAuthority)).Inc()
		return domain.User{}, refuse(RefusalNotAuthority, "only authority accounts may triage reports"), nil
	}
	return actor, Decision{}, nil
}

// reportInStatus loads a report and refuses unless it currently sits in the
// status the transition requires.
func (e *Engine) reportInStatus(ctx context.Context, id string, want domain.Status) (domain.Report, Decision, error) {
	reports, err := e.store.Reports(ctx)
	if err != nil {
		return domain.Report{}, Decision{}, fmt.Errorf("loading reports: %w", err)
	}
	for _, r := range reports {
		if r.ID != id {
			continue
		}
		if r.Status != want {
			e.metrics.TriageRefusals.WithLabelValues(string(RefusalWrongStatus)).Inc()
			return domain.Report{}, refuse(RefusalWrongStatus,
				fmt.Sprintf("report is %s, expected %s", r.Status, want)), nil
		}
		return r, Decision{}, nil
	}
	e.metrics.TriageRefusals.WithLabelValues(string(RefusalNotFound)).Inc()
	return domain.Report{}, refuse(RefusalNotFound, "no such report"), nil
}

// deliver stores a notification for each targeted event and mirrors the
// whole batch to the stream publisher when one is configured.
func (e *Engine) deliver(ctx context.Context, events []domain.Event) {
	for _, ev := range events {
		if ev.TargetEmail == "" {
			continue
		}
		if err := e.store.AppendNotification(ctx, ev.TargetEmail, ev.Notification(uuid.NewString())); err != nil {
			e.logger.Warn("storing notification failed",
				"target", ev.TargetEmail,
				"report_id", ev.ReportID,
				"error", err,
			)
			continue
		}
		e.metrics.NotificationsStored.Inc()
	}

	if e.publisher == nil || len(events) == 0 {
		return
	}
	if err := e.publisher.Publish(ctx, events); err != nil {
		e.metrics.EventPublishErrors.Inc()
		e.logger.Warn("publishing lifecycle events failed",
			"count", len(events),
			"error", err,
		)
		return
	}
	e.metrics.EventsPublished.Add(float64(len(events)))
}
