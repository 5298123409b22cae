// Package http exposes the report service as a JSON API, plus the health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicfix/report-service/internal/domain"
	"github.com/civicfix/report-service/internal/store"
	"github.com/civicfix/report-service/internal/triage"
)

// maxUploadBytes caps the accepted photo size at 10 MiB.
const maxUploadBytes = 10 << 20

// callerHeader carries the acting user's email on triage requests. There is
// no authentication beyond it; the engine checks the account's role.
const callerHeader = "X-User-Email"

var (
	errInvalidBody        = errors.New("invalid request body")
	errInvalidImage       = errors.New("image must be base64 encoded")
	errInvalidCoordinates = errors.New("lat and lng must be decimal degrees")
)

// Server routes the report API onto a triage engine and its store.
type Server struct {
	httpServer *http.Server
	engine     *triage.Engine
	store      *store.Store
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer wires every route. The store is read directly for list and
// aggregation endpoints; all writes go through the engine.
func NewServer(addr string, engine *triage.Engine, st *store.Store, clock clockwork.Clock, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		store:  st,
		clock:  clock,
		logger: logger,
	}

	mux.HandleFunc("POST /api/v1/reports", s.handleSubmitReport)
	mux.HandleFunc("GET /api/v1/reports", s.handleListReports)
	mux.HandleFunc("GET /api/v1/reports/export", s.handleExportReports)
	mux.HandleFunc("GET /api/v1/reports/{id}", s.handleGetReport)
	mux.HandleFunc("POST /api/v1/reports/{id}/approve", s.handleTransition(engine.Approve))
	mux.HandleFunc("POST /api/v1/reports/{id}/resolve", s.handleTransition(engine.Resolve))
	mux.HandleFunc("POST /api/v1/reports/{id}/reject", s.handleReject)
	mux.HandleFunc("GET /api/v1/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/v1/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("POST /api/v1/users", s.handleRegisterUser)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// submitRequest is the JSON submission body. Image is base64, with or
// without a data-URL prefix. Lat and Lng are optional; when absent the
// engine falls back to photo GPS tags or a demo location.
type submitRequest struct {
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Image           string   `json:"image"`
	ImageURL        string   `json:"imageUrl"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	ReportedBy      string   `json:"reportedBy"`
	ReportedByEmail string   `json:"reportedByEmail"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var in triage.NewReportInput
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		in, err = parseMultipartSubmission(r)
	} else {
		in, err = parseJSONSubmission(r)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := s.engine.Submit(r.Context(), in)
	if err != nil {
		s.internalError(w, "submitting report", err)
		return
	}
	if !d.Accepted() {
		writeRefusal(w, d)
		return
	}
	writeJSON(w, http.StatusCreated, d.Report)
}

func parseJSONSubmission(r *http.Request) (triage.NewReportInput, error) {
	var req submitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return triage.NewReportInput{}, errInvalidBody
	}

	in := triage.NewReportInput{
		Type:            domain.IssueType(req.Type),
		Title:           req.Title,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		ReportedBy:      req.ReportedBy,
		ReportedByEmail: req.ReportedByEmail,
	}
	if req.Image != "" {
		image, err := decodeImage(req.Image)
		if err != nil {
			return triage.NewReportInput{}, err
		}
		in.Image = image
	}
	if req.Lat != nil && req.Lng != nil {
		in.Live = &triage.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}
	return in, nil
}

func parseMultipartSubmission(r *http.Request) (triage.NewReportInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return triage.NewReportInput{}, errInvalidBody
	}

	in := triage.NewReportInput{
		Type:            domain.IssueType(r.FormValue("type")),
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		ImageURL:        r.FormValue("imageUrl"),
		ReportedBy:      r.FormValue("reportedBy"),
		ReportedByEmail: r.FormValue("reportedByEmail"),
	}

	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return triage.NewReportInput{}, errInvalidBody
		}
		in.Image = image
	}

	latStr, lngStr := r.FormValue("lat"), r.FormValue("lng")
	if latStr != "" && lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			return triage.NewReportInput{}, errInvalidCoordinates
		}
		in.Live = &triage.Coordinates{Lat: lat, Lng: lng}
	}
	return in, nil
}

// decodeImage accepts raw base64 or a data URL such as
// "data:image/jpeg;base64,...".
func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errInvalidImage
	}
	return image, nil
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.Reports(r.Context())
	if err != nil {
		s.internalError(w, "listing reports", err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if r.URL.Query().Get("view") == "1" {
		report, err := s.engine.RecordView(r.Context(), id)
		if err == store.ErrReportNotFound {
			writeError(w, http.StatusNotFound, "no such report")
			return
		}
		if err != nil {
			s.internalError(w, "recording view", err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	reports, err := s.store.Reports(r.Context())
	if err != nil {
		s.internalError(w, "loading report", err)
		return
	}
	for _, report := range reports {
		if report.ID == id {
			writeJSON(w, http.StatusOK, report)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such report")
}

// handleTransition adapts the approve and resolve engine calls, which share
// a signature, into handlers.
func (s *Server) handleTransition(op func(ctx context.Context, reportID, actorEmail string) (triage.Decision, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := op(r.Context(), r.PathValue("id"), r.Header.Get(callerHeader))
		if err != nil {
			s.internalError(w, "applying transition", err)
			return
		}
		if !d.Accepted() {
			writeRefusal(w, d)
			return
		}
		writeJSON(w, http.StatusOK, d.Report)
	}
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	// An empty or absent body means the stock rejection reason.
	_ = json.NewDecoder(r.Body).Decode(&body)

	d, err := s.engine.Reject(r.Context(), r.PathValue("id"), r.Header.Get(callerHeader), body.Reason)
	if err != nil {
		s.internalError(w, "rejecting report", err)
		return
	}
	if !d.Accepted() {
		writeRefusal(w, d)
		return
	}
	writeJSON(w, http.StatusOK, d.Report)
}

func (s *Server) handleExportReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.Reports(r.Context())
	if err != nil {
		s.internalError(w, "exporting reports", err)
		return
	}
	csv, err := domain.ReportsCSV(reports)
	if err != nil {
		s.internalError(w, "encoding csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="reports.csv"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, csv) //nolint:errcheck // response already committed
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.Reports(r.Context())
	if err != nil {
		s.internalError(w, "computing analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analytics":  domain.CalculateAnalytics(reports, s.clock),
		"issueTypes": domain.IssueTypeStats(reports),
		"trends":     domain.ReportTrends(reports, s.clock),
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.Reports(r.Context())
	if err != nil {
		s.internalError(w, "computing leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.BuildLeaderboard(reports, s.clock))
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}

	registered, err := s.engine.RegisterUser(r.Context(), u)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, registered)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.engine.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

var refusalStatus = map[triage.RefusalReason]int{
	triage.RefusalInvalidInput: http.StatusBadRequest,
	triage.RefusalDuplicate:    http.StatusConflict,
	triage.RefusalNotFound:     http.StatusNotFound,
	triage.RefusalNotAuthority: http.StatusForbidden,
	triage.RefusalWrongStatus:  http.StatusConflict,
}

func writeRefusal(w http.ResponseWriter, d triage.Decision) {
	status, ok := refusalStatus[d.Reason]
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	body := map[string]string{
		"error":  d.Detail,
		"reason": string(d.Reason),
	}
	if d.DuplicateOf != "" {
		body["duplicateOf"] = d.DuplicateOf
	}
	writeJSON(w, status, body)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
