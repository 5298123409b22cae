package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicfix/report-service/internal/domain"
	"github.com/civicfix/report-service/internal/observability"
	"github.com/civicfix/report-service/internal/store"
	"github.com/civicfix/report-service/internal/triage"
)

var serverNow = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

type stubWeather struct{ raining bool }

func (s stubWeather) Current(context.Context, float64, float64) (domain.Weather, error) {
	return domain.Weather{IsRaining: s.raining, Temperature: 24, Description: "clear", Humidity: 60}, nil
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clock := clockwork.NewFakeClockAt(serverNow)
	engine := triage.NewEngine(triage.Options{
		Store:   st,
		Weather: stubWeather{},
		Clock:   clock,
		Logger:  slog.Default(),
		Metrics: observability.NewMetricsForTesting(),
	})
	return NewServer(":0", engine, st, clock, slog.Default()), st
}

func seedUsers(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []domain.User{
		{ID: "u1", Name: "Asha", Email: "asha@example.com", Role: domain.RoleCitizen, Notifications: []domain.Notification{}},
		{ID: "a1", Name: "Inspector Rao", Email: "authority@city.gov", Role: domain.RoleAuthority, Notifications: []domain.Notification{}},
	} {
		require.NoError(t, st.UpsertUser(ctx, u))
	}
}

func submitBody(title string, lat, lng float64) string {
	image := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	return fmt.Sprintf(`{
		"type": "pothole",
		"title": %q,
		"description": "Front wheel sized hole near the bus stop.",
		"image": %q,
		"lat": %f,
		"lng": %f,
		"reportedBy": "Asha",
		"reportedByEmail": "asha@example.com"
	}`, title, image, lat, lng)
}

func doRequest(s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func submitReport(t *testing.T, s *Server, title string, lat, lng float64) domain.Report {
	t.Helper()
	rec := doRequest(s, http.MethodPost, "/api/v1/reports", submitBody(title, lat, lng), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	return report
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestSubmitReportJSON(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)

	report := submitReport(t, s, "Deep pothole on MG Road", 12.9716, 77.5946)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, domain.StatusPending, report.Status)
	assert.Equal(t, domain.IssuePothole, report.Type)
	assert.Equal(t, domain.LocationFromDevice, report.LocationSource)
}

func TestSubmitReportInvalid(t *testing.T) {
	s, _ := newTestServer(t)

	body := strings.Replace(submitBody("Pothole", 12.9716, 77.5946), `"pothole"`, `"graffiti"`, 1)
	rec := doRequest(s, http.MethodPost, "/api/v1/reports", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_input")

	rec = doRequest(s, http.MethodPost, "/api/v1/reports", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReportDuplicate(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)

	first := submitReport(t, s, "Deep pothole on MG Road", 12.9716, 77.5946)

	rec := doRequest(s, http.MethodPost, "/api/v1/reports", submitBody("Same pothole", 12.9716, 77.5946), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "duplicate", body["reason"])
	assert.Equal(t, first.ID, body["duplicateOf"])
}

func TestGetReport(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)
	report := submitReport(t, s, "Deep pothole on MG Road", 12.9716, 77.5946)

	t.Run("list", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/v1/reports", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var reports []domain.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
		require.Len(t, reports, 1)
		assert.Equal(t, report.ID, reports[0].ID)
	})

	t.Run("fetch does not count a view", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/v1/reports/"+report.ID, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 0, got.Views)
	})

	t.Run("view=1 bumps the counter", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/v1/reports/"+report.ID+"?view=1", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 1, got.Views)
	})

	t.Run("missing id", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/v1/reports/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(s, http.MethodGet, "/api/v1/reports/nope?view=1", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTriageEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)
	report := submitReport(t, s, "Deep pothole on MG Road", 12.9716, 77.5946)
	asAuthority := map[string]string{callerHeader: "authority@city.gov"}

	t.Run("citizen is refused", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/reports/"+report.ID+"/approve", "", map[string]string{callerHeader: "asha@example.com"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("approve", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/reports/"+report.ID+"/approve", "", asAuthority)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got domain.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, domain.StatusInProgress, got.Status)
		assert.NotNil(t, got.Reward)
	})

	t.Run("approve again conflicts", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/reports/"+report.ID+"/approve", "", asAuthority)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("resolve", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/reports/"+report.ID+"/resolve", "", asAuthority)
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, domain.StatusResolved, got.Status)
	})

	t.Run("unknown report", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/reports/nope/approve", "", asAuthority)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRejectEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)
	report := submitReport(t, s, "Blurry photo", 12.9716, 77.5946)

	rec := doRequest(s, http.MethodPost, "/api/v1/reports/"+report.ID+"/reject",
		`{"reason": "Photo does not show the issue"}`,
		map[string]string{callerHeader: "authority@city.gov"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, "Photo does not show the issue", got.RejectionReason)
}

func TestExportReports(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)
	submitReport(t, s, "Deep pothole on MG Road", 12.9716, 77.5946)

	rec := doRequest(s, http.MethodGet, "/api/v1/reports/export", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "reports.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Type,Title,Status,Priority,Location,Reported By,Reported At,Resolved At,Upvotes", lines[0])
	assert.Contains(t, lines[1], "Deep pothole on MG Road")
}

func TestAnalyticsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)
	submitReport(t, s, "Deep pothole on MG Road", 12.9716, 77.5946)

	rec := doRequest(s, http.MethodGet, "/api/v1/analytics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Analytics  domain.Analytics                          `json:"analytics"`
		IssueTypes map[domain.IssueType]domain.IssueTypeStat `json:"issueTypes"`
		Trends     []domain.TrendPoint                       `json:"trends"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Analytics.TotalReports)
	assert.Equal(t, "pothole", body.Analytics.TopIssueType)
	assert.Len(t, body.IssueTypes, 5)
	assert.Len(t, body.Trends, 7)
	assert.Equal(t, 1, body.Trends[6].Count)
}

func TestLeaderboardEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	seedUsers(t, s.store)
	submitReport(t, s, "Deep pothole on MG Road", 12.9716, 77.5946)

	rec := doRequest(s, http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []domain.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "asha@example.com", entries[0].Email)
	assert.Equal(t, 1, entries[0].MonthlyReports)
}

func TestRegisterUserEndpoint(t *testing.T) {
	s, st := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/users",
		`{"name": "Asha", "email": "Asha@Example.com"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var u domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, domain.RoleCitizen, u.Role)

	current, err := st.CurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, u.ID, current.ID)

	rec = doRequest(s, http.MethodPost, "/api/v1/users", `{"email": "x@example.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
