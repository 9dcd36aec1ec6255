package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/middleware"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/response"
	"github.com/upstats/earnings-backend/pkg/logger"
)

type stubReportService struct {
	lastArgs   dto.ReportArgs
	lastClient string
	report     models.Report
	hours      models.HoursReport
	combined   dto.CombinedEarning
	history    dto.TxnHistoryResult
	allTime    dto.AllTimeResult
	err        error
}

func (s *stubReportService) HourlyYear(_ context.Context, args dto.ReportArgs) (models.Report, error) {
	s.lastArgs = args
	return s.report, s.err
}

func (s *stubReportService) HourlyMonth(_ context.Context, args dto.ReportArgs) (models.Report, error) {
	s.lastArgs = args
	return s.report, s.err
}

func (s *stubReportService) FixedYear(_ context.Context, args dto.ReportArgs) (models.Report, error) {
	s.lastArgs = args
	return s.report, s.err
}

func (s *stubReportService) FixedMonth(_ context.Context, args dto.ReportArgs) (models.Report, error) {
	s.lastArgs = args
	return s.report, s.err
}

func (s *stubReportService) WeeklyHours(_ context.Context, args dto.ReportArgs) (models.HoursReport, error) {
	s.lastArgs = args
	return s.hours, s.err
}

func (s *stubReportService) TotalEarning(_ context.Context, args dto.ReportArgs) (dto.CombinedEarning, error) {
	s.lastArgs = args
	return s.combined, s.err
}

func (s *stubReportService) ClientMonthDetail(_ context.Context, args dto.ReportArgs, client string) (models.Report, error) {
	s.lastArgs = args
	s.lastClient = client
	return s.report, s.err
}

func (s *stubReportService) TxnHistory(_ context.Context, args dto.ReportArgs) (dto.TxnHistoryResult, error) {
	s.lastArgs = args
	return s.history, s.err
}

func (s *stubReportService) AllTime(_ context.Context, args dto.ReportArgs) (dto.AllTimeResult, error) {
	s.lastArgs = args
	return s.allTime, s.err
}

func newTestLogger() *slog.Logger {
	return logger.New("", logger.NewTestHandler)
}

func testDeps(svc *stubReportService) *Deps {
	log := newTestLogger()
	return &Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		ReportSvc:       svc,
	}
}

func testSession() *models.Session {
	return &models.Session{
		ID:                  "sess-1",
		UserID:              "u-1",
		FreelancerReference: "~abc",
		TenantID:            "org-1",
		TenantIDs:           []string{"org-1", "org-2"},
		Token:               &oauth2.Token{AccessToken: "tok-1"},
	}
}

func doReportRequest(t *testing.T, svc *stubReportService, target string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewReportHandlers(testDeps(svc))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := logger.ToContext(req.Context(), newTestLogger())
	ctx = middleware.WithSession(ctx, testSession())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	h.ReportRoutes().ServeHTTP(rec, req)
	return rec
}

func TestHourlyYearHandler(t *testing.T) {
	svc := &stubReportService{report: models.Report{Year: "2024", TotalEarning: 230.75}}
	rec := doReportRequest(t, svc, "/hourly/2024")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool          `json:"success"`
		Data    models.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !envelope.Success || envelope.Data.TotalEarning != 230.75 {
		t.Fatalf("envelope = %+v", envelope)
	}

	if svc.lastArgs.Year != 2024 || svc.lastArgs.Month != 0 {
		t.Fatalf("args = %+v", svc.lastArgs)
	}
	if svc.lastArgs.UserID != "u-1" || svc.lastArgs.AccessToken != "tok-1" {
		t.Fatalf("session not threaded into args: %+v", svc.lastArgs)
	}
	if svc.lastArgs.TenantID != "org-1" || len(svc.lastArgs.TenantIDs) != 2 {
		t.Fatalf("tenant scope missing: %+v", svc.lastArgs)
	}
}

func TestMonthValidation(t *testing.T) {
	svc := &stubReportService{}
	rec := doReportRequest(t, svc, "/hourly/2024/13")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	var errResp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if errResp.Code != "invalid_input" {
		t.Fatalf("code = %q", errResp.Code)
	}
}

func TestYearValidation(t *testing.T) {
	rec := doReportRequest(t, &stubReportService{}, "/fixed/abcd")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthErrorMapsTo401(t *testing.T) {
	svc := &stubReportService{err: errs.NewAuthError("token rejected")}
	rec := doReportRequest(t, svc, "/total/2024")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	var errResp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if errResp.Code != "auth_required" {
		t.Fatalf("code = %q", errResp.Code)
	}
}

func TestUpstreamErrorMapsTo502(t *testing.T) {
	svc := &stubReportService{err: errs.NewUpstreamError("all sources failed")}
	rec := doReportRequest(t, svc, "/transactions/2024")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTransientUpstreamErrorMapsTo503(t *testing.T) {
	svc := &stubReportService{err: errs.NewTransientUpstreamError("timeout")}
	rec := doReportRequest(t, svc, "/all-time")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestClientMonthDetailRoute(t *testing.T) {
	svc := &stubReportService{report: models.Report{Year: "2024", Month: "Mar"}}
	rec := doReportRequest(t, svc, "/total/2024/3/client/Acme")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.lastClient != "Acme" {
		t.Fatalf("client = %q", svc.lastClient)
	}
	if svc.lastArgs.Year != 2024 || svc.lastArgs.Month != 3 {
		t.Fatalf("args = %+v", svc.lastArgs)
	}
}

func TestQueryFlagsReachArgs(t *testing.T) {
	svc := &stubReportService{}
	rec := doReportRequest(t, svc, "/transactions/2024/3?net=1&debug=1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !svc.lastArgs.Net || !svc.lastArgs.Debug {
		t.Fatalf("flags not set: %+v", svc.lastArgs)
	}
	if svc.lastArgs.Month != 3 {
		t.Fatalf("month = %d", svc.lastArgs.Month)
	}
}
