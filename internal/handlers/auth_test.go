package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/middleware"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/response"
	"github.com/upstats/earnings-backend/internal/session"
	"github.com/upstats/earnings-backend/pkg/logger"
)

type stubAuthService struct {
	session *models.Session
	err     error
	code    string
}

func (s *stubAuthService) LoginURL(state string) string {
	return "https://auth.example/authorize?state=" + state
}

func (s *stubAuthService) CompleteLogin(_ context.Context, code string) (*models.Session, error) {
	s.code = code
	return s.session, s.err
}

type stubTenantService struct {
	companies []dto.Company
	err       error
}

func (s *stubTenantService) ListCompanies(_ context.Context, _ string) ([]dto.Company, error) {
	return s.companies, s.err
}

func authDeps(authSvc *stubAuthService, tenantSvc *stubTenantService, sessions *session.Store) *Deps {
	log := newTestLogger()
	return &Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		AuthSvc:         authSvc,
		TenantSvc:       tenantSvc,
		Sessions:        sessions,
	}
}

func withTestLogger(req *http.Request) *http.Request {
	return req.WithContext(logger.ToContext(req.Context(), newTestLogger()))
}

func TestLoginRedirectsWithState(t *testing.T) {
	h := NewAuthHandlers(authDeps(&stubAuthService{}, &stubTenantService{}, session.NewStore()))

	req := withTestLogger(httptest.NewRequest(http.MethodGet, "/login", nil))
	rec := httptest.NewRecorder()
	h.PublicRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}

	var state string
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatalf("no state cookie set")
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "state="+state) {
		t.Fatalf("redirect %q does not carry state %q", location, state)
	}
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	h := NewAuthHandlers(authDeps(&stubAuthService{}, &stubTenantService{}, session.NewStore()))

	req := withTestLogger(httptest.NewRequest(http.MethodGet, "/callback?state=other&code=c1", nil))
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})
	rec := httptest.NewRecorder()
	h.PublicRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCallbackRequiresCode(t *testing.T) {
	h := NewAuthHandlers(authDeps(&stubAuthService{}, &stubTenantService{}, session.NewStore()))

	req := withTestLogger(httptest.NewRequest(http.MethodGet, "/callback?state=s1", nil))
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
	rec := httptest.NewRecorder()
	h.PublicRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCallbackCreatesSessionCookie(t *testing.T) {
	authSvc := &stubAuthService{session: &models.Session{ID: "sess-9", UserID: "u-1", FullName: "Jane Doe"}}
	h := NewAuthHandlers(authDeps(authSvc, &stubTenantService{}, session.NewStore()))

	req := withTestLogger(httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=code-1", nil))
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
	rec := httptest.NewRecorder()
	h.PublicRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if authSvc.code != "code-1" {
		t.Fatalf("exchange code = %q", authSvc.code)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value != "sess-9" {
		t.Fatalf("session cookie = %+v", sessionCookie)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    dto.SessionInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if envelope.Data.UserID != "u-1" || envelope.Data.FullName != "Jane Doe" {
		t.Fatalf("session info = %+v", envelope.Data)
	}
}

func TestCallbackPropagatesExchangeFailure(t *testing.T) {
	authSvc := &stubAuthService{err: errs.NewAuthError("code exchange failed")}
	h := NewAuthHandlers(authDeps(authSvc, &stubTenantService{}, session.NewStore()))

	req := withTestLogger(httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=bad", nil))
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
	rec := httptest.NewRecorder()
	h.PublicRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSelectTenantValidatesScope(t *testing.T) {
	store := session.NewStore()
	sess := store.Create(models.Session{UserID: "u-1", TenantIDs: []string{"org-1", "org-2"}})
	h := NewAuthHandlers(authDeps(&stubAuthService{}, &stubTenantService{}, store))

	body := strings.NewReader(`{"tenant_id":"org-9"}`)
	req := withTestLogger(httptest.NewRequest(http.MethodPost, "/tenant", body))
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.SessionRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSelectTenantUpdatesSession(t *testing.T) {
	store := session.NewStore()
	sess := store.Create(models.Session{UserID: "u-1", TenantIDs: []string{"org-1", "org-2"}})
	h := NewAuthHandlers(authDeps(&stubAuthService{}, &stubTenantService{}, store))

	body := strings.NewReader(`{"tenant_id":"org-2"}`)
	req := withTestLogger(httptest.NewRequest(http.MethodPost, "/tenant", body))
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.SessionRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := store.Get(sess.ID); got.TenantID != "org-2" {
		t.Fatalf("stored tenant = %q", got.TenantID)
	}
}

func TestLogoutDeletesSessionAndClearsCookie(t *testing.T) {
	store := session.NewStore()
	sess := store.Create(models.Session{UserID: "u-1"})
	h := NewAuthHandlers(authDeps(&stubAuthService{}, &stubTenantService{}, store))

	req := withTestLogger(httptest.NewRequest(http.MethodPost, "/logout", nil))
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.SessionRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.Get(sess.ID) != nil {
		t.Fatalf("session survived logout")
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("session cookie not cleared")
	}
}

func TestTenantsListsCompanies(t *testing.T) {
	tenantSvc := &stubTenantService{companies: []dto.Company{
		{ID: "org-1", Name: "Solo"},
		{ID: "org-2", Name: "Agency"},
	}}
	h := NewAuthHandlers(authDeps(&stubAuthService{}, tenantSvc, session.NewStore()))

	req := withTestLogger(httptest.NewRequest(http.MethodGet, "/tenants", nil))
	req = req.WithContext(middleware.WithSession(req.Context(), testSession()))
	rec := httptest.NewRecorder()
	h.SessionRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var envelope struct {
		Data dto.TenantSelection `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(envelope.Data.Companies) != 2 || envelope.Data.SelectedID != "org-1" {
		t.Fatalf("selection = %+v", envelope.Data)
	}
}
