package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/oauth2"

	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/pkg/helpers"
)

type stubOAuth struct {
	token *oauth2.Token
	err   error
	code  string
}

func (s *stubOAuth) AuthCodeURL(state string) string { return "https://auth.example?state=" + state }

func (s *stubOAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	s.code = code
	return s.token, s.err
}

type stubLister struct {
	companies []dto.Company
	err       error
}

func (s *stubLister) ListCompanies(_ context.Context, _ string) ([]dto.Company, error) {
	return s.companies, s.err
}

type stubSessions struct {
	created *models.Session
}

func (s *stubSessions) Create(sess models.Session) *models.Session {
	sess.ID = "sess-1"
	s.created = &sess
	return s.created
}

func userPayload(nid, name, profileURL string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"user": map[string]any{
				"nid":  nid,
				"name": name,
				"freelancerProfile": map[string]any{
					"profileUrl": profileURL,
				},
			},
		},
	}
}

func TestCompleteLogin(t *testing.T) {
	oauthStub := &stubOAuth{token: &oauth2.Token{AccessToken: "tok-1", RefreshToken: "r-1"}}
	api := &stubAPI{
		execute: func(_ string, _ map[string]any) (map[string]any, error) {
			return userPayload("u-1", "Jane Doe", "https://www.upwork.com/freelancers/~01abc"), nil
		},
	}
	lister := &stubLister{companies: []dto.Company{{ID: "org-1", Name: "Solo"}, {ID: "org-2", Name: "Agency"}}}
	sessions := &stubSessions{}
	svc := NewAuthService(oauthStub, stubFactory{api}, lister, sessions)

	sess, err := svc.CompleteLogin(helpers.TestCtx(), "code-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if oauthStub.code != "code-1" {
		t.Fatalf("exchanged code = %q", oauthStub.code)
	}
	if sess.UserID != "u-1" || sess.FullName != "Jane Doe" {
		t.Fatalf("session identity: %+v", sess)
	}
	if sess.FreelancerReference != "~01abc" {
		t.Fatalf("reference = %q", sess.FreelancerReference)
	}
	if sess.Token == nil || sess.Token.AccessToken != "tok-1" {
		t.Fatalf("token not stored: %+v", sess.Token)
	}
	if sess.TenantID != "org-1" || len(sess.TenantIDs) != 2 {
		t.Fatalf("tenant scope: %+v", sess)
	}
	if sessions.created == nil {
		t.Fatalf("session not persisted")
	}
}

func TestCompleteLoginExchangeFailure(t *testing.T) {
	oauthStub := &stubOAuth{err: errors.New("invalid_grant")}
	svc := NewAuthService(oauthStub, stubFactory{&stubAPI{}}, &stubLister{}, &stubSessions{})

	_, err := svc.CompleteLogin(helpers.TestCtx(), "bad")
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*errs.AuthError); !ok {
		t.Fatalf("error type %T, want *errs.AuthError", err)
	}
}

func TestCompleteLoginFallsBackToUserIDReference(t *testing.T) {
	oauthStub := &stubOAuth{token: &oauth2.Token{AccessToken: "tok-1"}}
	api := &stubAPI{
		execute: func(_ string, _ map[string]any) (map[string]any, error) {
			return userPayload("u-1", "Jane Doe", ""), nil
		},
	}
	svc := NewAuthService(oauthStub, stubFactory{api}, &stubLister{}, &stubSessions{})

	sess, err := svc.CompleteLogin(helpers.TestCtx(), "code-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.FreelancerReference != "u-1" {
		t.Fatalf("reference = %q", sess.FreelancerReference)
	}
}

func TestCompleteLoginWithoutUserID(t *testing.T) {
	oauthStub := &stubOAuth{token: &oauth2.Token{AccessToken: "tok-1"}}
	api := &stubAPI{
		execute: func(_ string, _ map[string]any) (map[string]any, error) {
			return map[string]any{"data": map[string]any{"user": map[string]any{}}}, nil
		},
	}
	svc := NewAuthService(oauthStub, stubFactory{api}, &stubLister{}, &stubSessions{})

	if _, err := svc.CompleteLogin(helpers.TestCtx(), "code-1"); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}

func TestListCompanies(t *testing.T) {
	api := &stubAPI{
		execute: func(_ string, _ map[string]any) (map[string]any, error) {
			return map[string]any{
				"data": map[string]any{
					"companySelector": map[string]any{
						"items": []any{
							map[string]any{"title": "Solo", "organizationId": "org-1"},
							map[string]any{"title": "Agency", "organizationId": "org-2"},
							map[string]any{"title": "Broken"},
						},
					},
				},
			}, nil
		},
	}
	svc := NewTenantService(stubFactory{api})

	companies, err := svc.ListCompanies(helpers.TestCtx(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(companies) != 2 {
		t.Fatalf("companies = %+v", companies)
	}
	if companies[0].ID != "org-1" || companies[1].Name != "Agency" {
		t.Fatalf("companies = %+v", companies)
	}
}
