package services

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/upstats/earnings-backend/internal/auth"
	"github.com/upstats/earnings-backend/internal/client/upwork"
	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/models"
)

const userInfoQuery = `query {
  user {
    nid
    name
    freelancerProfile {
      profileUrl
    }
  }
}`

type oauthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

type companyLister interface {
	ListCompanies(ctx context.Context, accessToken string) ([]dto.Company, error)
}

type sessionCreator interface {
	Create(sess models.Session) *models.Session
}

type AuthService struct {
	oauth    oauthProvider
	api      APIFactory
	tenants  companyLister
	sessions sessionCreator
}

func NewAuthService(oauth oauthProvider, api APIFactory, tenants companyLister, sessions sessionCreator) *AuthService {
	return &AuthService{oauth: oauth, api: api, tenants: tenants, sessions: sessions}
}

// LoginURL builds the marketplace authorization redirect for one CSRF
// state value.
func (s *AuthService) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// CompleteLogin exchanges the authorization code, loads the user's
// profile and company scope, and creates a server-side session.
func (s *AuthService) CompleteLogin(ctx context.Context, code string) (*models.Session, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errs.NewAuthError("code exchange failed: " + err.Error())
	}

	client := s.api.WithToken(token.AccessToken, "")
	payload, err := client.Execute(ctx, userInfoQuery, nil)
	if err != nil {
		return nil, err
	}
	if upworkclient.LooksLikeError(payload) {
		return nil, errs.NewUpstreamError("user query failed after login")
	}

	user := asMap(dig(payload, "data", "user"))
	userID := asString(user["nid"])
	if userID == "" {
		return nil, errs.NewUpstreamError("user query returned no id")
	}
	profileURL := asString(dig(user, "freelancerProfile", "profileUrl"))

	reference := auth.ProfileKeyFromURL(profileURL)
	if reference == "" {
		reference = userID
	}

	sess := models.Session{
		UserID:              userID,
		FullName:            asString(user["name"]),
		ProfileURL:          profileURL,
		FreelancerReference: reference,
		Token:               token,
		CreatedAt:           time.Now(),
	}

	companies, err := s.tenants.ListCompanies(ctx, token.AccessToken)
	if err == nil && len(companies) > 0 {
		sess.TenantID = companies[0].ID
		for _, c := range companies {
			sess.TenantIDs = append(sess.TenantIDs, c.ID)
		}
	}

	return s.sessions.Create(sess), nil
}
