// Package auth holds the OAuth2 machinery for the marketplace login
// flow: building authorization URLs, exchanging codes, and refreshing
// expired tokens.
package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	authURL  = "https://www.upwork.com/ab/account-security/oauth2/authorize"
	tokenURL = "https://www.upwork.com/api/v3/oauth2/token"
)

// RefreshLeeway is how long before expiry a token is considered stale
// and refreshed proactively.
const RefreshLeeway = 120 * time.Second

type OAuth struct {
	cfg *oauth2.Config
}

func New(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
	}
}

// AuthCodeURL builds the login redirect for one CSRF state value.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token pair.
func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return o.cfg.Exchange(ctx, code)
}

// Refresh returns a valid token, hitting the token endpoint only when
// the current one is expired or inside the leeway window. The returned
// token is the same pointer when no refresh was needed.
func (o *OAuth) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	return o.cfg.TokenSource(ctx, withLeeway(tok)).Token()
}

func withLeeway(tok *oauth2.Token) *oauth2.Token {
	copied := *tok
	if !copied.Expiry.IsZero() {
		copied.Expiry = copied.Expiry.Add(-RefreshLeeway)
	}
	return &copied
}

// ProfileKeyFromURL extracts the trailing profile key from a public
// profile URL, e.g. ".../freelancers/~01abc" -> "~01abc". Returns ""
// when no segment is found.
func ProfileKeyFromURL(profileURL string) string {
	trimmed := strings.TrimRight(profileURL, "/")
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "/")
	last := segments[len(segments)-1]
	if strings.Contains(last, "?") {
		last = last[:strings.Index(last, "?")]
	}
	return last
}
