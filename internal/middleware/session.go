// Package middleware holds the HTTP middleware: request logging and
// session authentication with transparent token refresh.
package middleware

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/response"
	"github.com/upstats/earnings-backend/internal/session"
	"github.com/upstats/earnings-backend/pkg/logger"
)

type contextKey string

const sessionKey contextKey = "session"

type tokenRefresher interface {
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

type sessionStore interface {
	Get(id string) *models.Session
	Update(sess *models.Session)
	Delete(id string)
}

type SessionAuth struct {
	sessions  sessionStore
	oauth     tokenRefresher
	responses response.ResponseHandler
}

func NewSessionAuth(sessions sessionStore, oauth tokenRefresher, responses response.ResponseHandler) *SessionAuth {
	return &SessionAuth{sessions: sessions, oauth: oauth, responses: responses}
}

// Require rejects requests without a live session and refreshes the
// access token when it is expired or close to it. A failed refresh
// clears the session so the client is sent back through login.
func (m *SessionAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			m.responses.HandleError(w, r, errs.NewAuthError("no session"))
			return
		}

		sess := m.sessions.Get(cookie.Value)
		if sess == nil || sess.Token == nil {
			clearCookie(w)
			m.responses.HandleError(w, r, errs.NewAuthError("session expired"))
			return
		}

		refreshed, err := m.oauth.Refresh(r.Context(), sess.Token)
		if err != nil {
			logger.FromContext(r.Context()).Warn("token refresh failed, clearing session",
				"user_id", sess.UserID, "error", err.Error())
			m.sessions.Delete(sess.ID)
			clearCookie(w)
			m.responses.HandleError(w, r, errs.NewAuthError("token refresh failed"))
			return
		}
		if refreshed.AccessToken != sess.Token.AccessToken {
			sess.Token = refreshed
			m.sessions.Update(sess)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the authenticated session, or nil outside
// the auth middleware.
func SessionFromContext(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(sessionKey).(*models.Session)
	return sess
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
