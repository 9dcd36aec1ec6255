package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/middleware"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/response"
	"github.com/upstats/earnings-backend/internal/session"
)

const stateCookieName = "oauth_state"

type AuthService interface {
	LoginURL(state string) string
	CompleteLogin(ctx context.Context, code string) (*models.Session, error)
}

type TenantService interface {
	ListCompanies(ctx context.Context, accessToken string) ([]dto.Company, error)
}

type authHandlers struct {
	ResponseHandler response.ResponseHandler
	AuthSvc         AuthService
	TenantSvc       TenantService
	Sessions        *session.Store
}

func NewAuthHandlers(deps *Deps) *authHandlers {
	return &authHandlers{
		ResponseHandler: deps.ResponseHandler,
		AuthSvc:         deps.AuthSvc,
		TenantSvc:       deps.TenantSvc,
		Sessions:        deps.Sessions,
	}
}

// PublicRoutes are mounted outside the session middleware.
func (h *authHandlers) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/login", h.Login)
	r.Get("/callback", h.Callback)
	return r
}

// SessionRoutes require an authenticated session.
func (h *authHandlers) SessionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	r.Get("/tenants", h.Tenants)
	r.Post("/tenant", h.SelectTenant)
	r.Post("/logout", h.Logout)
	return r
}

func (h *authHandlers) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.AuthSvc.LoginURL(state), http.StatusFound)
}

func (h *authHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		h.ResponseHandler.HandleError(w, r, errs.NewAuthError("state mismatch"))
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("code is required"))
		return
	}

	sess, err := h.AuthSvc.CompleteLogin(r.Context(), code)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, sessionInfo(sess))
}

func (h *authHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		h.ResponseHandler.HandleError(w, r, errs.NewAuthError("no session"))
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, sessionInfo(sess))
}

func (h *authHandlers) Tenants(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil || sess.Token == nil {
		h.ResponseHandler.HandleError(w, r, errs.NewAuthError("no session"))
		return
	}
	companies, err := h.TenantSvc.ListCompanies(r.Context(), sess.Token.AccessToken)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.TenantSelection{
		Companies:  companies,
		SelectedID: sess.TenantID,
	})
}

func (h *authHandlers) SelectTenant(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		h.ResponseHandler.HandleError(w, r, errs.NewAuthError("no session"))
		return
	}

	var body struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if body.TenantID == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("tenant_id is required"))
		return
	}
	if len(sess.TenantIDs) > 0 && !contains(sess.TenantIDs, body.TenantID) {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("tenant_id not in session scope"))
		return
	}

	sess.TenantID = body.TenantID
	h.Sessions.Update(sess)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, sessionInfo(sess))
}

func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		h.Sessions.Delete(sess.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func sessionInfo(sess *models.Session) dto.SessionInfo {
	return dto.SessionInfo{
		UserID:     sess.UserID,
		FullName:   sess.FullName,
		ProfileURL: sess.ProfileURL,
		TenantID:   sess.TenantID,
		TenantIDs:  sess.TenantIDs,
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
