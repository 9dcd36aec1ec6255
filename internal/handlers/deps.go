package handlers

import (
	"log/slog"

	"github.com/upstats/earnings-backend/internal/response"
	"github.com/upstats/earnings-backend/internal/session"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	ReportSvc       ReportService
	AuthSvc         AuthService
	TenantSvc       TenantService
	Sessions        *session.Store
}
