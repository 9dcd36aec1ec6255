package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/upstats/earnings-backend/internal/handlers"
	"github.com/upstats/earnings-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps, sessionAuth *middleware.SessionAuth) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)

	ah := handlers.NewAuthHandlers(deps)
	rh := handlers.NewReportHandlers(deps)

	r.Mount("/auth", ah.PublicRoutes())

	r.Group(func(r chi.Router) {
		r.Use(sessionAuth.Require)
		r.Mount("/session", ah.SessionRoutes())
		r.Mount("/reports", rh.ReportRoutes())
	})

	return r
}
