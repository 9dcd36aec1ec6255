package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/upstats/earnings-backend/internal/bootstrap"
	"github.com/upstats/earnings-backend/internal/config"
	"github.com/upstats/earnings-backend/internal/handlers"
	"github.com/upstats/earnings-backend/internal/middleware"
	"github.com/upstats/earnings-backend/internal/response"
	"github.com/upstats/earnings-backend/internal/router"
	"github.com/upstats/earnings-backend/internal/services"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, slog.Default())

	// services
	txserv := services.NewTransactionService(bs.API, bs.Cache)
	trserv := services.NewTimeReportService(bs.API, bs.Cache)
	rpserv := services.NewReportService(txserv, trserv)
	tnserv := services.NewTenantService(bs.API)
	auserv := services.NewAuthService(bs.OAuth, bs.API, tnserv, bs.Sessions)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.ReportSvc = rpserv
	deps.AuthSvc = auserv
	deps.TenantSvc = tnserv
	deps.Sessions = bs.Sessions

	// router
	sessionAuth := middleware.NewSessionAuth(bs.Sessions, bs.OAuth, rh)
	r := router.NewRouter(deps, sessionAuth)
	err = http.ListenAndServe(cfg.ListenAddr, r)
	exitOnError("server start failed", err, bs.Log)
}
