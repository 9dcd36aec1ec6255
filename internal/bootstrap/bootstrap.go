// Package bootstrap wires the process-level dependencies: logger,
// marketplace API adapter, OAuth flow, cache and session store.
package bootstrap

import (
	"log/slog"

	"github.com/upstats/earnings-backend/internal/auth"
	"github.com/upstats/earnings-backend/internal/cache"
	"github.com/upstats/earnings-backend/internal/client/upwork"
	"github.com/upstats/earnings-backend/internal/config"
	"github.com/upstats/earnings-backend/internal/services"
	"github.com/upstats/earnings-backend/internal/session"
	"github.com/upstats/earnings-backend/pkg/logger"
)

type Bootstrap struct {
	Log      *slog.Logger
	API      services.APIFactory
	OAuth    *auth.OAuth
	Cache    *cache.Cache
	Sessions *session.Store
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewJSONHandler)
	bs.API = apiFactory{upworkclient.NewAdapter(cfg.UpworkBaseURL)}
	bs.OAuth = auth.New(cfg.UpworkClientID, cfg.UpworkSecret, cfg.CallbackURL)
	bs.Cache = cache.New()
	bs.Sessions = session.NewStore()

	return bs, nil
}

// apiFactory narrows the adapter's concrete client type to the
// services.API interface.
type apiFactory struct {
	adapter *upworkclient.Adapter
}

func (f apiFactory) WithToken(accessToken, tenantID string) services.API {
	return f.adapter.WithToken(accessToken, tenantID)
}

func (f apiFactory) FinReportBases() []string {
	return f.adapter.FinReportBases()
}
