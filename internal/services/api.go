// Package services holds the business logic: fetching raw activity
// from the marketplace API, normalizing it into canonical
// transactions, and rolling it up into the report views.
package services

import "context"

// API is the per-token view of the marketplace API that services
// consume. Satisfied by upworkclient.Client.
type API interface {
	Execute(ctx context.Context, query string, variables map[string]any) (map[string]any, error)
	GetByFreelancer(ctx context.Context, reference string, params map[string]string) (map[string]any, error)
	FinReports(ctx context.Context, base, reference, endpoint string, params map[string]string) (map[string]any, error)
	GetProfile(ctx context.Context, profileKey string) (map[string]any, error)
}

// APIFactory binds an access token and tenant scope into an API.
type APIFactory interface {
	WithToken(accessToken, tenantID string) API
	FinReportBases() []string
}
