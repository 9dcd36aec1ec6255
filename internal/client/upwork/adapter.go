// Package upworkclient wraps the Upwork marketplace API: the GraphQL
// endpoint, the legacy GDS billings tables, and the REST finreports
// fallback. One Adapter is built at bootstrap; per-request bound
// clients carry the caller's token and tenant scope.
package upworkclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/upstats/earnings-backend/internal/errs"
)

const (
	defaultBaseURL = "https://api.upwork.com"
	userAgent      = "earnings-backend/1.0"
	tenantHeader   = "X-Upwork-API-TenantId"
)

type Adapter struct {
	httpClient *http.Client
	baseURL    string
}

func NewAdapter(baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		// Per-call ceiling; retry policy lives with the caller's
		// candidate iteration, not here.
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

// WithToken binds an access token (and optional tenant scope) for one
// request chain. The adapter itself stays token-free.
func (a *Adapter) WithToken(accessToken, tenantID string) *Client {
	return &Client{adapter: a, accessToken: accessToken, tenantID: tenantID}
}

// FinReportBases returns the endpoint bases tried for raw finreports
// calls, in order.
func (a *Adapter) FinReportBases() []string {
	return []string{a.baseURL + "/api", a.baseURL}
}

type Client struct {
	adapter     *Adapter
	accessToken string
	tenantID    string
}

// Execute posts a GraphQL query and decodes the response body. GraphQL
// errors ride inside the payload; callers inspect them via
// LooksLikeError / the "errors" key.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": orEmpty(variables),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.adapter.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// GetByFreelancer queries the legacy GDS billings table for one
// freelancer reference.
func (c *Client) GetByFreelancer(ctx context.Context, reference string, params map[string]string) (map[string]any, error) {
	u := fmt.Sprintf("%s/gds/finreports/v2/providers/%s/billings", c.adapter.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+encodeParams(params), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// FinReports hits the raw REST reporting endpoint under an explicit
// base (callers iterate FinReportBases).
func (c *Client) FinReports(ctx context.Context, base, reference, endpoint string, params map[string]string) (map[string]any, error) {
	u := fmt.Sprintf("%s/finreports/v2/providers/%s/%s.json", base, url.PathEscape(reference), url.PathEscape(endpoint))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+encodeParams(params), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// GetProfile fetches the public provider profile, used to resolve
// a "~..." profile key into a numeric provider id.
func (c *Client) GetProfile(ctx context.Context, profileKey string) (map[string]any, error) {
	u := fmt.Sprintf("%s/api/profiles/v1/providers/%s.json", c.adapter.baseURL, url.PathEscape(profileKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (map[string]any, error) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.tenantID != "" {
		req.Header.Set(tenantHeader, c.tenantID)
	}

	resp, err := c.adapter.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewTransientUpstreamError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errs.NewAuthError(fmt.Sprintf("marketplace rejected token (HTTP %d)", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errs.NewTransientUpstreamError(err.Error())
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errs.NewUpstreamError(fmt.Sprintf("non-JSON response: HTTP %d: %s", resp.StatusCode, snippet(raw)))
	}
	return payload, nil
}

// LooksLikeError reports whether a decoded payload is an error-shaped
// response rather than data: an error/errors key, a failed status, or
// a code+message pair.
func LooksLikeError(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	if truthy(payload["error"]) || truthy(payload["errors"]) {
		return true
	}
	if s, ok := payload["status"].(string); ok && (s == "error" || s == "failed") {
		return true
	}
	if truthy(payload["code"]) && truthy(payload["message"]) {
		return true
	}
	return false
}

// ---- Helpers ----

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func encodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return "?" + q.Encode()
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func snippet(raw []byte) string {
	const max = 300
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
