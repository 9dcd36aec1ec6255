package upworkclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExecuteSendsAuthAndTenantHeaders(t *testing.T) {
	var gotAuth, gotTenant, gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get("X-Upwork-API-TenantId")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer server.Close()

	client := NewAdapter(server.URL).WithToken("tok-123", "tenant-9")
	payload, err := client.Execute(context.Background(), "query { me }", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotTenant != "tenant-9" {
		t.Fatalf("tenant header = %q", gotTenant)
	}
	if gotPath != "/graphql" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["query"] != "query { me }" {
		t.Fatalf("query = %v", gotBody["query"])
	}
	if payload["data"] == nil {
		t.Fatalf("payload missing data: %v", payload)
	}
}

func TestDoMapsStatusCodes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, "marketplace rejected token (HTTP 401)"},
		{"forbidden", http.StatusForbidden, `{}`, "marketplace rejected token (HTTP 403)"},
		{"html body", http.StatusOK, `<html>maintenance</html>`, "non-JSON response: HTTP 200: <html>maintenance</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewAdapter(server.URL).WithToken("tok", "").GetProfile(context.Background(), "~abc")
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Error() != tt.wantErr {
				t.Fatalf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGetByFreelancerBuildsGDSPath(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("format")
		w.Write([]byte(`{"table":{"rows":[]}}`))
	}))
	defer server.Close()

	client := NewAdapter(server.URL).WithToken("tok", "")
	_, err := client.GetByFreelancer(context.Background(), "~01abc", map[string]string{"format": "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/gds/finreports/v2/providers/~01abc/billings" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "json" {
		t.Fatalf("format param = %q", gotQuery)
	}
}

func TestFinReportsUsesExplicitBase(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer server.Close()

	client := NewAdapter(server.URL).WithToken("tok", "")
	_, err := client.FinReports(context.Background(), server.URL+"/api", "12345", "billings", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/finreports/v2/providers/12345/billings.json" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestLooksLikeError(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    bool
	}{
		{"nil payload", nil, false},
		{"plain data", map[string]any{"data": map[string]any{}}, false},
		{"error key", map[string]any{"error": "boom"}, true},
		{"errors list", map[string]any{"errors": []any{map[string]any{}}}, true},
		{"empty errors list", map[string]any{"errors": []any{}}, false},
		{"failed status", map[string]any{"status": "failed"}, true},
		{"ok status", map[string]any{"status": "ok"}, false},
		{"code and message", map[string]any{"code": float64(403), "message": "denied"}, true},
		{"code without message", map[string]any{"code": float64(403)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeError(tt.payload); got != tt.want {
				t.Fatalf("LooksLikeError(%v) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}
