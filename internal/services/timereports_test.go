package services

import (
	"testing"

	"github.com/upstats/earnings-backend/internal/cache"
	"github.com/upstats/earnings-backend/pkg/helpers"
)

func timeReportPayload(rows ...map[string]any) map[string]any {
	list := make([]any, 0, len(rows))
	for _, r := range rows {
		list = append(list, r)
	}
	return map[string]any{
		"data": map[string]any{
			"user": map[string]any{
				"freelancerProfile": map[string]any{
					"user": map[string]any{
						"timeReport": list,
					},
				},
			},
		},
	}
}

func timeRow(date string, charges, hours float64, memo, client string) map[string]any {
	return map[string]any{
		"dateWorkedOn":     date,
		"totalCharges":     charges,
		"totalHoursWorked": hours,
		"memo":             memo,
		"contract": map[string]any{
			"offer": map[string]any{
				"client": map[string]any{"name": client},
			},
		},
	}
}

func TestEntriesForYearConvertsRows(t *testing.T) {
	var sawRange map[string]any
	api := &stubAPI{
		execute: func(_ string, vars map[string]any) (map[string]any, error) {
			sawRange, _ = vars["dateRange"].(map[string]any)
			return timeReportPayload(
				timeRow("20240110", 120.5, 8, "Sprint 1", "Acme Corp"),
				timeRow("2024-02-15", 80.25, 5.5, "", "Hooli"),
			), nil
		},
	}
	svc := NewTimeReportService(stubFactory{api}, cache.New())

	entries, err := svc.EntriesForYear(helpers.TestCtx(), testArgs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sawRange["rangeStart"] != "20240101" || sawRange["rangeEnd"] != "20241231" {
		t.Fatalf("query range = %v", sawRange)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].DateWorkedOn != "2024-01-10" {
		t.Fatalf("compact date not normalized: %q", entries[0].DateWorkedOn)
	}
	if entries[0].TotalCharges != 120.5 || entries[0].TotalHours != 8 {
		t.Fatalf("entry = %+v", entries[0])
	}
	if entries[0].ClientName != "Acme Corp" || entries[1].ClientName != "Hooli" {
		t.Fatalf("clients = %q, %q", entries[0].ClientName, entries[1].ClientName)
	}
}

func TestEntriesForMonthPadsWindowAndRefilters(t *testing.T) {
	var sawRange map[string]any
	api := &stubAPI{
		execute: func(_ string, vars map[string]any) (map[string]any, error) {
			sawRange, _ = vars["dateRange"].(map[string]any)
			return timeReportPayload(
				timeRow("2024-02-28", 10, 1, "", "Acme"), // padded fetch, outside March
				timeRow("2024-03-05", 50, 4, "", "Acme"),
				timeRow("2024-04-03", 20, 2, "", "Acme"), // padded fetch, outside March
			), nil
		},
	}
	svc := NewTimeReportService(stubFactory{api}, cache.New())

	args := testArgs()
	args.Month = 3
	entries, err := svc.EntriesForMonth(helpers.TestCtx(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sawRange["rangeStart"] != "20240223" || sawRange["rangeEnd"] != "20240407" {
		t.Fatalf("padded query range = %v", sawRange)
	}
	if len(entries) != 1 || entries[0].DateWorkedOn != "2024-03-05" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestTimeEntriesCachedPerView(t *testing.T) {
	api := &stubAPI{
		execute: func(_ string, _ map[string]any) (map[string]any, error) {
			return timeReportPayload(timeRow("2024-01-10", 10, 1, "", "Acme")), nil
		},
	}
	svc := NewTimeReportService(stubFactory{api}, cache.New())

	for i := 0; i < 2; i++ {
		if _, err := svc.EntriesForYear(helpers.TestCtx(), testArgs()); err != nil {
			t.Fatalf("year call %d: %v", i, err)
		}
	}
	if api.executeCalls != 1 {
		t.Fatalf("upstream hit %d times for year view, want 1", api.executeCalls)
	}

	// The weekly view keys separately even over the same window.
	if _, err := svc.WeeklyEntries(helpers.TestCtx(), testArgs()); err != nil {
		t.Fatalf("weekly call: %v", err)
	}
	if api.executeCalls != 2 {
		t.Fatalf("upstream hit %d times total, want 2", api.executeCalls)
	}
}

func TestTimeEntriesKeyedByTenant(t *testing.T) {
	api := &stubAPI{
		execute: func(_ string, _ map[string]any) (map[string]any, error) {
			return timeReportPayload(timeRow("2024-01-10", 10, 1, "", "Acme")), nil
		},
	}
	svc := NewTimeReportService(stubFactory{api}, cache.New())

	if _, err := svc.EntriesForYear(helpers.TestCtx(), testArgs()); err != nil {
		t.Fatalf("first tenant: %v", err)
	}

	// Switching tenants within the TTL must refetch, not reuse the
	// previous tenant's rows.
	args := testArgs()
	args.TenantID = "ace2"
	if _, err := svc.EntriesForYear(helpers.TestCtx(), args); err != nil {
		t.Fatalf("second tenant: %v", err)
	}
	if api.executeCalls != 2 {
		t.Fatalf("upstream hit %d times across tenants, want 2", api.executeCalls)
	}
}
