package extract

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return payload
}

func TestRowsFindsSamePayloadInDifferentShapes(t *testing.T) {
	row := `{"amount":"100.00","date":"2024-03-04","description":"Milestone 1","type":"fixed_price"}`
	shapes := map[string]string{
		"top-level rows": `{"rows":[` + row + `]}`,
		"under table":    `{"table":{"rows":[` + row + `]}}`,
		"nested deep":    `{"report":{"result":{"transactions":[` + row + `]}}}`,
	}

	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			rows := Rows(decode(t, raw))
			if len(rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(rows))
			}
			if rows[0]["amount"] != "100.00" || rows[0]["date"] != "2024-03-04" {
				t.Fatalf("unexpected row: %v", rows[0])
			}
		})
	}
}

func TestRowsDirectKeyWinsOverNested(t *testing.T) {
	payload := decode(t, `{
		"rows": [{"amount": "1.00", "date": "2024-01-01"}],
		"other": {"items": [{"amount": "2.00", "date": "2024-01-02"}]}
	}`)
	rows := Rows(payload)
	if len(rows) != 1 || rows[0]["amount"] != "1.00" {
		t.Fatalf("direct key did not win: %v", rows)
	}
}

func TestRowsEmptyDirectListIsEmptyNotMissing(t *testing.T) {
	rows := Rows(decode(t, `{"rows": []}`))
	if rows == nil || len(rows) != 0 {
		t.Fatalf("got %v, want empty slice", rows)
	}
}

func TestRowsPicksBestScoredCandidate(t *testing.T) {
	payload := decode(t, `{
		"meta": {"columns": [{"name": "amount"}, {"name": "date"}]},
		"result": {"entries": [
			{"amount": "10.00", "date": "2024-05-01", "description": "Bonus", "type": "bonus"}
		]}
	}`)
	rows := Rows(payload)
	if len(rows) != 1 || rows[0]["description"] != "Bonus" {
		t.Fatalf("scoring picked wrong list: %v", rows)
	}
}

func TestRowsNoRowLists(t *testing.T) {
	if rows := Rows(decode(t, `{"status":"ok","server_time":12345}`)); len(rows) != 0 {
		t.Fatalf("got %v, want none", rows)
	}
}
