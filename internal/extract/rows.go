// Package extract turns heterogeneous upstream payloads into canonical
// transaction fields. The three upstream shapes (legacy GDS tables,
// GraphQL transaction history, REST finreports) share no common key
// paths, so row location is sniffed rather than addressed.
package extract

// direct keys checked at top level and one level under "table".
var directRowKeys = []string{"rows", "items", "data", "transactions", "entries"}

// expected keys used to score fallback candidates.
var expectedRowKeys = []string{
	"amount", "amount_paid", "total", "date", "description", "memo", "type", "subtype",
}

// Rows locates the list of candidate transaction rows inside an
// arbitrary decoded JSON payload. It never fails; an unrecognizable
// payload yields an empty slice.
func Rows(payload any) []map[string]any {
	if m, ok := payload.(map[string]any); ok {
		if rows := directRows(m); rows != nil {
			return rows
		}
		if table, ok := m["table"].(map[string]any); ok {
			if rows := directRows(table); rows != nil {
				return rows
			}
		}
	}

	var candidates [][]map[string]any
	collectRowLists(payload, &candidates)
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	bestScore := scoreRows(best)
	for _, c := range candidates[1:] {
		if s := scoreRows(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

func directRows(m map[string]any) []map[string]any {
	for _, key := range directRowKeys {
		if list, ok := m[key].([]any); ok && len(list) == 0 {
			// present but empty is still an answer
			return []map[string]any{}
		}
		if rows := asRowList(m[key]); rows != nil {
			return rows
		}
	}
	return nil
}

// asRowList accepts a list only when every element is a mapping.
func asRowList(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil
		}
		rows = append(rows, m)
	}
	return rows
}

func collectRowLists(obj any, out *[][]map[string]any) {
	switch v := obj.(type) {
	case []any:
		if rows := asRowList(v); rows != nil {
			*out = append(*out, rows)
		}
		for _, item := range v {
			collectRowLists(item, out)
		}
	case map[string]any:
		for _, item := range v {
			collectRowLists(item, out)
		}
	}
}

// scoreRows counts how many expected keys appear among the first 10
// rows of a candidate list.
func scoreRows(rows []map[string]any) int {
	seen := make(map[string]bool)
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for _, r := range rows[:limit] {
		for k := range r {
			seen[k] = true
		}
	}
	score := 0
	for _, k := range expectedRowKeys {
		if seen[k] {
			score++
		}
	}
	return score
}
