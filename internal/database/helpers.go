package database

import "database/sql"

// rowsAffected returns the affected row count of an exec, or err if it is non-nil.
func rowsAffected(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// dedupe drops repeated values and keeps first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func chunk(values []string, size int) [][]string {
	var chunks [][]string
	for size < len(values) {
		values, chunks = values[size:], append(chunks, values[:size])
	}
	if len(values) > 0 {
		chunks = append(chunks, values)
	}
	return chunks
}
