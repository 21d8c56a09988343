package google

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// isHeader reports whether row looks like the header row.
func isHeader(row []string) bool {
	return strings.EqualFold(safeGet(row, 0), "id")
}

// parseRow converts one exported row back into a transaction. Amounts may
// come back formatted by the sheet locale, so comma decimals are accepted.
func parseRow(row []string) (core.Transaction, error) {
	if len(row) < 6 {
		return core.Transaction{}, fmt.Errorf("short row: %d columns", len(row))
	}
	kind, err := core.ParseKind(row[2])
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(row[1])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(row[5])
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:          row[0],
		Kind:        kind,
		Amount:      amount,
		Category:    row[3],
		Description: row[4],
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// parseRows converts a values matrix, skipping the header and rows that do
// not parse. Skipped row numbers (1-based) are returned for logging.
func parseRows(values [][]interface{}) ([]core.Transaction, []int) {
	var out []core.Transaction
	var skipped []int
	for i, raw := range values {
		row := toStrings(raw)
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) == 0 || safeGet(row, 0) == "" {
			continue
		}
		tx, err := parseRow(row)
		if err != nil {
			skipped = append(skipped, i+1)
			continue
		}
		out = append(out, tx)
	}
	return out, skipped
}

// findRow returns the 0-based row index whose first column equals id, or -1.
func findRow(values [][]interface{}, id string) int {
	for i, raw := range values {
		if len(raw) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(raw[0])) == id {
			return i
		}
	}
	return -1
}
