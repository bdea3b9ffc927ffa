package google

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Column layout of a transactions sheet.
var header = []any{"ID", "Date", "Type", "Category", "Account", "Description", "Amount"}

const (
	colID = iota
	colDate
	colType
	colCategory
	colAccount
	colDescription
	colAmount
	numCols
)

func toRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.TransactionDate.String(),
		string(t.Type),
		t.CategoryName,
		t.AccountName,
		t.Description,
		t.Amount,
	}
}

// parseRow converts a values row back into a transaction. Header and
// malformed rows report ok=false.
func parseRow(row []any) (core.Transaction, bool) {
	cols := toStrings(row)
	if len(cols) < numCols {
		return core.Transaction{}, false
	}
	id, err := strconv.ParseInt(cols[colID], 10, 64)
	if err != nil {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(cols[colDate])
	if err != nil {
		return core.Transaction{}, false
	}
	typ, err := core.ParseCategoryType(cols[colType])
	if err != nil {
		return core.Transaction{}, false
	}
	amount, ok := parseAmount(cols[colAmount])
	if !ok {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:              id,
		TransactionDate: date,
		Type:            typ,
		CategoryName:    cols[colCategory],
		AccountName:     cols[colAccount],
		Description:     cols[colDescription],
		Amount:          amount,
	}, true
}

// parseAmount accepts plain integers, grouped "1,200" and the float
// renderings the API returns for numeric cells.
func parseAmount(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f)), true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
