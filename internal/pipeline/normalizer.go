package pipeline

import (
	"strconv"
	"strings"
	"time"
)

// fieldGroup maps a canonical field name to the ordered list of header
// aliases it accepts. First alias in priority order wins.
type fieldGroup struct {
	Name    string
	Aliases []string
}

// fieldGroups is the fixed alias table. Matching is done on trimmed,
// lowercased headers; the order of groups and of aliases is load-bearing.
var fieldGroups = []fieldGroup{
	{Name: "date", Aliases: []string{"date", "jour", "transaction_date"}},
	{Name: "amount", Aliases: []string{"amount", "montant", "price", "total"}},
	{Name: "customer_id", Aliases: []string{"customer_id", "client", "customer", "client_id"}},
}

// dateLayouts are tried in order when coercing date cells. Datetime
// layouts are accepted; the time component is discarded.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

// Normalize reconciles a raw table against the canonical schema and
// coerces cell values. It fails only with a SchemaError when a required
// field group has no matching header; every row-level problem is
// handled by dropping the row.
func Normalize(table *RawTable) ([]CanonicalRow, error) {
	columns, err := resolveColumns(table.Headers)
	if err != nil {
		return nil, err
	}

	rows := make([]CanonicalRow, 0, len(table.Rows))
	for _, raw := range table.Rows {
		date, ok := coerceDate(cellAt(raw, columns["date"]))
		if !ok {
			continue
		}
		amount, ok := coerceAmount(cellAt(raw, columns["amount"]))
		if !ok || amount == 0 {
			continue
		}
		customerID, ok := coerceCustomerID(cellAt(raw, columns["customer_id"]))
		if !ok {
			continue
		}
		rows = append(rows, CanonicalRow{
			Date:       date,
			Amount:     amount,
			CustomerID: customerID,
		})
	}
	return rows, nil
}

// resolveColumns binds each canonical field to the index of the first
// header matching one of its aliases. A header can bind at most one
// field.
func resolveColumns(headers []string) (map[string]int, error) {
	normalized := make([]string, len(headers))
	found := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
		found[i] = strings.TrimSpace(h)
	}

	columns := make(map[string]int, len(fieldGroups))
	bound := make(map[int]bool, len(fieldGroups))
	var missing []string

	for _, group := range fieldGroups {
		idx := -1
	aliasScan:
		for _, alias := range group.Aliases {
			for i, h := range normalized {
				if h == alias && !bound[i] {
					idx = i
					break aliasScan
				}
			}
		}
		if idx == -1 {
			missing = append(missing, group.Name)
			continue
		}
		columns[group.Name] = idx
		bound[idx] = true
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Found: found, Missing: missing}
	}
	return columns, nil
}

// cellAt returns the cell at idx or "" when the row is too short.
func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// coerceDate parses a cell with the permissive layout list and truncates
// to a calendar date in UTC.
func coerceDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// coerceAmount parses a numeric cell, tolerating a decimal comma.
// Thousands separators are not supported; "1.234,56" stays unparseable.
func coerceAmount(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", ".")
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// coerceCustomerID trims the cell and keeps it as text so IDs like
// "00042" keep their formatting.
func coerceCustomerID(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	return cell, cell != ""
}
