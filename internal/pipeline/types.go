package pipeline

import (
	"encoding/json"
	"time"
)

// dateLayout is the wire format for calendar dates in responses.
const dateLayout = "2006-01-02"

// RawTable is the output of the parser: an ordered header list plus the
// raw cell text of every data row. Headers keep their original casing
// and padding; normalization happens later.
type RawTable struct {
	Headers   []string
	Rows      [][]string
	Delimiter rune
}

// CanonicalRow is a transaction row after normalization. All three
// fields are guaranteed present and Amount is never zero.
type CanonicalRow struct {
	Date       time.Time
	Amount     float64
	CustomerID string
}

// DailyMetrics holds the per-day KPI record. RevMA7 and RevStd7 are nil
// until at least four days of history exist in the trailing window.
type DailyMetrics struct {
	Date      time.Time `json:"-"`
	Revenue   float64   `json:"revenue"`
	Orders    int       `json:"orders"`
	Customers int       `json:"customers"`
	AOV       float64   `json:"aov"`
	RevMA7    *float64  `json:"rev_ma7"`
	RevStd7   *float64  `json:"rev_std7"`
}

// MarshalJSON renders the date as an ISO-8601 calendar date string.
func (m DailyMetrics) MarshalJSON() ([]byte, error) {
	type alias DailyMetrics
	return json.Marshal(struct {
		Date string `json:"date"`
		alias
	}{
		Date:  m.Date.Format(dateLayout),
		alias: alias(m),
	})
}

// AlertLevel is one of the three fixed anomaly levels. The values are
// part of the API contract and never localized.
type AlertLevel string

const (
	LevelOK           AlertLevel = "OK"
	LevelSurveillance AlertLevel = "SURVEILLANCE"
	LevelAlert        AlertLevel = "ALERTE"
)

// Alert is a single leveled finding about the most recent day.
type Alert struct {
	Level  AlertLevel `json:"level"`
	Title  string     `json:"title"`
	Detail string     `json:"detail"`
	Action string     `json:"action"`
}

// Result is what an upload analysis produces. Daily holds at most the
// 14 most recent days in ascending date order; Today is nil when no row
// survived cleaning.
type Result struct {
	Filename string         `json:"filename"`
	Daily    []DailyMetrics `json:"daily"`
	Today    *DailyMetrics  `json:"today"`
	Alerts   []Alert        `json:"alerts"`
}
