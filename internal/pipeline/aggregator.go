package pipeline

import (
	"math"
	"sort"
)

const (
	// rollingWindow is the maximum number of trailing days feeding the
	// moving statistics. Missing calendar days are not gap-filled; the
	// window slides over the days that exist.
	rollingWindow = 7
	// minObservations gates the moving statistics: fewer days than this
	// in the window leaves rev_ma7/rev_std7 null.
	minObservations = 4
)

// Aggregate groups canonical rows by date and computes the per-day KPI
// table, ascending by date. An empty input yields an empty table, never
// an error.
func Aggregate(rows []CanonicalRow) []DailyMetrics {
	type bucket struct {
		revenue   float64
		orders    int
		customers map[string]struct{}
	}

	buckets := make(map[int64]*bucket)
	for _, row := range rows {
		key := row.Date.Unix()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{customers: make(map[string]struct{})}
			buckets[key] = b
		}
		b.revenue += row.Amount
		b.orders++
		b.customers[row.CustomerID] = struct{}{}
	}

	daily := make([]DailyMetrics, 0, len(buckets))
	for _, row := range rows {
		key := row.Date.Unix()
		b, ok := buckets[key]
		if !ok {
			continue
		}
		delete(buckets, key)
		daily = append(daily, DailyMetrics{
			Date:      row.Date,
			Revenue:   b.revenue,
			Orders:    b.orders,
			Customers: len(b.customers),
			AOV:       round2(b.revenue / float64(b.orders)),
		})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})

	applyRollingStats(daily)
	return daily
}

// applyRollingStats fills rev_ma7/rev_std7 in place over the trailing
// window, using the sample (N-1) standard deviation.
func applyRollingStats(daily []DailyMetrics) {
	for i := range daily {
		start := 0
		if i >= rollingWindow {
			start = i - rollingWindow + 1
		}
		window := daily[start : i+1]
		if len(window) < minObservations {
			continue
		}

		var sum float64
		for _, d := range window {
			sum += d.Revenue
		}
		mean := sum / float64(len(window))

		var sq float64
		for _, d := range window {
			diff := d.Revenue - mean
			sq += diff * diff
		}
		std := math.Sqrt(sq / float64(len(window)-1))

		daily[i].RevMA7 = &mean
		daily[i].RevStd7 = &std
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
