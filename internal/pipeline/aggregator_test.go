package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_DailyMetrics(t *testing.T) {
	rows := []CanonicalRow{
		{Date: day(2024, 1, 1), Amount: 10.00, CustomerID: "A"},
		{Date: day(2024, 1, 1), Amount: 5.00, CustomerID: "B"},
		{Date: day(2024, 1, 2), Amount: 20.00, CustomerID: "A"},
	}

	daily := Aggregate(rows)
	require.Len(t, daily, 2)

	assert.Equal(t, day(2024, 1, 1), daily[0].Date)
	assert.InDelta(t, 15.00, daily[0].Revenue, 1e-9)
	assert.Equal(t, 2, daily[0].Orders)
	assert.Equal(t, 2, daily[0].Customers)
	assert.InDelta(t, 7.50, daily[0].AOV, 1e-9)

	assert.Equal(t, day(2024, 1, 2), daily[1].Date)
	assert.InDelta(t, 20.00, daily[1].Revenue, 1e-9)
	assert.Equal(t, 1, daily[1].Orders)
	assert.Equal(t, 1, daily[1].Customers)
	assert.InDelta(t, 20.00, daily[1].AOV, 1e-9)

	// Fewer than four days: moving stats stay null.
	for _, d := range daily {
		assert.Nil(t, d.RevMA7)
		assert.Nil(t, d.RevStd7)
	}
}

func TestAggregate_DistinctCustomers(t *testing.T) {
	rows := []CanonicalRow{
		{Date: day(2024, 1, 1), Amount: 10, CustomerID: "A"},
		{Date: day(2024, 1, 1), Amount: 12, CustomerID: "A"},
		{Date: day(2024, 1, 1), Amount: 8, CustomerID: "B"},
	}
	daily := Aggregate(rows)
	require.Len(t, daily, 1)
	assert.Equal(t, 3, daily[0].Orders)
	assert.Equal(t, 2, daily[0].Customers)
}

func TestAggregate_UnsortedInput(t *testing.T) {
	rows := []CanonicalRow{
		{Date: day(2024, 1, 3), Amount: 30, CustomerID: "A"},
		{Date: day(2024, 1, 1), Amount: 10, CustomerID: "A"},
		{Date: day(2024, 1, 2), Amount: 20, CustomerID: "A"},
	}
	daily := Aggregate(rows)
	require.Len(t, daily, 3)
	for i := 1; i < len(daily); i++ {
		assert.True(t, daily[i-1].Date.Before(daily[i].Date), "daily table must be ascending")
	}
}

func TestAggregate_RollingStats(t *testing.T) {
	// One order per day, revenues 10,20,30,40,50.
	var rows []CanonicalRow
	for i, rev := range []float64{10, 20, 30, 40, 50} {
		rows = append(rows, CanonicalRow{
			Date:       day(2024, 1, 1+i),
			Amount:     rev,
			CustomerID: "A",
		})
	}

	daily := Aggregate(rows)
	require.Len(t, daily, 5)

	// Days 1-3: below the minimum-history gate.
	for i := 0; i < 3; i++ {
		assert.Nil(t, daily[i].RevMA7, "day %d", i)
		assert.Nil(t, daily[i].RevStd7, "day %d", i)
	}

	// Day 4: window {10,20,30,40}, sample std.
	require.NotNil(t, daily[3].RevMA7)
	require.NotNil(t, daily[3].RevStd7)
	assert.InDelta(t, 25.0, *daily[3].RevMA7, 1e-9)
	assert.InDelta(t, 12.9099444874, *daily[3].RevStd7, 1e-6)

	// Day 5: window {10,20,30,40,50}.
	require.NotNil(t, daily[4].RevMA7)
	require.NotNil(t, daily[4].RevStd7)
	assert.InDelta(t, 30.0, *daily[4].RevMA7, 1e-9)
	assert.InDelta(t, 15.8113883008, *daily[4].RevStd7, 1e-6)
}

func TestAggregate_WindowCapsAtSevenDays(t *testing.T) {
	var rows []CanonicalRow
	for i := 0; i < 10; i++ {
		rows = append(rows, CanonicalRow{
			Date:       day(2024, 1, 1+i),
			Amount:     float64((i + 1) * 10),
			CustomerID: "A",
		})
	}

	daily := Aggregate(rows)
	require.Len(t, daily, 10)

	// Last day's window is days 4..10: revenues 40..100, mean 70.
	last := daily[9]
	require.NotNil(t, last.RevMA7)
	assert.InDelta(t, 70.0, *last.RevMA7, 1e-9)
}

func TestAggregate_GapsAreNotFilled(t *testing.T) {
	// Dates with calendar holes still count as consecutive window
	// observations.
	dates := []time.Time{
		day(2024, 1, 1), day(2024, 1, 5), day(2024, 1, 9), day(2024, 1, 20),
	}
	var rows []CanonicalRow
	for _, d := range dates {
		rows = append(rows, CanonicalRow{Date: d, Amount: 100, CustomerID: "A"})
	}

	daily := Aggregate(rows)
	require.Len(t, daily, 4)
	require.NotNil(t, daily[3].RevMA7, "four existing observations satisfy the gate")
	assert.InDelta(t, 100.0, *daily[3].RevMA7, 1e-9)
	assert.InDelta(t, 0.0, *daily[3].RevStd7, 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	daily := Aggregate(nil)
	assert.NotNil(t, daily)
	assert.Empty(t, daily)
}

func TestDailyMetrics_JSONDateFormat(t *testing.T) {
	m := DailyMetrics{Date: day(2024, 3, 7), Revenue: 12.5, Orders: 1, Customers: 1, AOV: 12.5}
	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2024-03-07"`)
	assert.Contains(t, string(data), `"rev_ma7":null`)
}

func TestAggregate_AOVRounding(t *testing.T) {
	rows := []CanonicalRow{
		{Date: day(2024, 1, 1), Amount: 10, CustomerID: "A"},
		{Date: day(2024, 1, 1), Amount: 10, CustomerID: "B"},
		{Date: day(2024, 1, 1), Amount: 5, CustomerID: "C"},
	}
	daily := Aggregate(rows)
	require.Len(t, daily, 1)
	assert.Equal(t, fmt.Sprintf("%.2f", 25.0/3), fmt.Sprintf("%.2f", daily[0].AOV))
	assert.InDelta(t, 8.33, daily[0].AOV, 1e-9)
}
