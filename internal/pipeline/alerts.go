package pipeline

import "fmt"

// Z-score thresholds on the most recent day. Fixed policy, not
// configurable.
const (
	alertThreshold        = -2.0
	surveillanceThreshold = -1.0
)

// Evaluate inspects the last day of the daily table against its trailing
// baseline and returns a non-empty list of alerts. Exactly one alert is
// produced today; the list shape leaves room for more rules.
func Evaluate(daily []DailyMetrics) []Alert {
	var alerts []Alert

	if len(daily) >= minObservations {
		last := daily[len(daily)-1]
		if last.RevMA7 != nil && last.RevStd7 != nil && *last.RevStd7 > 0 {
			z := (last.Revenue - *last.RevMA7) / *last.RevStd7
			switch {
			case z < alertThreshold:
				alerts = append(alerts, Alert{
					Level:  LevelAlert,
					Title:  "Abnormal revenue drop today",
					Detail: fmt.Sprintf("Revenue: %.2f. Recent average: %.2f.", last.Revenue, *last.RevMA7),
					Action: "Check: ads, conversion, checkout/payments, product incidents.",
				})
			case z < surveillanceThreshold:
				alerts = append(alerts, Alert{
					Level:  LevelSurveillance,
					Title:  "Revenue below recent average",
					Detail: fmt.Sprintf("Revenue: %.2f vs average %.2f.", last.Revenue, *last.RevMA7),
					Action: "Review: traffic, conversion rate, offer, pricing.",
				})
			}
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, Alert{
			Level:  LevelOK,
			Title:  "Stability detected",
			Detail: "No significant anomaly on today's revenue versus the recent trend.",
			Action: "Next: add ads and analytics instrumentation for CAC/ROAS.",
		})
	}
	return alerts
}
