package pipeline

import (
	"fmt"
	"log/slog"
)

// maxDailyRows caps the daily table exposed to callers at the most
// recent two weeks, ascending order preserved.
const maxDailyRows = 14

// Process runs the full analysis on an uploaded file: parse, normalize,
// aggregate, evaluate. Parse and schema failures come back as a
// UserError whose message is safe to render; any unexpected panic is
// recovered at this boundary and turned into a generic UserError rather
// than crashing the request.
func Process(fileBytes []byte, fileName string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("analysis pipeline panic",
				slog.String("filename", fileName),
				slog.Any("panic", r))
			result = nil
			err = &UserError{Message: "an unexpected error occurred while analyzing the file, please try again", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	table, err := Parse(fileBytes)
	if err != nil {
		return nil, newUserError(err)
	}

	rows, err := Normalize(table)
	if err != nil {
		return nil, newUserError(err)
	}

	daily := Aggregate(rows)
	alerts := Evaluate(daily)

	result = &Result{
		Filename: fileName,
		Daily:    daily,
		Alerts:   alerts,
	}
	if len(daily) > 0 {
		today := daily[len(daily)-1]
		result.Today = &today
	}
	if len(daily) > maxDailyRows {
		result.Daily = daily[len(daily)-maxDailyRows:]
	}
	return result, nil
}
