package model

import "fmt"

// InvalidValueError reports a missing or non-numeric field in ranking or market input.
// Index is the series point index, or -1 when the error is not about a single point.
type InvalidValueError struct {
	Crop   string
	Field  string
	Index  int
	Reason string
}

func (e *InvalidValueError) Error() string {
	where := e.Field
	if e.Index >= 0 {
		where = fmt.Sprintf("%s[%d]", e.Field, e.Index)
	}
	if e.Crop != "" {
		return fmt.Sprintf("crop %q: %s %s", e.Crop, where, e.Reason)
	}
	return fmt.Sprintf("%s %s", where, e.Reason)
}
