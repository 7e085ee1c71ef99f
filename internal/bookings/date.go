package bookings

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateOnly = "2006-01-02"

// Date is a request timestamp that also accepts a bare calendar date,
// which is read as midnight UTC.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("apptDate must be a date string: %w", err)
	}
	for _, layout := range []string{time.RFC3339Nano, dateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("apptDate %q is not RFC3339 or YYYY-MM-DD", raw)
}

// DateOf wraps t for use in CreateInput and UpdateInput.
func DateOf(t time.Time) *Date {
	return &Date{Time: t}
}
