package claim

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day with no time-of-day component. JSON input accepts
// "YYYY-MM-DD" or "YYYYMMDD"; output is always "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "YYYY-MM-DD" or "YYYYMMDD".
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or YYYYMMDD", s)
}

func (d Date) String() string { return d.Format("2006-01-02") }

// Compact returns the eight-digit YYYYMMDD form used on engine requests.
func (d Date) Compact() string { return d.Format("20060102") }

// Int returns the date as a YYYYMMDD integer for reference-table comparisons.
func (d Date) Int() int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date { return Date{d.AddDate(0, 0, n)} }

// DaysBetween returns b minus a in whole days.
func DaysBetween(a, b Date) int {
	return int(b.Sub(a.Time).Hours() / 24)
}
