package core

import (
	"fmt"
	"time"
)

// Period is a calendar month, or a whole calendar year when Month is 0.
// The zero Period means "never".
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12, 0 for a yearly period
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// YearOf returns the calendar year containing t.
func YearOf(t time.Time) Period {
	return Period{Year: t.Year()}
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Before orders periods numerically by (year, month).
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Start returns the first instant of the period in loc.
func (p Period) Start(loc *time.Location) time.Time {
	m := p.Month
	if m == 0 {
		m = 1
	}
	return time.Date(p.Year, time.Month(m), 1, 0, 0, 0, 0, loc)
}

// End returns the first instant after the period in loc.
func (p Period) End(loc *time.Location) time.Time {
	if p.Month == 0 {
		return p.Start(loc).AddDate(1, 0, 0)
	}
	return p.Start(loc).AddDate(0, 1, 0)
}

func (p Period) String() string {
	if p.Month == 0 {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
