/*
Copyright © 2026 the GraviMass authors.
This file is part of GraviMass.

GraviMass is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GraviMass is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GraviMass.  If not, see <http://www.gnu.org/licenses/>.
*/

package gravimass

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned for dates that do not exist in the calendar
// they are interpreted under.
var ErrInvalidDate = errors.New("gravimass: invalid date")

// Calendar is a CF-conventions model calendar.
type Calendar int

// The supported CF calendar types.
const (
	CalendarStandard Calendar = iota
	CalendarNoLeap
	CalendarAllLeap
	Calendar360Day
)

// ParseCalendar interprets a CF "calendar" attribute value.
func ParseCalendar(s string) (Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "gregorian", "proleptic_gregorian":
		return CalendarStandard, nil
	case "noleap", "365_day":
		return CalendarNoLeap, nil
	case "all_leap", "366_day":
		return CalendarAllLeap, nil
	case "360_day":
		return Calendar360Day, nil
	}
	return 0, fmt.Errorf("gravimass: unsupported calendar %q", s)
}

func (c Calendar) String() string {
	switch c {
	case CalendarStandard:
		return "standard"
	case CalendarNoLeap:
		return "noleap"
	case CalendarAllLeap:
		return "all_leap"
	case Calendar360Day:
		return "360_day"
	}
	return fmt.Sprintf("Calendar(%d)", int(c))
}

// Date is a calendar date. Its interpretation (month lengths, leap years)
// depends on the Calendar it is used with.
type Date struct {
	Year, Month, Day int
}

// ParseDate parses an ISO-format (YYYY-MM-DD) date string.
func ParseDate(s string) (Date, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 3)
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q is not in YYYY-MM-DD form", ErrInvalidDate, s)
	}
	var d Date
	var err error
	if d.Year, err = strconv.Atoi(parts[0]); err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	if d.Month, err = strconv.Atoi(parts[1]); err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	if d.Day, err = strconv.Atoi(parts[2]); err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return d, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Cumulative days at the start of each month.
var (
	month365 = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	month366 = [12]int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}
)

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month (1-12) of the
// given year under calendar c.
func (c Calendar) DaysInMonth(year, month int) int {
	if c == Calendar360Day {
		return 30
	}
	if month == 12 {
		return 31
	}
	days := month365[month] - month365[month-1]
	if month == 2 {
		switch {
		case c == CalendarAllLeap:
			days = 29
		case c == CalendarStandard && isLeap(year):
			days = 29
		}
	}
	return days
}

// Normalize validates a date against calendar c, returning the
// calendar-correct date. Day 31 under the 360-day calendar is clamped to
// day 30 rather than rejected; every other out-of-range component fails
// with ErrInvalidDate.
func (c Calendar) Normalize(d Date) (Date, error) {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return Date{}, fmt.Errorf("%w: %v under the %v calendar", ErrInvalidDate, d, c)
	}
	max := c.DaysInMonth(d.Year, d.Month)
	if d.Day > max {
		if c == Calendar360Day {
			d.Day = 30
			return d, nil
		}
		return Date{}, fmt.Errorf("%w: %v under the %v calendar", ErrInvalidDate, d, c)
	}
	return d, nil
}

// yearDay returns the one-based day of the year.
func (c Calendar) yearDay(d Date) int {
	switch c {
	case Calendar360Day:
		return (d.Month-1)*30 + d.Day
	case CalendarAllLeap:
		return month366[d.Month-1] + d.Day
	case CalendarStandard:
		if isLeap(d.Year) {
			return month366[d.Month-1] + d.Day
		}
	}
	return month365[d.Month-1] + d.Day
}

// DaysSince returns the number of days from epoch to d under calendar c.
// Both dates must be valid in c.
func (c Calendar) DaysSince(epoch, d Date) float64 {
	switch c {
	case CalendarStandard:
		t0 := time.Date(epoch.Year, time.Month(epoch.Month), epoch.Day, 0, 0, 0, 0, time.UTC)
		t1 := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
		return t1.Sub(t0).Hours() / 24
	case Calendar360Day:
		return float64((d.Year-epoch.Year)*360 + (c.yearDay(d) - c.yearDay(epoch)))
	case CalendarAllLeap:
		return float64((d.Year-epoch.Year)*366 + (c.yearDay(d) - c.yearDay(epoch)))
	}
	return float64((d.Year-epoch.Year)*365 + (c.yearDay(d) - c.yearDay(epoch)))
}

// DateAfter returns the date the given number of days after epoch under
// calendar c, truncating fractional days. It inverts DaysSince and is used
// to report time-axis extents as dates.
func (c Calendar) DateAfter(epoch Date, days float64) Date {
	n := int(math.Floor(days))
	if c == CalendarStandard {
		t := time.Date(epoch.Year, time.Month(epoch.Month), epoch.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
		return Date{t.Year(), int(t.Month()), t.Day()}
	}
	yearLen := 365
	switch c {
	case Calendar360Day:
		yearLen = 360
	case CalendarAllLeap:
		yearLen = 366
	}
	serial := epoch.Year*yearLen + c.yearDay(epoch) - 1 + n
	year := serial / yearLen
	rem := serial % yearLen
	if rem < 0 {
		year--
		rem += yearLen
	}
	if c == Calendar360Day {
		return Date{year, rem/30 + 1, rem%30 + 1}
	}
	months := &month365
	if c == CalendarAllLeap {
		months = &month366
	}
	month := 12
	for m := 1; m < 12; m++ {
		if rem < months[m] {
			month = m
			break
		}
	}
	return Date{year, month, rem - months[month-1] + 1}
}

// ParseTimeUnits interprets a CF time "units" attribute such as
// "days since 2015-01-01" or "seconds since 2000-01-01 00:00:00",
// returning the epoch date and the factor converting axis values to days.
func ParseTimeUnits(units string) (epoch Date, toDays float64, err error) {
	fields := strings.Fields(units)
	if len(fields) < 3 || strings.ToLower(fields[1]) != "since" {
		return Date{}, 0, fmt.Errorf("gravimass: cannot interpret time units %q", units)
	}
	switch strings.ToLower(fields[0]) {
	case "days", "day", "d":
		toDays = 1
	case "hours", "hour", "hr", "h":
		toDays = 1. / 24
	case "minutes", "minute", "min":
		toDays = 1. / 1440
	case "seconds", "second", "sec", "s":
		toDays = 1. / 86400
	default:
		return Date{}, 0, fmt.Errorf("gravimass: cannot interpret time units %q", units)
	}
	// The date may carry an ISO 8601 time suffix ("2002-01-01T00:00:00").
	date := strings.SplitN(fields[2], "T", 2)[0]
	epoch, err = ParseDate(date)
	if err != nil {
		return Date{}, 0, fmt.Errorf("gravimass: cannot interpret time units %q: %v", units, err)
	}
	return epoch, toDays, nil
}

// A Window is a comparison date range. It is calendar-agnostic until
// converted to a particular time axis.
type Window struct {
	Start, End Date
}

// Valid returns an error unless the window end falls after its start.
func (w Window) Valid() error {
	if !w.Start.Before(w.End) {
		return fmt.Errorf("gravimass: window end %v must fall after start %v", w.End, w.Start)
	}
	return nil
}

// DaysSince normalizes the window bounds to calendar c and converts them to
// day offsets from epoch on that calendar's axis.
func (w Window) DaysSince(c Calendar, epoch Date) (start, end float64, err error) {
	if err := w.Valid(); err != nil {
		return 0, 0, err
	}
	s, err := c.Normalize(w.Start)
	if err != nil {
		return 0, 0, err
	}
	e, err := c.Normalize(w.End)
	if err != nil {
		return 0, 0, err
	}
	return c.DaysSince(epoch, s), c.DaysSince(epoch, e), nil
}
