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
	"testing"
)

func TestParseCalendar(t *testing.T) {
	tests := []struct {
		in   string
		want Calendar
		ok   bool
	}{
		{"standard", CalendarStandard, true},
		{"gregorian", CalendarStandard, true},
		{"proleptic_gregorian", CalendarStandard, true},
		{"", CalendarStandard, true},
		{"noleap", CalendarNoLeap, true},
		{"365_day", CalendarNoLeap, true},
		{"all_leap", CalendarAllLeap, true},
		{"366_day", CalendarAllLeap, true},
		{"360_day", Calendar360Day, true},
		{"julian", 0, false},
		{"lunar", 0, false},
	}
	for _, test := range tests {
		got, err := ParseCalendar(test.in)
		if test.ok != (err == nil) {
			t.Errorf("ParseCalendar(%q) error = %v", test.in, err)
			continue
		}
		if test.ok && got != test.want {
			t.Errorf("ParseCalendar(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		cal  Calendar
		in   Date
		want Date
		ok   bool
	}{
		// Day 31 clamps to 30 under the 360-day calendar.
		{Calendar360Day, Date{2015, 1, 31}, Date{2015, 1, 30}, true},
		{Calendar360Day, Date{2015, 12, 31}, Date{2015, 12, 30}, true},
		{Calendar360Day, Date{2015, 2, 30}, Date{2015, 2, 30}, true},
		// A real calendar rejects day 31 in a 30-day month.
		{CalendarStandard, Date{2015, 4, 31}, Date{}, false},
		{CalendarStandard, Date{2015, 1, 31}, Date{2015, 1, 31}, true},
		// Leap day handling.
		{CalendarStandard, Date{2016, 2, 29}, Date{2016, 2, 29}, true},
		{CalendarStandard, Date{2015, 2, 29}, Date{}, false},
		{CalendarNoLeap, Date{2016, 2, 29}, Date{}, false},
		{CalendarAllLeap, Date{2015, 2, 29}, Date{2015, 2, 29}, true},
		// Malformed components.
		{CalendarStandard, Date{2015, 13, 1}, Date{}, false},
		{CalendarStandard, Date{2015, 0, 1}, Date{}, false},
		{CalendarStandard, Date{2015, 6, 0}, Date{}, false},
		{Calendar360Day, Date{2015, 1, 32}, Date{}, false},
	}
	for _, test := range tests {
		got, err := test.cal.Normalize(test.in)
		if test.ok {
			if err != nil {
				t.Errorf("%v.Normalize(%v): %v", test.cal, test.in, err)
			} else if got != test.want {
				t.Errorf("%v.Normalize(%v) = %v, want %v", test.cal, test.in, got, test.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("%v.Normalize(%v) error = %v, want ErrInvalidDate", test.cal, test.in, err)
		}
	}
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		cal   Calendar
		epoch Date
		d     Date
		want  float64
	}{
		{CalendarStandard, Date{2001, 12, 31}, Date{2002, 1, 1}, 1},
		{CalendarStandard, Date{2001, 12, 31}, Date{2001, 12, 31}, 0},
		{CalendarStandard, Date{2015, 1, 1}, Date{2016, 1, 1}, 365},
		{CalendarStandard, Date{2016, 1, 1}, Date{2017, 1, 1}, 366}, // leap year
		{CalendarNoLeap, Date{2016, 1, 1}, Date{2017, 1, 1}, 365},
		{CalendarNoLeap, Date{2000, 2, 28}, Date{2001, 3, 1}, 366},
		{CalendarAllLeap, Date{2015, 1, 1}, Date{2016, 1, 1}, 366},
		{Calendar360Day, Date{2000, 1, 1}, Date{2001, 2, 3}, 392},
		{Calendar360Day, Date{2000, 1, 1}, Date{2000, 12, 30}, 359},
		{CalendarStandard, Date{2002, 1, 1}, Date{2001, 1, 1}, -365},
	}
	for _, test := range tests {
		if got := test.cal.DaysSince(test.epoch, test.d); got != test.want {
			t.Errorf("%v.DaysSince(%v, %v) = %g, want %g",
				test.cal, test.epoch, test.d, got, test.want)
		}
	}
}

func TestDateAfter(t *testing.T) {
	tests := []struct {
		cal   Calendar
		epoch Date
		days  float64
		want  Date
	}{
		{CalendarStandard, Date{2001, 12, 31}, 0, Date{2001, 12, 31}},
		{CalendarStandard, Date{2001, 12, 31}, 1, Date{2002, 1, 1}},
		{CalendarStandard, Date{2001, 12, 31}, 90, Date{2002, 3, 31}},
		{CalendarStandard, Date{2016, 1, 1}, 366, Date{2017, 1, 1}},
		{CalendarStandard, Date{2002, 1, 1}, -365, Date{2001, 1, 1}},
		{CalendarStandard, Date{2001, 12, 31}, 0.9, Date{2001, 12, 31}}, // truncates
		{CalendarNoLeap, Date{2016, 1, 1}, 365, Date{2017, 1, 1}},
		{CalendarNoLeap, Date{2000, 2, 28}, 366, Date{2001, 3, 1}},
		{CalendarAllLeap, Date{2015, 1, 1}, 366, Date{2016, 1, 1}},
		{Calendar360Day, Date{2000, 1, 1}, 392, Date{2001, 2, 3}},
		{Calendar360Day, Date{2000, 1, 1}, 359, Date{2000, 12, 30}},
		{Calendar360Day, Date{2006, 1, 1}, -1, Date{2005, 12, 30}},
	}
	for _, test := range tests {
		if got := test.cal.DateAfter(test.epoch, test.days); got != test.want {
			t.Errorf("%v.DateAfter(%v, %g) = %v, want %v",
				test.cal, test.epoch, test.days, got, test.want)
		}
	}
}

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		in     string
		epoch  Date
		toDays float64
		ok     bool
	}{
		{"days since 2015-01-01", Date{2015, 1, 1}, 1, true},
		{"days since 2001-12-31 00:00:00", Date{2001, 12, 31}, 1, true},
		{"days since 2002-01-01T00:00:00", Date{2002, 1, 1}, 1, true},
		{"seconds since 2000-01-01", Date{2000, 1, 1}, 1. / 86400, true},
		{"hours since 1900-01-01", Date{1900, 1, 1}, 1. / 24, true},
		{"fortnights since 2000-01-01", Date{}, 0, false},
		{"2000-01-01", Date{}, 0, false},
	}
	for _, test := range tests {
		epoch, toDays, err := ParseTimeUnits(test.in)
		if test.ok != (err == nil) {
			t.Errorf("ParseTimeUnits(%q) error = %v", test.in, err)
			continue
		}
		if test.ok && (epoch != test.epoch || toDays != test.toDays) {
			t.Errorf("ParseTimeUnits(%q) = %v, %g; want %v, %g",
				test.in, epoch, toDays, test.epoch, test.toDays)
		}
	}
}

func TestWindow(t *testing.T) {
	w := Window{Start: Date{2006, 1, 31}, End: Date{2015, 1, 31}}
	start, end, err := w.DaysSince(Calendar360Day, Date{2006, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	// Both ends clamp to day 30 before conversion.
	if start != 29 || end != 29+9*360 {
		t.Errorf("got (%g, %g), want (29, %d)", start, end, 29+9*360)
	}

	if err := (Window{Start: Date{2015, 1, 1}, End: Date{2015, 1, 1}}).Valid(); err == nil {
		t.Error("expected an error for an empty window")
	}
	if err := (Window{Start: Date{2015, 2, 1}, End: Date{2015, 1, 1}}).Valid(); err == nil {
		t.Error("expected an error for a reversed window")
	}
}
