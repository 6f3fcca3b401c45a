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
	"math"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestObservedMassChange(t *testing.T) {
	c := testCatalog()
	// Days 15 through 75 on the catalog axis: the first and last
	// epoch midpoints.
	window := Window{Date{2002, 1, 15}, Date{2002, 3, 16}}
	m, err := ObservedMassChange(c, Greenland, window)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m.Indices, []int{0, 1}); len(diff) > 0 {
		t.Fatal(diff)
	}
	wantCmwe := []float64{-3, -2}
	for j, want := range wantCmwe {
		if different(m.Cmwe[j], want, 1.e-10) {
			t.Errorf("mascon %d: cmwe = %g, want %g", m.Indices[j], m.Cmwe[j], want)
		}
	}
	wantGt := []float64{-3 * 3000 * 1.e-5, -2 * 4500 * 1.e-5}
	for j, want := range wantGt {
		if different(m.Gt[j], want, 1.e-10) {
			t.Errorf("mascon %d: Gt = %g, want %g", m.Indices[j], m.Gt[j], want)
		}
	}
	if different(m.TotalGt(), -0.18, 1.e-10) {
		t.Errorf("TotalGt = %g, want -0.18", m.TotalGt())
	}
}

func TestObservedMassChangeInterpolates(t *testing.T) {
	c := testCatalog()
	// Day 30 falls halfway between the first two epoch midpoints.
	window := Window{Date{2002, 1, 15}, Date{2002, 1, 30}}
	m, err := ObservedMassChange(c, Greenland, window)
	if err != nil {
		t.Fatal(err)
	}
	// Mascon 0: 10 at the start, (10+8.5)/2 at the end.
	if different(m.Cmwe[0], 9.25-10, 1.e-10) {
		t.Errorf("cmwe = %g, want -0.75", m.Cmwe[0])
	}
}

func TestObservedMassChangeOutOfRange(t *testing.T) {
	c := testCatalog()
	tests := []struct {
		name   string
		window Window
	}{
		{"end past record", Window{Date{2002, 1, 15}, Date{2002, 4, 15}}},
		{"start before record", Window{Date{2001, 11, 1}, Date{2002, 3, 1}}},
	}
	for _, test := range tests {
		_, err := ObservedMassChange(c, Greenland, test.window)
		if !errors.Is(err, ErrOutOfRangeWindow) {
			t.Fatalf("%s: got %v, want ErrOutOfRangeWindow", test.name, err)
		}
		// The record extent should be reported in dates: the catalog
		// spans day 0 through day 90 after 2001-12-31.
		for _, date := range []string{"2001-12-31", "2002-03-31"} {
			if !strings.Contains(err.Error(), date) {
				t.Errorf("%s: error %q does not report extent date %s", test.name, err, date)
			}
		}
	}

	if _, err := ObservedMassChange(c, Greenland, Window{Date{2002, 3, 1}, Date{2002, 2, 1}}); err == nil {
		t.Error("reversed window: expected error")
	}
}

func TestAnomalyAtEdges(t *testing.T) {
	c := testCatalog()
	// Between the outermost epoch midpoints and the record extent the
	// series extends linearly from the adjacent epoch pair: mascon 0
	// holds [10, 8.5, 7] at days [15, 45, 75].
	if got := c.AnomalyAt(0, 5); got != 10.5 {
		t.Errorf("AnomalyAt(0, 5) = %g, want 10.5", got)
	}
	if got := c.AnomalyAt(0, 85); got != 6.5 {
		t.Errorf("AnomalyAt(0, 85) = %g, want 6.5", got)
	}
	if got := c.AnomalyAt(3, 45); got != 1 {
		t.Errorf("AnomalyAt(3, 45) = %g, want 1", got)
	}
}
