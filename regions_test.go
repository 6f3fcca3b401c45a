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
	"strings"
	"testing"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in   string
		want Region
		ok   bool
	}{
		{"GIS", Greenland, true},
		{"gis", Greenland, true},
		{" AIS ", Antarctica, true},
		{"ais", Antarctica, true},
		{"PIG", "", false},
		{"", "", false},
	}
	for _, test := range tests {
		got, err := ParseRegion(test.in)
		if test.ok {
			if err != nil {
				t.Errorf("ParseRegion(%q): %v", test.in, err)
			} else if got != test.want {
				t.Errorf("ParseRegion(%q) = %v, want %v", test.in, got, test.want)
			}
			continue
		}
		if !errors.Is(err, ErrUnsupportedRegion) {
			t.Errorf("ParseRegion(%q) error = %v, want ErrUnsupportedRegion", test.in, err)
		}
	}
}

func TestRegionProjection(t *testing.T) {
	for _, r := range []Region{Greenland, Antarctica} {
		sr, err := r.Projection()
		if err != nil {
			t.Fatalf("%v: %v", r, err)
		}
		if sr.Name != "stere" {
			t.Errorf("%v: projection name = %q, want stere", r, sr.Name)
		}
		const wgs84A = 6378137.
		if sr.A != wgs84A {
			t.Errorf("%v: semimajor axis = %g, want %g", r, sr.A, wgs84A)
		}
	}
	if _, err := Region("XYZ").Projection(); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("Projection error = %v, want ErrUnsupportedRegion", err)
	}
}

func TestRegionLocationCode(t *testing.T) {
	gis, err := Greenland.LocationCode()
	if err != nil {
		t.Fatal(err)
	}
	ais, err := Antarctica.LocationCode()
	if err != nil {
		t.Fatal(err)
	}
	if gis != 80 || ais != 90 {
		t.Errorf("location codes = %d, %d; want 80, 90", gis, ais)
	}
}

func TestRegionWKT(t *testing.T) {
	for _, r := range []Region{Greenland, Antarctica} {
		wkt, err := r.WKT()
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(wkt, `PROJCS["WGS 84`) {
			t.Errorf("%v: WKT does not describe a WGS 84 projected system", r)
		}
		if !strings.Contains(wkt, "Polar_Stereographic") {
			t.Errorf("%v: WKT missing Polar_Stereographic", r)
		}
	}
}
