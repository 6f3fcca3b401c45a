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

import "testing"

func TestCmWaterEquivalent(t *testing.T) {
	tests := []struct {
		dThickness, rhoIce, rhoWater, want float64
	}{
		{0, 0, 0, 0},
		{-0.01, 0, 0, -0.918},
		{1, 0, 0, 91.8},
		{1, 900, 1000, 90},
		{-0.5, 0, 0, -45.9},
	}
	for _, test := range tests {
		got := CmWaterEquivalent(test.dThickness, test.rhoIce, test.rhoWater)
		if different(got, test.want, 1.e-12) {
			t.Errorf("CmWaterEquivalent(%g, %g, %g) = %g, want %g",
				test.dThickness, test.rhoIce, test.rhoWater, got, test.want)
		}
	}
}

func TestGigatonnes(t *testing.T) {
	tests := []struct {
		cmwe, areaKm2, want float64
	}{
		{0, 3000, 0},
		{2.082, 3000, 0.06246},
		{-0.918, 3000, -0.02754},
		{1, 1.e5, 1},
	}
	for _, test := range tests {
		if got := Gigatonnes(test.cmwe, test.areaKm2); different(got, test.want, 1.e-12) {
			t.Errorf("Gigatonnes(%g, %g) = %g, want %g",
				test.cmwe, test.areaKm2, got, test.want)
		}
	}
}
