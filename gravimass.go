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

// Package gravimass compares ice-sheet model output against satellite
// gravimetry observations. It re-expresses a model's gridded ice-thickness
// change on the irregular mascon basis used by GRACE/GRACE-FO mascon
// solutions and differences the two mass-change estimates per mascon.
package gravimass

// Version gives the version number of this release.
const Version = "0.9.2"

const (
	// RhoIce is the default ice density (kg m-3).
	RhoIce = 918.

	// RhoWater is the default density of water (kg m-3).
	RhoWater = 1000.

	// metersToCm converts thickness in meters to centimeters.
	metersToCm = 100.

	// gtPerCmweKm2 is the mass in gigatonnes of one centimeter of water
	// spread over one square kilometer.
	gtPerCmweKm2 = 1.e-5
)

// CmWaterEquivalent converts an ice-thickness change in meters to the
// equivalent depth of water in centimeters for the given densities
// (kg m-3). Pass zero densities to use the defaults.
func CmWaterEquivalent(dThickness, rhoIce, rhoWater float64) float64 {
	if rhoIce == 0 {
		rhoIce = RhoIce
	}
	if rhoWater == 0 {
		rhoWater = RhoWater
	}
	return dThickness * rhoIce / rhoWater * metersToCm
}

// Gigatonnes converts a mass change in centimeters water equivalent over an
// area in square kilometers to gigatonnes.
func Gigatonnes(cmwe, areaKm2 float64) float64 {
	return cmwe * areaKm2 * gtPerCmweKm2
}
