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
	"sort"
)

// ErrOutOfRangeWindow is returned when a comparison window extends beyond
// a dataset's time axis.
var ErrOutOfRangeWindow = errors.New("gravimass: window outside time extent")

// A MassChange holds per-mascon mass-change estimates over a comparison
// window. Indices are catalog indices of the mascons included; Cmwe and Gt
// are parallel to Indices. NaN marks a mascon whose estimate could not
// be computed.
type MassChange struct {
	Region  Region
	Window  Window
	Indices []int

	// Cmwe is the mass change in centimeters water equivalent.
	Cmwe []float64

	// Gt is the mass change in gigatonnes.
	Gt []float64

	// Coverage is the fraction of each mascon's projected footprint
	// covered by model cells holding data. It is nil for observational
	// estimates.
	Coverage []float64
}

// TotalGt returns the summed mass change in gigatonnes, skipping
// invalid mascons.
func (m *MassChange) TotalGt() float64 {
	var sum float64
	for _, g := range m.Gt {
		if g == g { // skip NaN
			sum += g
		}
	}
	return sum
}

// Invalid returns the number of mascons whose estimates could not be
// computed.
func (m *MassChange) Invalid() int {
	var n int
	for _, v := range m.Cmwe {
		if v != v {
			n++
		}
	}
	return n
}

// ObservedMassChange computes, for each of the catalog's mascons in the
// given region, the change in observed mass anomaly between the window's
// start and end dates. Anomalies are linearly interpolated to the window
// endpoints on the catalog time axis.
func ObservedMassChange(c *MasconCatalog, region Region, window Window) (*MassChange, error) {
	// The observational time axis uses the standard calendar.
	startDays, endDays, err := window.DaysSince(CalendarStandard, c.Epoch)
	if err != nil {
		return nil, err
	}
	nt := c.Epochs()
	if nt == 0 {
		return nil, fmt.Errorf("%w: catalog has no observation epochs", ErrOutOfRangeWindow)
	}
	if startDays < c.DaysStart[0] || endDays > c.DaysEnd[nt-1] {
		return nil, fmt.Errorf("%w: window %v to %v outside observed record %v to %v",
			ErrOutOfRangeWindow, window.Start, window.End,
			CalendarStandard.DateAfter(c.Epoch, c.DaysStart[0]),
			CalendarStandard.DateAfter(c.Epoch, c.DaysEnd[nt-1]))
	}

	indices, err := c.RegionIndices(region)
	if err != nil {
		return nil, err
	}
	m := &MassChange{
		Region:  region,
		Window:  window,
		Indices: indices,
		Cmwe:    make([]float64, len(indices)),
		Gt:      make([]float64, len(indices)),
	}
	for j, i := range indices {
		d := c.AnomalyAt(i, endDays) - c.AnomalyAt(i, startDays)
		m.Cmwe[j] = d
		m.Gt[j] = Gigatonnes(d, c.AreaKm2[i])
	}
	return m, nil
}

// AnomalyAt returns mascon i's mass anomaly linearly interpolated to the
// given day on the catalog time axis. Between the outermost epoch midpoints
// and the ends of the observed record, values extend linearly from the
// adjacent epoch pair.
func (c *MasconCatalog) AnomalyAt(i int, days float64) float64 {
	t := c.DaysMiddle
	if len(t) == 1 {
		return c.Cmwe.Get(i, 0)
	}
	k := sort.SearchFloat64s(t, days)
	switch {
	case k == 0:
		k = 1
	case k == len(t):
		k = len(t) - 1
	}
	v0, v1 := c.Cmwe.Get(i, k-1), c.Cmwe.Get(i, k)
	f := (days - t[k-1]) / (t[k] - t[k-1])
	return v0 + f*(v1-v0)
}
