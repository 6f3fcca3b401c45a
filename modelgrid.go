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
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// ErrMissingVariable is returned when a model file lacks a required
// variable.
var ErrMissingVariable = errors.New("gravimass: missing variable")

// ErrUnsupportedGrid is returned when a model file's grid is not a regular
// rectangular grid in projected coordinates.
var ErrUnsupportedGrid = errors.New("gravimass: unsupported grid")

// varThickness is the CMIP/ISMIP6 name for land ice thickness (m).
const varThickness = "lithk"

// A ModelGrid holds one model run's ice-thickness time series on a regular
// projected grid.
type ModelGrid struct {
	// Path is the file the grid was loaded from.
	Path string

	// X and Y are the projected cell-center coordinates (m), ascending.
	X, Y []float64

	// Dx and Dy are the grid spacings (m).
	Dx, Dy float64

	// Calendar and Epoch interpret TimeDays, the time axis in days
	// since Epoch.
	Calendar Calendar
	Epoch    Date
	TimeDays []float64

	// Thickness is the ice thickness (m) with shape [time, y, x].
	// Cells without data hold NaN.
	Thickness *sparse.DenseArray
}

func (g *ModelGrid) Nx() int { return len(g.X) }
func (g *ModelGrid) Ny() int { return len(g.Y) }

// Bounds returns the outer edges of the grid in projected coordinates.
func (g *ModelGrid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X[0] - g.Dx/2, Y: g.Y[0] - g.Dy/2},
		Max: geom.Point{X: g.X[g.Nx()-1] + g.Dx/2, Y: g.Y[g.Ny()-1] + g.Dy/2},
	}
}

// CellPolygon returns the outline of cell (iy, ix) in projected
// coordinates.
func (g *ModelGrid) CellPolygon(iy, ix int) geom.Polygon {
	x0, x1 := g.X[ix]-g.Dx/2, g.X[ix]+g.Dx/2
	y0, y1 := g.Y[iy]-g.Dy/2, g.Y[iy]+g.Dy/2
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

// LoadModelGrid loads a model run's thickness field from a NetCDF file,
// checking that the thickness variable is present and that the grid is a
// regular rectangular projected grid.
func LoadModelGrid(path string) (*ModelGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("gravimass: opening model file %s: %v", path, err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("gravimass: reading model file %s: %v", path, err)
	}

	have := make(map[string]bool)
	for _, v := range nc.Header.Variables() {
		have[v] = true
	}
	for _, v := range []string{varThickness, "x", "y", "time"} {
		if !have[v] {
			return nil, fmt.Errorf("%w: %s is missing variable %s", ErrMissingVariable, path, v)
		}
	}
	dims := nc.Header.Dimensions(varThickness)
	if len(dims) != 3 || dims[0] != "time" || dims[1] != "y" || dims[2] != "x" {
		return nil, fmt.Errorf("%w: %s: %s has dimensions %v, want [time y x]",
			ErrUnsupportedGrid, path, varThickness, dims)
	}
	for _, v := range []string{"x", "y"} {
		if u, ok := nc.Header.GetAttribute(v, "units").(string); ok &&
			strings.Contains(strings.ToLower(u), "degree") {
			return nil, fmt.Errorf("%w: %s: coordinate %s is in %s; latitude-longitude grids are not supported",
				ErrUnsupportedGrid, path, v, u)
		}
	}

	g := &ModelGrid{Path: path}
	read := func(v string) []float64 {
		if err != nil {
			return nil
		}
		var data []float64
		data, err = readVar64(nc, v)
		if err != nil {
			err = fmt.Errorf("gravimass: reading variable %s from %s: %v", v, path, err)
		}
		return data
	}
	g.X = read("x")
	g.Y = read("y")
	times := read("time")
	thickness := read(varThickness)
	if err != nil {
		return nil, err
	}

	if g.Dx, err = regularSpacing(g.X); err != nil {
		return nil, fmt.Errorf("%w: %s: x axis: %v", ErrUnsupportedGrid, path, err)
	}
	if g.Dy, err = regularSpacing(g.Y); err != nil {
		return nil, fmt.Errorf("%w: %s: y axis: %v", ErrUnsupportedGrid, path, err)
	}

	unitsI := nc.Header.GetAttribute("time", "units")
	units, ok := unitsI.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s: time axis has no units attribute", ErrUnsupportedGrid, path)
	}
	epoch, toDays, err := ParseTimeUnits(units)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedGrid, path, err)
	}
	g.Epoch = epoch
	calStr, _ := nc.Header.GetAttribute("time", "calendar").(string)
	if g.Calendar, err = ParseCalendar(calStr); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedGrid, path, err)
	}
	g.TimeDays = make([]float64, len(times))
	for i, t := range times {
		g.TimeDays[i] = t * toDays
		if i > 0 && g.TimeDays[i] <= g.TimeDays[i-1] {
			return nil, fmt.Errorf("%w: %s: time axis is not strictly increasing", ErrUnsupportedGrid, path)
		}
	}

	nt, ny, nx := len(g.TimeDays), len(g.Y), len(g.X)
	if len(thickness) != nt*ny*nx {
		return nil, fmt.Errorf("%w: %s: %s has %d values, want %d x %d x %d",
			ErrUnsupportedGrid, path, varThickness, len(thickness), nt, ny, nx)
	}
	if fv := nc.Header.GetAttribute(varThickness, "_FillValue"); fv != nil {
		var fill float64
		switch v := fv.(type) {
		case []float64:
			fill = v[0]
		case []float32:
			fill = float64(v[0])
		}
		for i, val := range thickness {
			if val == fill {
				thickness[i] = math.NaN()
			}
		}
	}
	g.Thickness = sparse.ZerosDense(nt, ny, nx)
	copy(g.Thickness.Elements, thickness)

	// Files sometimes store the y axis north-to-south. Flip to ascending
	// axes so cell lookup is uniform.
	if g.Dx < 0 {
		g.flipX()
	}
	if g.Dy < 0 {
		g.flipY()
	}
	return g, nil
}

// regularSpacing returns the spacing of a uniformly spaced axis, or an
// error if the axis is irregular. The spacing is negative for a
// descending axis.
func regularSpacing(v []float64) (float64, error) {
	if len(v) < 2 {
		return 0, fmt.Errorf("axis has %d points; at least 2 are needed", len(v))
	}
	d := (v[len(v)-1] - v[0]) / float64(len(v)-1)
	if d == 0 {
		return 0, fmt.Errorf("axis has zero extent")
	}
	for i := 1; i < len(v); i++ {
		if math.Abs(v[i]-v[i-1]-d) > 1.e-3*math.Abs(d) {
			return 0, fmt.Errorf("irregular spacing between points %d and %d", i-1, i)
		}
	}
	return d, nil
}

func (g *ModelGrid) flipX() {
	nx := g.Nx()
	for i, j := 0, nx-1; i < j; i, j = i+1, j-1 {
		g.X[i], g.X[j] = g.X[j], g.X[i]
	}
	e := g.Thickness.Elements
	for row := 0; row < len(e)/nx; row++ {
		r := e[row*nx : (row+1)*nx]
		for i, j := 0, nx-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
	}
	g.Dx = -g.Dx
}

func (g *ModelGrid) flipY() {
	ny, nx := g.Ny(), g.Nx()
	for i, j := 0, ny-1; i < j; i, j = i+1, j-1 {
		g.Y[i], g.Y[j] = g.Y[j], g.Y[i]
	}
	e := g.Thickness.Elements
	tmp := make([]float64, nx)
	for t := 0; t < len(g.TimeDays); t++ {
		slab := e[t*ny*nx : (t+1)*ny*nx]
		for i, j := 0, ny-1; i < j; i, j = i+1, j-1 {
			copy(tmp, slab[i*nx:(i+1)*nx])
			copy(slab[i*nx:(i+1)*nx], slab[j*nx:(j+1)*nx])
			copy(slab[j*nx:(j+1)*nx], tmp)
		}
	}
	g.Dy = -g.Dy
}

// ThicknessChange returns the per-cell change in ice thickness (m) between
// the window's start and end dates, interpolated on the model time axis,
// as an array with shape [y, x]. The window is interpreted under the
// model's calendar.
func (g *ModelGrid) ThicknessChange(window Window) (*sparse.DenseArray, error) {
	start, end, err := window.DaysSince(g.Calendar, g.Epoch)
	if err != nil {
		return nil, err
	}
	nt := len(g.TimeDays)
	if start < g.TimeDays[0] || end > g.TimeDays[nt-1] {
		return nil, fmt.Errorf("%w: window %v to %v outside model record %v to %v",
			ErrOutOfRangeWindow, window.Start, window.End,
			g.Calendar.DateAfter(g.Epoch, g.TimeDays[0]),
			g.Calendar.DateAfter(g.Epoch, g.TimeDays[nt-1]))
	}
	s := g.thicknessAt(start)
	e := g.thicknessAt(end)
	out := sparse.ZerosDense(g.Ny(), g.Nx())
	for i := range out.Elements {
		out.Elements[i] = e[i] - s[i]
	}
	return out, nil
}

// thicknessAt returns the thickness field linearly interpolated to the
// given day as a flat [y, x] slice.
func (g *ModelGrid) thicknessAt(days float64) []float64 {
	t := g.TimeDays
	n := g.Ny() * g.Nx()
	out := make([]float64, n)
	k := sort.SearchFloat64s(t, days)
	switch {
	case k == 0:
		copy(out, g.Thickness.Elements[:n])
		return out
	case k == len(t):
		copy(out, g.Thickness.Elements[(len(t)-1)*n:])
		return out
	}
	f := (days - t[k-1]) / (t[k] - t[k-1])
	v0 := g.Thickness.Elements[(k-1)*n : k*n]
	v1 := g.Thickness.Elements[k*n : (k+1)*n]
	for i := range out {
		out[i] = v0[i] + f*(v1[i]-v0[i])
	}
	return out
}
