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

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// ErrFileNotFound is returned when an input file does not exist.
var ErrFileNotFound = errors.New("gravimass: file not found")

// ErrCatalogLoad is returned when a mascon catalog file cannot be
// interpreted.
var ErrCatalogLoad = errors.New("gravimass: cannot load mascon catalog")

// Mascon catalog variable names, following the GSFC mascon solution fields.
const (
	varLatCenter  = "lat_center_deg"
	varLonCenter  = "lon_center_deg"
	varLatSpan    = "lat_span_deg"
	varLonSpan    = "lon_span_deg"
	varLocation   = "location"
	varBasin      = "basin"
	varAreaKm2    = "area_km2"
	varCmwe       = "cmwe"
	varDaysStart  = "days_start"
	varDaysMiddle = "days_middle"
	varDaysEnd    = "days_end"

	attrTimeEpoch = "time_epoch"
)

// footprintEdgePoints is the number of segments each footprint edge is
// divided into so that projected footprints follow the meridian and
// parallel arcs of the geographic box.
const footprintEdgePoints = 8

// A MasconCatalog holds a GRACE/GRACE-FO mascon solution: per-mascon
// geographic footprints and metadata plus mass-anomaly time series on a
// shared time axis. It is read-only after loading.
type MasconCatalog struct {
	// LatCenter, LonCenter, LatSpan, and LonSpan define each mascon's
	// geographic footprint in degrees.
	LatCenter, LonCenter, LatSpan, LonSpan []float64

	// AreaKm2 is the surface area of each mascon.
	AreaKm2 []float64

	// Location is the GSFC location code of each mascon
	// (80 = Greenland land ice, 90 = Antarctica land ice).
	Location []int

	// Basin is the drainage basin identifier of each mascon, or -1 if the
	// product does not define basins.
	Basin []int

	// Cmwe holds mass anomalies in centimeters water equivalent with
	// shape [mascon, epoch].
	Cmwe *sparse.DenseArray

	// DaysStart, DaysMiddle, and DaysEnd give each observation epoch's
	// extent and midpoint in days since Epoch on the standard calendar.
	DaysStart, DaysMiddle, DaysEnd []float64

	// Epoch is the date the time axis counts from.
	Epoch Date
}

// Len returns the number of mascons in the catalog.
func (c *MasconCatalog) Len() int { return len(c.LatCenter) }

// Epochs returns the number of observation epochs in the catalog.
func (c *MasconCatalog) Epochs() int { return len(c.DaysMiddle) }

// LoadMascons loads a mascon catalog from a NetCDF file.
func LoadMascons(path string) (*MasconCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("gravimass: opening mascon catalog %s: %v", path, err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogLoad, path, err)
	}

	have := make(map[string]bool)
	for _, v := range nc.Header.Variables() {
		have[v] = true
	}
	required := []string{varLatCenter, varLonCenter, varLatSpan, varLonSpan,
		varLocation, varCmwe, varDaysStart, varDaysMiddle, varDaysEnd}
	for _, v := range required {
		if !have[v] {
			return nil, fmt.Errorf("%w: %s is missing variable %s", ErrCatalogLoad, path, v)
		}
	}

	epochI := nc.Header.GetAttribute("", attrTimeEpoch)
	if epochI == nil {
		return nil, fmt.Errorf("%w: %s is missing global attribute %s", ErrCatalogLoad, path, attrTimeEpoch)
	}
	epochStr, ok := epochI.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s attribute %s has type %T, want string", ErrCatalogLoad, path, attrTimeEpoch, epochI)
	}
	epoch, err := ParseDate(epochStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s attribute %s: %v", ErrCatalogLoad, path, attrTimeEpoch, err)
	}

	c := &MasconCatalog{Epoch: epoch}
	read := func(v string) []float64 {
		if err != nil {
			return nil
		}
		var data []float64
		data, err = readVar64(nc, v)
		if err != nil {
			err = fmt.Errorf("%w: reading variable %s from %s: %v", ErrCatalogLoad, v, path, err)
		}
		return data
	}
	c.LatCenter = read(varLatCenter)
	c.LonCenter = read(varLonCenter)
	c.LatSpan = read(varLatSpan)
	c.LonSpan = read(varLonSpan)
	c.DaysStart = read(varDaysStart)
	c.DaysMiddle = read(varDaysMiddle)
	c.DaysEnd = read(varDaysEnd)
	location := read(varLocation)
	cmwe := read(varCmwe)
	if err != nil {
		return nil, err
	}

	n := len(c.LatCenter)
	nt := len(c.DaysMiddle)
	for v, l := range map[string]int{
		varLonCenter: len(c.LonCenter),
		varLatSpan:   len(c.LatSpan),
		varLonSpan:   len(c.LonSpan),
		varLocation:  len(location),
	} {
		if l != n {
			return nil, fmt.Errorf("%w: %s: variable %s has length %d, want %d", ErrCatalogLoad, path, v, l, n)
		}
	}
	if len(c.DaysStart) != nt || len(c.DaysEnd) != nt {
		return nil, fmt.Errorf("%w: %s: time variables have inconsistent lengths", ErrCatalogLoad, path)
	}
	if len(cmwe) != n*nt {
		return nil, fmt.Errorf("%w: %s: variable %s has %d values, want %d mascons x %d epochs",
			ErrCatalogLoad, path, varCmwe, len(cmwe), n, nt)
	}
	c.Cmwe = sparse.ZerosDense(n, nt)
	copy(c.Cmwe.Elements, cmwe)

	c.Location = make([]int, n)
	for i, l := range location {
		c.Location[i] = int(l)
	}

	if have[varAreaKm2] {
		if c.AreaKm2 = read(varAreaKm2); err != nil {
			return nil, err
		}
		if len(c.AreaKm2) != n {
			return nil, fmt.Errorf("%w: %s: variable %s has length %d, want %d", ErrCatalogLoad, path, varAreaKm2, len(c.AreaKm2), n)
		}
	} else {
		c.AreaKm2 = make([]float64, n)
		for i := range c.AreaKm2 {
			c.AreaKm2[i] = c.sphericalBoxAreaKm2(i)
		}
	}

	c.Basin = make([]int, n)
	if have[varBasin] {
		basin := read(varBasin)
		if err != nil {
			return nil, err
		}
		if len(basin) != n {
			return nil, fmt.Errorf("%w: %s: variable %s has length %d, want %d", ErrCatalogLoad, path, varBasin, len(basin), n)
		}
		for i, b := range basin {
			c.Basin[i] = int(b)
		}
	} else {
		for i := range c.Basin {
			c.Basin[i] = -1
		}
	}
	return c, nil
}

// readVar64 reads a numeric variable in full, converting to float64.
func readVar64(nc *cdf.File, v string) ([]float64, error) {
	r := nc.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}
	switch d := buf.(type) {
	case []float64:
		return d, nil
	case []float32:
		data := make([]float64, len(d))
		for i, val := range d {
			data[i] = float64(val)
		}
		return data, nil
	case []int32:
		data := make([]float64, len(d))
		for i, val := range d {
			data[i] = float64(val)
		}
		return data, nil
	}
	return nil, fmt.Errorf("variable %s has unsupported type %T", v, buf)
}

// earthRadius is the mean Earth radius (m), used for the fallback
// footprint-area estimate.
const earthRadius = 6371000.

// sphericalBoxAreaKm2 estimates the area of mascon i's geographic box on a
// spherical Earth, for catalogs that do not record areas.
func (c *MasconCatalog) sphericalBoxAreaKm2(i int) float64 {
	latMin := clampLat(c.LatCenter[i] - c.LatSpan[i]/2)
	latMax := clampLat(c.LatCenter[i] + c.LatSpan[i]/2)
	dSin := math.Sin(latMax*deg2rad) - math.Sin(latMin*deg2rad)
	return earthRadius * earthRadius * c.LonSpan[i] * deg2rad * dSin / 1.e6
}

func clampLat(lat float64) float64 {
	return math.Min(90, math.Max(-90, lat))
}

// Footprint returns mascon i's geographic bounding box as a polygon in
// degrees. The edges are densified so the projected footprint follows the
// box's meridian and parallel arcs.
func (c *MasconCatalog) Footprint(i int) geom.Polygon {
	latMin := clampLat(c.LatCenter[i] - c.LatSpan[i]/2)
	latMax := clampLat(c.LatCenter[i] + c.LatSpan[i]/2)
	lonMin := c.LonCenter[i] - c.LonSpan[i]/2
	lonMax := c.LonCenter[i] + c.LonSpan[i]/2

	ring := make([]geom.Point, 0, 4*footprintEdgePoints)
	edge := func(lon0, lat0, lon1, lat1 float64) {
		for k := 0; k < footprintEdgePoints; k++ {
			f := float64(k) / footprintEdgePoints
			ring = append(ring, geom.Point{
				X: lon0 + f*(lon1-lon0),
				Y: lat0 + f*(lat1-lat0),
			})
		}
	}
	edge(lonMin, latMin, lonMax, latMin)
	edge(lonMax, latMin, lonMax, latMax)
	edge(lonMax, latMax, lonMin, latMax)
	edge(lonMin, latMax, lonMin, latMin)
	return geom.Polygon{ring}
}

// RegionIndices returns the sorted catalog indices of the land-ice mascons
// belonging to the given region.
func (c *MasconCatalog) RegionIndices(r Region) ([]int, error) {
	code, err := r.LocationCode()
	if err != nil {
		return nil, err
	}
	var idx []int
	for i, loc := range c.Location {
		if loc == code {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	return idx, nil
}

// WriteMascons writes the catalog to a NetCDF file in the layout LoadMascons
// reads. It is used for repackaging mascon products and in tests.
func WriteMascons(path string, c *MasconCatalog) error {
	n, nt := c.Len(), c.Epochs()
	h := cdf.NewHeader([]string{"mascon", "time"}, []int{n, nt})
	h.AddAttribute("", attrTimeEpoch, c.Epoch.String())
	for _, v := range []string{varLatCenter, varLonCenter, varLatSpan, varLonSpan} {
		h.AddVariable(v, []string{"mascon"}, []float64{0})
		h.AddAttribute(v, "units", "degrees")
	}
	h.AddVariable(varAreaKm2, []string{"mascon"}, []float64{0})
	h.AddAttribute(varAreaKm2, "units", "km2")
	h.AddVariable(varLocation, []string{"mascon"}, []int32{0})
	h.AddVariable(varBasin, []string{"mascon"}, []int32{0})
	h.AddVariable(varCmwe, []string{"mascon", "time"}, []float64{0})
	h.AddAttribute(varCmwe, "units", "cm water equivalent")
	for _, v := range []string{varDaysStart, varDaysMiddle, varDaysEnd} {
		h.AddVariable(v, []string{"time"}, []float64{0})
		h.AddAttribute(v, "units", "days since "+c.Epoch.String())
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("gravimass: creating mascon catalog %s: %v", path, err)
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gravimass: creating mascon catalog %s: %v", path, err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("gravimass: creating mascon catalog %s: %v", path, err)
	}

	toInt32 := func(d []int) []int32 {
		o := make([]int32, len(d))
		for i, v := range d {
			o[i] = int32(v)
		}
		return o
	}
	vars := []struct {
		name string
		data interface{}
	}{
		{varLatCenter, c.LatCenter},
		{varLonCenter, c.LonCenter},
		{varLatSpan, c.LatSpan},
		{varLonSpan, c.LonSpan},
		{varAreaKm2, c.AreaKm2},
		{varLocation, toInt32(c.Location)},
		{varBasin, toInt32(c.Basin)},
		{varCmwe, c.Cmwe.Elements},
		{varDaysStart, c.DaysStart},
		{varDaysMiddle, c.DaysMiddle},
		{varDaysEnd, c.DaysEnd},
	}
	for _, v := range vars {
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		w := f.Writer(v.name, start, end)
		if _, err := w.Write(v.data); err != nil {
			return fmt.Errorf("gravimass: writing variable %s to %s: %v", v.name, path, err)
		}
	}
	return nil
}
