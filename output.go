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
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// ErrWrite is returned when comparison results cannot be written.
var ErrWrite = errors.New("gravimass: cannot write results")

// Comparison result variable names.
const (
	varMasconIndex = "mascon_index"
	varObsCmwe     = "obs_cmwe"
	varModelCmwe   = "model_cmwe"
	varDeltaCmwe   = "delta_cmwe"
	varObsGt       = "obs_gt"
	varModelGt     = "model_gt"
	varDeltaGt     = "delta_gt"
	varCoverage    = "coverage"

	attrRegion      = "region"
	attrWindowStart = "window_start"
	attrWindowEnd   = "window_end"
)

// OutputFilename returns the name of the comparison result file for the
// given model file, in directory dir. The name depends only on the model
// file name, so rerunning a comparison overwrites its earlier results.
func OutputFilename(dir, modelPath string) string {
	base := filepath.Base(modelPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_mascon_cmp.nc")
}

// WriteComparison writes a comparison to a NetCDF file, replacing any
// existing file at path. Each record holds one mascon: its catalog index,
// basin, geographic footprint, and area alongside the observed, modeled,
// and differenced mass changes. The footprint fields let readers rebuild a
// spatial index over the results without the catalog at hand. NaN estimates
// are stored as-is.
func WriteComparison(path string, c *Comparison, cat *MasconCatalog) error {
	n := len(c.Indices)
	for _, i := range c.Indices {
		if i < 0 || i >= cat.Len() {
			return fmt.Errorf("%w: %s: comparison refers to mascon %d but the catalog holds %d",
				ErrWrite, path, i, cat.Len())
		}
	}

	h := cdf.NewHeader([]string{"mascon"}, []int{n})
	h.AddAttribute("", attrRegion, c.Region.String())
	h.AddAttribute("", attrWindowStart, c.Window.Start.String())
	h.AddAttribute("", attrWindowEnd, c.Window.End.String())
	h.AddVariable(varMasconIndex, []string{"mascon"}, []int32{0})
	h.AddVariable(varBasin, []string{"mascon"}, []int32{0})
	for _, v := range []string{varLatCenter, varLonCenter, varLatSpan, varLonSpan} {
		h.AddVariable(v, []string{"mascon"}, []float64{0})
		h.AddAttribute(v, "units", "degrees")
	}
	h.AddVariable(varAreaKm2, []string{"mascon"}, []float64{0})
	h.AddAttribute(varAreaKm2, "units", "km2")
	for _, v := range []string{varObsCmwe, varModelCmwe, varDeltaCmwe} {
		h.AddVariable(v, []string{"mascon"}, []float64{0})
		h.AddAttribute(v, "units", "cm water equivalent")
	}
	for _, v := range []string{varObsGt, varModelGt, varDeltaGt} {
		h.AddVariable(v, []string{"mascon"}, []float64{0})
		h.AddAttribute(v, "units", "Gt")
	}
	h.AddVariable(varCoverage, []string{"mascon"}, []float64{0})
	h.AddAttribute(varCoverage, "units", "fraction of footprint covered by model data")
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}

	index := make([]int32, n)
	basin := make([]int32, n)
	lat := make([]float64, n)
	lon := make([]float64, n)
	latSpan := make([]float64, n)
	lonSpan := make([]float64, n)
	area := make([]float64, n)
	for j, i := range c.Indices {
		index[j] = int32(i)
		basin[j] = int32(cat.Basin[i])
		lat[j] = cat.LatCenter[i]
		lon[j] = cat.LonCenter[i]
		latSpan[j] = cat.LatSpan[i]
		lonSpan[j] = cat.LonSpan[i]
		area[j] = cat.AreaKm2[i]
	}
	coverage := c.Coverage
	if coverage == nil {
		coverage = make([]float64, n)
		for j := range coverage {
			coverage[j] = math.NaN()
		}
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	vars := []struct {
		name string
		data interface{}
	}{
		{varMasconIndex, index},
		{varBasin, basin},
		{varLatCenter, lat},
		{varLonCenter, lon},
		{varLatSpan, latSpan},
		{varLonSpan, lonSpan},
		{varAreaKm2, area},
		{varObsCmwe, c.Obs},
		{varModelCmwe, c.Model},
		{varDeltaCmwe, c.Delta},
		{varObsGt, c.ObsGt},
		{varModelGt, c.ModelGt},
		{varDeltaGt, c.DeltaGt},
		{varCoverage, coverage},
	}
	for _, v := range vars {
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		w := f.Writer(v.name, start, end)
		if _, err := w.Write(v.data); err != nil {
			return fmt.Errorf("%w: writing variable %s to %s: %v", ErrWrite, v.name, path, err)
		}
	}
	return nil
}

// checkFieldNames checks (1) if any output variable names exceed 10
// characters and (2) if any output variable names include characters that
// are unsupported in shapefile field names.
func checkFieldNames(o map[string]string) error {
	for key := range o {
		long := len(key) > 10
		okChars, err := regexp.MatchString("^[A-Za-z]\\w*$", key)
		if err != nil {
			panic(err)
		}
		if long && !okChars {
			return fmt.Errorf("gravimass: output variable name '%s' exceeds 10 characters and includes unsupported character(s)", key)
		} else if long {
			return fmt.Errorf("gravimass: output variable name '%s' exceeds 10 characters", key)
		} else if !okChars {
			return fmt.Errorf("gravimass: output variable name '%s' includes unsupported characters", key)
		}
	}
	return nil
}

// shapefileFuncs are the functions available in shapefile output variable
// expressions.
var shapefileFuncs = map[string]govaluate.ExpressionFunction{
	"abs": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gravimass: got %d arguments for function 'abs', but needs 1", len(arg))
		}
		return (float64)(math.Abs(arg[0].(float64))), nil
	},
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gravimass: got %d arguments for function 'exp', but needs 1", len(arg))
		}
		return (float64)(math.Exp(arg[0].(float64))), nil
	},
	"log": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gravimass: got %d arguments for function 'log', but needs 1", len(arg))
		}
		return (float64)(math.Log(arg[0].(float64))), nil
	},
	"sqrt": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gravimass: got %d arguments for function 'sqrt', but needs 1", len(arg))
		}
		return (float64)(math.Sqrt(arg[0].(float64))), nil
	},
	// gt(cmwe, area) converts a water equivalent depth in centimeters
	// over an area in square kilometers to gigatonnes.
	"gt": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 2 {
			return nil, fmt.Errorf("gravimass: got %d arguments for function 'gt', but needs 2", len(arg))
		}
		return (float64)(Gigatonnes(arg[0].(float64), arg[1].(float64))), nil
	},
}

// fieldParams returns the expression variables available for mascon j of
// the comparison.
func (c *Comparison) fieldParams(j int, cat *MasconCatalog) map[string]interface{} {
	i := c.Indices[j]
	coverage := math.NaN()
	if c.Coverage != nil {
		coverage = c.Coverage[j]
	}
	return map[string]interface{}{
		"obs":      c.Obs[j],
		"model":    c.Model[j],
		"delta":    c.Delta[j],
		"obs_gt":   c.ObsGt[j],
		"model_gt": c.ModelGt[j],
		"delta_gt": c.DeltaGt[j],
		"coverage": coverage,
		"mascon":   float64(i),
		"basin":    float64(cat.Basin[i]),
		"lat":      cat.LatCenter[i],
		"lon":      cat.LonCenter[i],
		"area_km2": cat.AreaKm2[i],
	}
}

// WriteShapefile writes the comparison to a shapefile for mapping, with
// one polygon per mascon footprint in the region's projected coordinates.
// outputVariables maps shapefile field names to expressions over the
// per-mascon values obs, model, delta, obs_gt, model_gt, delta_gt,
// coverage, mascon, basin, lat, lon, and area_km2, for example
// {"reldelta": "delta / obs * 100"}; the functions abs, exp, log, sqrt,
// and gt are also available. If outputVariables is empty, the obs, model,
// and delta mass changes (cm water equivalent) are written.
func (c *Comparison) WriteShapefile(fileName string, cat *MasconCatalog, outputVariables map[string]string) error {
	if len(outputVariables) == 0 {
		outputVariables = map[string]string{"obs": "obs", "model": "model", "delta": "delta"}
	}
	if err := checkFieldNames(outputVariables); err != nil {
		return err
	}

	params := make([]map[string]interface{}, len(c.Indices))
	for j := range c.Indices {
		params[j] = c.fieldParams(j, cat)
	}

	results := make(map[string][]float64, len(outputVariables))
	for name, val := range outputVariables {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(val, shapefileFuncs)
		if err != nil {
			return fmt.Errorf("gravimass: output variable %s: %v", name, err)
		}
		for _, v := range expression.Vars() {
			if len(params) > 0 {
				if _, ok := params[0][v]; !ok {
					return fmt.Errorf("gravimass: undefined variable name '%s'", v)
				}
			}
		}
		vals := make([]float64, len(c.Indices))
		for j := range c.Indices {
			r, err := expression.Evaluate(params[j])
			if err != nil {
				return fmt.Errorf("gravimass: evaluating output variable %s for mascon %d: %v", name, c.Indices[j], err)
			}
			v, ok := r.(float64)
			if !ok {
				return fmt.Errorf("gravimass: output variable %s evaluates to %T, want float64", name, r)
			}
			vals[j] = v
		}
		results[name] = vals
	}

	vars := make([]string, 0, len(results))
	for v := range results {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	fields := make([]goshp.Field, len(vars))
	for i, v := range vars {
		fields[i] = goshp.FloatField(v, 14, 8)
	}

	toGrid, _, err := c.Region.GridTransforms()
	if err != nil {
		return err
	}
	wkt, err := c.Region.WKT()
	if err != nil {
		return err
	}

	// remove extension and replace it with .shp
	fileBase := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	shape, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("%w: creating shapefile %s: %v", ErrWrite, fileBase+".shp", err)
	}
	for j, i := range c.Indices {
		fp, err := cat.Footprint(i).Transform(toGrid)
		if err != nil {
			return fmt.Errorf("%w: projecting mascon %d footprint: %v", ErrWrite, i, err)
		}
		outFields := make([]interface{}, len(vars))
		for k, v := range vars {
			outFields[k] = results[v][j]
		}
		if err := shape.EncodeFields(fp.(geom.Polygon), outFields...); err != nil {
			return fmt.Errorf("%w: writing shapefile %s: %v", ErrWrite, fileBase+".shp", err)
		}
	}
	shape.Close()

	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("%w: creating projection file: %v", ErrWrite, err)
	}
	fmt.Fprint(f, wkt)
	f.Close()
	return nil
}
