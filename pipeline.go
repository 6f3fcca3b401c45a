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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"
)

// A Config holds the settings for a batch comparison run.
type Config struct {
	// MasconFile is the path to the mascon catalog NetCDF file.
	MasconFile string

	// ModelFiles are the model output files holding the lithk
	// thickness field, as paths or glob patterns.
	ModelFiles []string

	// Region identifies the ice sheet to compare ("GIS" or "AIS").
	Region string

	// WindowStart and WindowEnd bound the comparison window
	// (YYYY-MM-DD).
	WindowStart, WindowEnd string

	// OutputDir is the directory result files are written into. It is
	// created if it does not exist.
	OutputDir string

	// RhoIce and RhoWater are the densities (kg m-3) used to convert
	// thickness change to water equivalent. Zero values use the
	// defaults.
	RhoIce, RhoWater float64

	// Shapefile requests a mapping shapefile next to each result file.
	Shapefile bool

	// OutputVariables maps shapefile field names to expressions over
	// the comparison values; see Comparison.WriteShapefile. Empty
	// writes the default fields.
	OutputVariables map[string]string

	// Xlsx requests a summary.xlsx workbook in addition to summary.csv.
	Xlsx bool

	// Stage, if non-nil, is called on each input path before it is
	// opened and returns the local path to use. The command-line tool
	// uses it to fetch remote inputs.
	Stage func(path string) (string, error)

	// Log receives progress and per-file failure messages. If nil, the
	// standard logger is used.
	Log logrus.FieldLogger
}

// A FileReport describes the outcome of one model file's comparison.
type FileReport struct {
	// File is the model file the comparison read.
	File string

	// Output is the result file the comparison wrote, or empty if the
	// comparison failed.
	Output string

	// Summary holds the comparison's summary statistics.
	Summary Summary

	// Err is the error that stopped this file's comparison, or nil.
	Err error
}

// A BatchReport describes the outcome of a batch run.
type BatchReport struct {
	Files []FileReport
}

// Failed returns the reports of the files whose comparisons failed.
func (r *BatchReport) Failed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Run executes the batch comparison the configuration describes. The
// observed mass change is computed once from the mascon catalog, and then
// every model file is loaded, expressed on the mascon basis, compared, and
// written to its own result file. A failure in one model file is logged
// and recorded in the report but does not stop the other files. The
// returned error is non-nil for configuration problems that stop the whole
// batch, and, after all files have been processed, when any of them
// failed.
func (c *Config) Run() (*BatchReport, error) {
	log := c.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	region, err := ParseRegion(c.Region)
	if err != nil {
		return nil, err
	}
	var window Window
	if window.Start, err = ParseDate(c.WindowStart); err != nil {
		return nil, fmt.Errorf("gravimass: window start: %v", err)
	}
	if window.End, err = ParseDate(c.WindowEnd); err != nil {
		return nil, fmt.Errorf("gravimass: window end: %v", err)
	}
	files, err := c.expandModelFiles()
	if err != nil {
		return nil, err
	}
	if c.OutputDir != "" {
		if err := os.MkdirAll(c.OutputDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("gravimass: creating output directory: %v", err)
		}
	}

	masconPath, err := c.stage(c.MasconFile)
	if err != nil {
		return nil, err
	}
	cat, err := LoadMascons(masconPath)
	if err != nil {
		return nil, err
	}
	obs, err := ObservedMassChange(cat, region, window)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"region":  region,
		"mascons": len(obs.Indices),
		"obs_gt":  obs.TotalGt(),
	}).Info("observed mass change ready")

	report := &BatchReport{}
	for _, file := range files {
		rep := c.compareFile(file, cat, region, window, obs, log)
		report.Files = append(report.Files, rep)
		if rep.Err != nil {
			log.WithFields(logrus.Fields{"file": file}).Error(rep.Err)
			continue
		}
		log.WithFields(logrus.Fields{
			"file":     file,
			"output":   rep.Output,
			"mascons":  rep.Summary.N,
			"invalid":  rep.Summary.Invalid,
			"delta_gt": rep.Summary.DeltaGt,
		}).Info("comparison written")
	}

	if err := c.writeSummary(report); err != nil {
		return report, err
	}
	if n := len(report.Failed()); n > 0 {
		return report, fmt.Errorf("gravimass: %d of %d model files failed", n, len(report.Files))
	}
	return report, nil
}

// stage fetches an input through the Stage hook, if one is set.
func (c *Config) stage(path string) (string, error) {
	if c.Stage == nil {
		return path, nil
	}
	local, err := c.Stage(path)
	if err != nil {
		return "", fmt.Errorf("gravimass: staging %s: %v", path, err)
	}
	return local, nil
}

// expandModelFiles resolves the configured model file patterns to a sorted
// list of files. Remote paths and patterns without glob metacharacters
// pass through as-is, so a missing file surfaces as that file's own
// failure rather than silently matching nothing.
func (c *Config) expandModelFiles() ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	for _, pattern := range c.ModelFiles {
		if strings.Contains(pattern, "://") || !strings.ContainsAny(pattern, "*?[") {
			add(pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("gravimass: bad model file pattern %s: %v", pattern, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("gravimass: no model files match %v", c.ModelFiles)
	}
	sort.Strings(files)
	return files, nil
}

// compareFile runs one model file through the comparison and writes its
// results.
func (c *Config) compareFile(file string, cat *MasconCatalog, region Region,
	window Window, obs *MassChange, log logrus.FieldLogger) FileReport {
	rep := FileReport{File: file}
	path, err := c.stage(file)
	if err != nil {
		rep.Err = err
		return rep
	}
	grid, err := LoadModelGrid(path)
	if err != nil {
		rep.Err = err
		return rep
	}
	trimmed, full, err := ModelMassChange(grid, cat, region, window, c.RhoIce, c.RhoWater)
	if err != nil {
		rep.Err = err
		return rep
	}
	log.WithFields(logrus.Fields{
		"file":         file,
		"model_gt_all": full.TotalGt(),
		"invalid_all":  full.Invalid(),
	}).Debug("model estimate over the full catalog")
	cmp, err := Compare(trimmed, obs)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Summary = cmp.Summarize()
	out := OutputFilename(c.OutputDir, file)
	if err := WriteComparison(out, cmp, cat); err != nil {
		rep.Err = err
		return rep
	}
	rep.Output = out
	if c.Shapefile {
		base := strings.TrimSuffix(out, filepath.Ext(out))
		if err := cmp.WriteShapefile(base+".shp", cat, c.OutputVariables); err != nil {
			rep.Err = err
			return rep
		}
	}
	return rep
}

// summaryHeader lists the summary table columns.
var summaryHeader = []string{
	"file", "status", "mascons", "invalid",
	"obs_gt", "model_gt", "delta_gt",
	"mean_bias", "mean_error", "frac_bias", "frac_error",
	"slope", "intercept", "r_squared", "output",
}

// row formats the report as a summary table row.
func (rep FileReport) row() []string {
	if rep.Err != nil {
		row := make([]string, len(summaryHeader))
		row[0] = rep.File
		row[1] = rep.Err.Error()
		return row
	}
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	s := rep.Summary
	return []string{
		rep.File, "ok",
		strconv.Itoa(s.N), strconv.Itoa(s.Invalid),
		g(s.ObsGt), g(s.ModelGt), g(s.DeltaGt),
		g(s.MeanBias), g(s.MeanError), g(s.FracBias), g(s.FracError),
		g(s.Slope), g(s.Intercept), g(s.RSquared), rep.Output,
	}
}

// writeSummary writes the batch summary table to summary.csv in the output
// directory, and to summary.xlsx as well if configured.
func (c *Config) writeSummary(r *BatchReport) error {
	rows := [][]string{summaryHeader}
	for _, rep := range r.Files {
		rows = append(rows, rep.row())
	}

	path := filepath.Join(c.OutputDir, "summary.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}

	if !c.Xlsx {
		return nil
	}
	path = filepath.Join(c.OutputDir, "summary.xlsx")
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("summary")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	for _, row := range rows {
		xr := sheet.AddRow()
		for _, v := range row {
			xr.AddCell().SetString(v)
		}
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
