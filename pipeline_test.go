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
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"
)

// quietLogger returns a logger whose output is discarded.
func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

// writeBatchInputs writes the testCatalog mascon catalog and the named
// model files into dir. The model grid covers both Greenland mascons and
// loses 0.5 m of thickness over the window 2002-01-15 to 2002-03-16.
func writeBatchInputs(t *testing.T, dir string, models ...string) {
	if err := WriteMascons(filepath.Join(dir, "mascons.nc"), testCatalog()); err != nil {
		t.Fatal(err)
	}
	var x, y []float64
	for i := 0; i < 8; i++ {
		x = append(x, -75000+50000*float64(i))
	}
	for j := 0; j < 10; j++ {
		y = append(y, -2425000+50000*float64(j))
	}
	thickness := make([]float32, 2*len(y)*len(x))
	for i := range thickness {
		if i < len(y)*len(x) {
			thickness[i] = 100
		} else {
			thickness[i] = 99.25
		}
	}
	for _, m := range models {
		writeModelFile(t, filepath.Join(dir, m), modelFileSpec{
			x: x, y: y, times: []float64{0, 90}, thickness: thickness,
			timeUnits: "days since 2001-12-31", calendar: "standard",
		})
	}
}

func batchConfig(dir string) *Config {
	return &Config{
		MasconFile:  filepath.Join(dir, "mascons.nc"),
		ModelFiles:  []string{filepath.Join(dir, "model*.nc")},
		Region:      "GIS",
		WindowStart: "2002-01-15",
		WindowEnd:   "2002-03-16",
		OutputDir:   filepath.Join(dir, "out"),
		Log:         quietLogger(),
	}
}

func TestRunBatch(t *testing.T) {
	dir, err := ioutil.TempDir("", "gravimass")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	writeBatchInputs(t, dir, "model1.nc", "model2.nc")
	c := batchConfig(dir)
	c.Shapefile = true
	c.Xlsx = true
	report, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 2 {
		t.Fatalf("got %d file reports, want 2", len(report.Files))
	}
	for _, rep := range report.Files {
		if rep.Err != nil {
			t.Fatalf("%s: %v", rep.File, rep.Err)
		}
		if rep.Summary.N != 2 || rep.Summary.Invalid != 0 {
			t.Errorf("%s: N = %d, Invalid = %d, want 2 and 0",
				rep.File, rep.Summary.N, rep.Summary.Invalid)
		}
		// A 0.5 m loss is -45.9 cm water equivalent against observed
		// anomalies of -3 and -2.
		if different(rep.Summary.MeanBias, -43.4, 1.e-9) {
			t.Errorf("%s: mean bias = %g, want -43.4", rep.File, rep.Summary.MeanBias)
		}
	}

	r, err := LoadResults(report.Files[0].Output)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	cmp, err := r.Comparison()
	if err != nil {
		t.Fatal(err)
	}
	for j, want := range []float64{-42.9, -43.9} {
		if different(cmp.Delta[j], want, 1.e-9) {
			t.Errorf("delta %d = %g, want %g", j, cmp.Delta[j], want)
		}
	}

	base := strings.TrimSuffix(report.Files[0].Output, ".nc")
	for _, ext := range []string{".shp", ".prj"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s", base+ext)
		}
	}

	xl, err := xlsx.OpenFile(filepath.Join(c.OutputDir, "summary.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	sheet, ok := xl.Sheet["summary"]
	if !ok {
		t.Fatal("summary.xlsx has no summary sheet")
	}
	if len(sheet.Rows) != 3 {
		t.Errorf("summary.xlsx has %d rows, want 3", len(sheet.Rows))
	}
}

func TestRunBatchFaultIsolation(t *testing.T) {
	dir, err := ioutil.TempDir("", "gravimass")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	writeBatchInputs(t, dir, "model1.nc", "model3.nc")
	// The second model file lacks the thickness field.
	writeModelFile(t, filepath.Join(dir, "model2.nc"),
		modelFileSpec{omit: map[string]bool{varThickness: true}})

	c := batchConfig(dir)
	report, err := c.Run()
	if err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("got %v, want a 1-of-3 failure", err)
	}
	if len(report.Files) != 3 {
		t.Fatalf("got %d file reports, want 3", len(report.Files))
	}
	bad := report.Files[1]
	if bad.File != filepath.Join(dir, "model2.nc") {
		t.Fatalf("second file is %s, want model2.nc", bad.File)
	}
	if !errors.Is(bad.Err, ErrMissingVariable) {
		t.Errorf("got %v, want ErrMissingVariable", bad.Err)
	}
	if bad.Output != "" {
		t.Errorf("failed file reports output %s", bad.Output)
	}
	for _, i := range []int{0, 2} {
		rep := report.Files[i]
		if rep.Err != nil {
			t.Errorf("%s: %v", rep.File, rep.Err)
		}
		if _, err := os.Stat(rep.Output); err != nil {
			t.Errorf("missing output for %s: %v", rep.File, err)
		}
	}
	out2 := OutputFilename(c.OutputDir, filepath.Join(dir, "model2.nc"))
	if _, err := os.Stat(out2); !os.IsNotExist(err) {
		t.Error("output written for the failed file")
	}

	f, err := os.Open(filepath.Join(c.OutputDir, "summary.csv"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("summary.csv has %d rows, want 4", len(records))
	}
	if diff := pretty.Diff(records[0], summaryHeader); len(diff) > 0 {
		t.Error(diff)
	}
	if records[1][1] != "ok" || records[3][1] != "ok" {
		t.Errorf("good files have statuses %q and %q, want ok", records[1][1], records[3][1])
	}
	if !strings.Contains(records[2][1], "missing variable") {
		t.Errorf("failed file has status %q", records[2][1])
	}
}

func TestRunBatchStage(t *testing.T) {
	dir, err := ioutil.TempDir("", "gravimass")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	writeBatchInputs(t, dir, "model1.nc")

	var staged []string
	c := batchConfig(dir)
	c.MasconFile = "mem://mascons.nc"
	c.ModelFiles = []string{"mem://model1.nc"}
	c.Stage = func(path string) (string, error) {
		staged = append(staged, path)
		return filepath.Join(dir, strings.TrimPrefix(path, "mem://")), nil
	}
	report, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 1 || report.Files[0].Err != nil {
		t.Fatalf("unexpected report %+v", report)
	}
	if diff := pretty.Diff(staged, []string{"mem://mascons.nc", "mem://model1.nc"}); len(diff) > 0 {
		t.Error(diff)
	}
	// The output keeps the remote file's name.
	if got := filepath.Base(report.Files[0].Output); got != "model1_mascon_cmp.nc" {
		t.Errorf("output name = %s, want model1_mascon_cmp.nc", got)
	}
}

func TestRunBatchConfigErrors(t *testing.T) {
	dir, err := ioutil.TempDir("", "gravimass")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	writeBatchInputs(t, dir, "model1.nc")

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error  // sentinel, or nil to check the message instead
		substr string // message fragment when want is nil
	}{
		{"region", func(c *Config) { c.Region = "XIS" }, ErrUnsupportedRegion, ""},
		{"window start", func(c *Config) { c.WindowStart = "not-a-date" }, nil, "window start"},
		{"catalog", func(c *Config) { c.MasconFile = filepath.Join(dir, "none.nc") }, ErrFileNotFound, ""},
		{"no files", func(c *Config) { c.ModelFiles = []string{filepath.Join(dir, "nomatch*.nc")} }, nil, "no model files"},
		{"window range", func(c *Config) { c.WindowStart = "2005-01-01"; c.WindowEnd = "2006-01-01" }, ErrOutOfRangeWindow, ""},
	}
	for _, test := range tests {
		c := batchConfig(dir)
		test.mutate(c)
		_, err := c.Run()
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
			continue
		}
		if test.want != nil && !errors.Is(err, test.want) {
			t.Errorf("%s: got %v, want %v", test.name, err, test.want)
		}
		if test.substr != "" && !strings.Contains(err.Error(), test.substr) {
			t.Errorf("%s: got %v, want message containing %q", test.name, err, test.substr)
		}
	}
}
