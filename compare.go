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

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/atmos/evalstats"
)

// ErrIndexMismatch is returned when two mass-change estimates do not cover
// the same mascons.
var ErrIndexMismatch = errors.New("gravimass: mass-change estimates cover different mascons")

// A Comparison holds the per-mascon difference between modeled and
// observed mass change over a shared window.
type Comparison struct {
	Region  Region
	Window  Window
	Indices []int

	// Obs, Model, and Delta are per-mascon mass changes in centimeters
	// water equivalent, with Delta = Model - Obs. NaN marks a mascon
	// the model estimate could not be computed for.
	Obs, Model, Delta []float64

	// ObsGt, ModelGt, and DeltaGt are the same changes in gigatonnes.
	ObsGt, ModelGt, DeltaGt []float64

	// Coverage is the model estimate's footprint coverage diagnostic.
	Coverage []float64
}

// Compare differences model and observation mass-change estimates per
// mascon. The two estimates must cover identical mascon sets for the same
// region and window; this holds when both were computed from the same
// region-filtered catalog.
func Compare(model, obs *MassChange) (*Comparison, error) {
	if model.Region != obs.Region {
		return nil, fmt.Errorf("%w: model estimates are for %s, observations for %s",
			ErrIndexMismatch, model.Region, obs.Region)
	}
	if model.Window != obs.Window {
		return nil, fmt.Errorf("%w: model window is %v to %v, observation window %v to %v",
			ErrIndexMismatch, model.Window.Start, model.Window.End, obs.Window.Start, obs.Window.End)
	}
	if len(model.Indices) != len(obs.Indices) {
		return nil, fmt.Errorf("%w: %d model mascons, %d observed",
			ErrIndexMismatch, len(model.Indices), len(obs.Indices))
	}
	for j := range model.Indices {
		if model.Indices[j] != obs.Indices[j] {
			return nil, fmt.Errorf("%w: position %d holds mascon %d in the model set but %d in the observed set",
				ErrIndexMismatch, j, model.Indices[j], obs.Indices[j])
		}
	}
	c := &Comparison{
		Region:   model.Region,
		Window:   model.Window,
		Indices:  model.Indices,
		Obs:      obs.Cmwe,
		Model:    model.Cmwe,
		Delta:    make([]float64, len(model.Indices)),
		ObsGt:    obs.Gt,
		ModelGt:  model.Gt,
		DeltaGt:  make([]float64, len(model.Indices)),
		Coverage: model.Coverage,
	}
	for j := range c.Delta {
		c.Delta[j] = model.Cmwe[j] - obs.Cmwe[j]
		c.DeltaGt[j] = model.Gt[j] - obs.Gt[j]
	}
	return c, nil
}

// A Summary holds summary statistics for one comparison.
type Summary struct {
	// N counts mascons with valid estimates on both sides; Invalid
	// counts the rest.
	N, Invalid int

	// ObsGt, ModelGt, and DeltaGt are regional totals in gigatonnes
	// over the valid mascons.
	ObsGt, ModelGt, DeltaGt float64

	// MeanBias and MeanError are the mean and mean absolute delta
	// (cm water equivalent); FracBias and FracError are the mean
	// fractional bias and error in percent.
	MeanBias, MeanError, FracBias, FracError float64

	// Slope, Intercept, and RSquared describe the least-squares fit of
	// the model estimates against the observations.
	Slope, Intercept, RSquared float64
}

// Summarize computes summary statistics over the mascons holding valid
// estimates on both sides of the comparison.
func (c *Comparison) Summarize() Summary {
	var obs, model []float64
	var s Summary
	for j := range c.Delta {
		if math.IsNaN(c.Delta[j]) {
			continue
		}
		obs = append(obs, c.Obs[j])
		model = append(model, c.Model[j])
		s.ObsGt += c.ObsGt[j]
		s.ModelGt += c.ModelGt[j]
		s.DeltaGt += c.DeltaGt[j]
	}
	s.N = len(obs)
	s.Invalid = len(c.Delta) - s.N
	if s.N == 0 {
		return s
	}
	s.MeanBias = evalstats.MB(obs, model)
	s.MeanError = evalstats.ME(obs, model)
	s.FracBias = evalstats.MFB(obs, model) * 100.
	s.FracError = evalstats.MFE(obs, model) * 100.
	if s.N > 1 {
		s.Slope, s.Intercept, s.RSquared, _, _, _ = stats.LinearRegression(obs, model)
	}
	return s
}
