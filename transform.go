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
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

type gridCell struct {
	geom.Polygon
	row int
}

// newCellIndex builds a spatial index of the grid cells that hold data in
// the change field d, for footprint overlap searches.
func newCellIndex(g *ModelGrid, d *sparse.DenseArray) *rtree.Rtree {
	tree := rtree.NewTree(25, 50)
	nx := g.Nx()
	for iy := 0; iy < g.Ny(); iy++ {
		for ix := 0; ix < nx; ix++ {
			if math.IsNaN(d.Elements[iy*nx+ix]) {
				continue
			}
			tree.Insert(gridCell{Polygon: g.CellPolygon(iy, ix), row: iy*nx + ix})
		}
	}
	return tree
}

// masconOverlap returns the grid cells overlapping the projected mascon
// footprint, with each cell weighted by its share of the overlapping area
// so the weights sum to 1. Coverage is the fraction of the footprint
// covered by cells holding data.
func masconOverlap(tree *rtree.Rtree, footprint geom.Polygon) (rows []int, weights []float64, coverage float64) {
	for _, cI := range tree.SearchIntersect(footprint.Bounds()) {
		cell := cI.(gridCell)
		isect := footprint.Intersection(cell)
		if isect == nil {
			continue
		}
		if a := isect.Area(); a > 0 {
			rows = append(rows, cell.row)
			weights = append(weights, a)
		}
	}
	covered := floats.Sum(weights)
	if covered == 0 {
		return nil, nil, 0
	}
	for i := range weights {
		weights[i] /= covered
	}
	return rows, weights, covered / footprint.Area()
}

// masconChange computes one mascon's footprint-average thickness change
// converted to centimeters water equivalent. It returns NaN when the
// footprint cannot be projected or no model data overlaps it.
func masconChange(tree *rtree.Rtree, c *MasconCatalog, i int, toGrid proj.Transformer,
	dthick *sparse.DenseArray, rhoIce, rhoWater float64) (cmwe, coverage float64) {
	fpI, err := c.Footprint(i).Transform(toGrid)
	if err != nil {
		return math.NaN(), 0
	}
	fp, ok := fpI.(geom.Polygon)
	if !ok {
		return math.NaN(), 0
	}
	rows, weights, cov := masconOverlap(tree, fp)
	if len(rows) == 0 {
		return math.NaN(), 0
	}
	var d float64
	for j, r := range rows {
		d += weights[j] * dthick.Elements[r]
	}
	return CmWaterEquivalent(d, rhoIce, rhoWater), cov
}

// ModelMassChange expresses a model run's thickness change over the window
// in the catalog's mascon basis. For each mascon, the footprint is
// projected into the model's grid coordinates, the thickness change is
// averaged over the footprint with cells weighted by overlap area, and the
// average is converted to centimeters water equivalent using the given
// densities (kg/m3; zero values take the defaults).
//
// Two estimates are returned: trimmed covers only the mascons in the given
// region, matching what ObservedMassChange returns for the same catalog,
// and full covers every mascon the catalog defines, as a diagnostic.
// Mascons whose footprints cannot be projected or that no model data
// overlaps hold NaN rather than failing the run.
func ModelMassChange(g *ModelGrid, c *MasconCatalog, region Region, window Window,
	rhoIce, rhoWater float64) (trimmed, full *MassChange, err error) {
	indices, err := c.RegionIndices(region)
	if err != nil {
		return nil, nil, err
	}
	toGrid, _, err := region.GridTransforms()
	if err != nil {
		return nil, nil, err
	}
	dthick, err := g.ThicknessChange(window)
	if err != nil {
		return nil, nil, err
	}
	tree := newCellIndex(g, dthick)

	n := c.Len()
	cmwe := make([]float64, n)
	coverage := make([]float64, n)
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for i := pp; i < n; i += nprocs {
				cmwe[i], coverage[i] = masconChange(tree, c, i, toGrid, dthick, rhoIce, rhoWater)
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()

	full = &MassChange{
		Region:   region,
		Window:   window,
		Indices:  make([]int, n),
		Cmwe:     cmwe,
		Gt:       make([]float64, n),
		Coverage: coverage,
	}
	for i := range full.Indices {
		full.Indices[i] = i
		full.Gt[i] = Gigatonnes(cmwe[i], c.AreaKm2[i])
	}
	trimmed = &MassChange{
		Region:   region,
		Window:   window,
		Indices:  indices,
		Cmwe:     make([]float64, len(indices)),
		Gt:       make([]float64, len(indices)),
		Coverage: make([]float64, len(indices)),
	}
	for j, i := range indices {
		trimmed.Cmwe[j] = full.Cmwe[i]
		trimmed.Gt[j] = full.Gt[i]
		trimmed.Coverage[j] = full.Coverage[i]
	}
	return trimmed, full, nil
}
