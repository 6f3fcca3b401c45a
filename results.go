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
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/requestcache"
)

// Results allows interaction with a NetCDF comparison result file written
// by WriteComparison.
type Results struct {
	cdf.File

	// Region and Window identify the comparison the file holds.
	Region Region
	Window Window

	// Indices are the catalog indices of the mascons in the file, in
	// record order.
	Indices []int

	// CacheSize specifies the number of variables to be held in the
	// memory cache. It can only be changed before the first Variable
	// call. The default is 20.
	CacheSize int

	varCache *requestcache.Cache
	varInit  sync.Once

	closer     io.Closer
	footprints []geom.Polygon
	tree       *rtree.Rtree
}

type masconShape struct {
	geom.Polygon
	pos int
}

// LoadResults opens the comparison result file at path.
func LoadResults(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("gravimass: opening results %s: %v", path, err)
	}
	r, err := OpenResults(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gravimass: results %s: %v", path, err)
	}
	r.closer = f
	return r, nil
}

// OpenResults creates a results reader from the NetCDF data specified
// by rw.
func OpenResults(rw cdf.ReaderWriterAt) (*Results, error) {
	cf, err := cdf.Open(rw)
	if err != nil {
		return nil, err
	}
	r := &Results{
		File:      *cf,
		CacheSize: 20,
	}

	attr := func(name string) (s string) {
		if err != nil {
			return
		}
		v := r.Header.GetAttribute("", name)
		if v == nil {
			err = fmt.Errorf("missing global attribute %s", name)
			return
		}
		var ok bool
		if s, ok = v.(string); !ok {
			err = fmt.Errorf("global attribute %s has type %T, want string", name, v)
		}
		return
	}
	region := attr(attrRegion)
	start := attr(attrWindowStart)
	end := attr(attrWindowEnd)
	if err != nil {
		return nil, err
	}
	if r.Region, err = ParseRegion(region); err != nil {
		return nil, err
	}
	if r.Window.Start, err = ParseDate(start); err != nil {
		return nil, err
	}
	if r.Window.End, err = ParseDate(end); err != nil {
		return nil, err
	}

	index, err := r.readVariable(varMasconIndex)
	if err != nil {
		return nil, err
	}
	r.Indices = make([]int, len(index))
	for j, v := range index {
		r.Indices[j] = int(v)
	}

	// Rebuild the mascon footprints in grid coordinates to support
	// spatial searches over the results.
	box := new(MasconCatalog)
	for v, dst := range map[string]*[]float64{
		varLatCenter: &box.LatCenter,
		varLonCenter: &box.LonCenter,
		varLatSpan:   &box.LatSpan,
		varLonSpan:   &box.LonSpan,
	} {
		if *dst, err = r.readVariable(v); err != nil {
			return nil, err
		}
		if len(*dst) != len(r.Indices) {
			return nil, fmt.Errorf("variable %s has length %d, want %d", v, len(*dst), len(r.Indices))
		}
	}
	toGrid, _, err := r.Region.GridTransforms()
	if err != nil {
		return nil, err
	}
	r.footprints = make([]geom.Polygon, len(r.Indices))
	r.tree = rtree.NewTree(25, 50)
	for j := range r.Indices {
		fp, err := box.Footprint(j).Transform(toGrid)
		if err != nil {
			return nil, fmt.Errorf("projecting mascon %d footprint: %v", r.Indices[j], err)
		}
		r.footprints[j] = fp.(geom.Polygon)
		r.tree.Insert(masconShape{Polygon: r.footprints[j], pos: j})
	}
	return r, nil
}

// Close closes the underlying file if the results were opened with
// LoadResults.
func (r *Results) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Len returns the number of mascons in the results.
func (r *Results) Len() int { return len(r.Indices) }

// Geometry returns the mascon footprints in the region's projected
// coordinates, in record order. Any changes to the returned polygons also
// alter the underlying data.
func (r *Results) Geometry() []geom.Polygon { return r.footprints }

// MasconsIntersecting returns the record positions of the mascons whose
// footprints overlap g, which must be in the region's projected
// coordinates.
func (r *Results) MasconsIntersecting(g geom.Polygonal) []int {
	var out []int
	for _, mI := range r.tree.SearchIntersect(g.Bounds()) {
		m := mI.(masconShape)
		if isect := m.Polygon.Intersection(g); isect != nil && isect.Area() > 0 {
			out = append(out, m.pos)
		}
	}
	sort.Ints(out)
	return out
}

// Variable returns the named per-mascon variable. This function uses a
// cache with the size specified by the CacheSize attribute of the receiver
// to speed up repeated requests and is concurrency-safe. Users desiring to
// make changes to the returned values should make a copy first to avoid
// inadvertently editing the cached results.
func (r *Results) Variable(name string) ([]float64, error) {
	r.varInit.Do(func() {
		r.varCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return r.readVariable(request.(string))
		}, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(r.CacheSize))
	})
	req := r.varCache.NewRequest(context.TODO(), name, name)
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.([]float64), nil
}

// Variables returns the data for the variables named by names.
func (r *Results) Variables(names ...string) (map[string][]float64, error) {
	out := make(map[string][]float64)
	for _, name := range names {
		d, err := r.Variable(name)
		if err != nil {
			return nil, err
		}
		out[name] = d
	}
	return out, nil
}

// Comparison reassembles the comparison the file holds.
func (r *Results) Comparison() (*Comparison, error) {
	c := &Comparison{
		Region:  r.Region,
		Window:  r.Window,
		Indices: r.Indices,
	}
	for v, dst := range map[string]*[]float64{
		varObsCmwe:   &c.Obs,
		varModelCmwe: &c.Model,
		varDeltaCmwe: &c.Delta,
		varObsGt:     &c.ObsGt,
		varModelGt:   &c.ModelGt,
		varDeltaGt:   &c.DeltaGt,
		varCoverage:  &c.Coverage,
	} {
		var err error
		if *dst, err = r.Variable(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// readVariable reads a numeric per-mascon variable in full.
func (r *Results) readVariable(name string) ([]float64, error) {
	found := false
	for _, v := range r.Header.Variables() {
		if v == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("results file has no variable %s", name)
	}
	return readVar64(&r.File, name)
}
