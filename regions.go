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
	"strings"

	"github.com/ctessum/geom/proj"
)

// ErrUnsupportedRegion is returned for region identifiers outside the
// supported set.
var ErrUnsupportedRegion = errors.New("gravimass: unsupported region")

// Region identifies one of the supported ice sheets.
type Region string

// The supported ice sheet regions.
const (
	Greenland  Region = "GIS"
	Antarctica Region = "AIS"
)

// Projection definitions for the ISMIP6 polar stereographic grids:
// EPSG:3413 for Greenland and EPSG:3031 for Antarctica.
const (
	projGIS = "+proj=stere +lat_0=90 +lat_ts=70 +lon_0=-45 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs"
	projAIS = "+proj=stere +lat_0=-90 +lat_ts=-71 +lon_0=0 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs"

	wktGIS = `PROJCS["WGS 84 / NSIDC Sea Ice Polar Stereographic North",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Polar_Stereographic"],PARAMETER["latitude_of_origin",70],PARAMETER["central_meridian",-45],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`
	wktAIS = `PROJCS["WGS 84 / Antarctic Polar Stereographic",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Polar_Stereographic"],PARAMETER["latitude_of_origin",-71],PARAMETER["central_meridian",0],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`
)

// GSFC mascon location codes for land ice in each region.
const (
	locationGIS = 80
	locationAIS = 90
)

// ParseRegion converts a region identifier string to a Region.
func ParseRegion(s string) (Region, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GIS":
		return Greenland, nil
	case "AIS":
		return Antarctica, nil
	}
	return "", fmt.Errorf("%w: %q (supported regions are GIS and AIS)", ErrUnsupportedRegion, s)
}

func (r Region) String() string { return string(r) }

// Projection returns the fixed ISMIP6 polar stereographic projection
// for the region.
func (r Region) Projection() (*proj.SR, error) {
	switch r {
	case Greenland:
		return proj.Parse(projGIS)
	case Antarctica:
		return proj.Parse(projAIS)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedRegion, string(r))
}

// WKT returns the well-known-text form of the region's projection, suitable
// for a shapefile .prj.
func (r Region) WKT() (string, error) {
	switch r {
	case Greenland:
		return wktGIS, nil
	case Antarctica:
		return wktAIS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedRegion, string(r))
}

// LocationCode returns the GSFC mascon location code identifying land-ice
// mascons belonging to the region.
func (r Region) LocationCode() (int, error) {
	switch r {
	case Greenland:
		return locationGIS, nil
	case Antarctica:
		return locationAIS, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedRegion, string(r))
}

// GridTransforms returns transformations between geographic coordinates
// (degrees) and the region's projected grid coordinates (meters).
func (r Region) GridTransforms() (toGrid, toGeographic proj.Transformer, err error) {
	sr, err := r.Projection()
	if err != nil {
		return nil, nil, err
	}
	forward, inverse, err := polarStereographic(sr)
	if err != nil {
		return nil, nil, err
	}
	toGrid = func(lon, lat float64) (x, y float64, err error) {
		return forward(lon*deg2rad, lat*deg2rad)
	}
	toGeographic = func(x, y float64) (lon, lat float64, err error) {
		lon, lat, err = inverse(x, y)
		return lon * rad2deg, lat * rad2deg, err
	}
	return toGrid, toGeographic, nil
}
