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
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
)

// The proj package in use registers no stereographic transform, so the polar
// aspect needed for the ISMIP6 grids is implemented here following the USGS
// equations (Snyder 1987, ch. 21) in the same form as that package's
// registered projections.

const (
	deg2rad = math.Pi / 180.
	rad2deg = 180. / math.Pi

	stereEps = 1.e-10
)

// polarStereographic creates forward (lon/lat radians to x/y meters) and
// inverse transformers for an ellipsoidal polar stereographic projection.
// The latitude of origin must be one of the poles; the scale factor is
// derived from the true-scale latitude when one is given.
func polarStereographic(this *proj.SR) (forward, inverse proj.Transformer, err error) {
	if math.IsNaN(this.X0) {
		this.X0 = 0
	}
	if math.IsNaN(this.Y0) {
		this.Y0 = 0
	}
	if math.IsNaN(this.K0) {
		this.K0 = 1
	}
	if math.Abs(math.Cos(this.Lat0)) > stereEps {
		err = fmt.Errorf("gravimass: polar stereographic requires lat_0 at a pole, got %g rad", this.Lat0)
		return
	}

	temp := this.B / this.A
	this.E = math.Sqrt(1 - temp*temp)
	e := this.E

	// con is +1 for the north polar aspect and -1 for the south.
	con := 1.
	if this.Lat0 < 0 {
		con = -1
	}
	cons := math.Sqrt(math.Pow(1+e, 1+e) * math.Pow(1-e, 1-e))
	k0 := this.K0
	if k0 == 1 && !math.IsNaN(this.LatTS) && math.Abs(this.LatTS) < halfPi-stereEps {
		// Scale factor from the latitude of true scale.
		sinTS := math.Sin(this.LatTS)
		cosTS := math.Cos(this.LatTS)
		k0 = 0.5 * cons * msfnz(e, sinTS, cosTS) / tsfnz(e, con*this.LatTS, con*sinTS)
	}

	forward = func(lon, lat float64) (x, y float64, err error) {
		sinlat := math.Sin(lat)
		ts := tsfnz(e, con*lat, con*sinlat)
		rh := 2 * this.A * k0 * ts / cons
		dlon := adjustLon(lon - this.Long0)
		x = this.X0 + rh*math.Sin(dlon)
		y = this.Y0 - con*rh*math.Cos(dlon)
		return
	}

	inverse = func(x, y float64) (lon, lat float64, err error) {
		x = con * (x - this.X0)
		y = con * (y - this.Y0)
		rh := math.Sqrt(x*x + y*y)
		if rh <= stereEps {
			return this.Long0, con * halfPi, nil
		}
		ts := rh * cons / (2 * this.A * k0)
		phi, err := phi2z(e, ts)
		if err != nil {
			return 0, 0, fmt.Errorf("gravimass: polar stereographic inverse: %v", err)
		}
		lat = con * phi
		lon = con * adjustLon(con*this.Long0+math.Atan2(x, -y))
		return
	}
	return
}

const (
	twoPi  = math.Pi * 2
	halfPi = math.Pi / 2
	// sPi exceeds pi by enough that longitudes drifted across the 180th
	// meridian by floating point error do not get wrapped.
	sPi = 3.14159265359
)

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func adjustLon(x float64) float64 {
	if math.Abs(x) <= sPi {
		return x
	}
	return x - sign(x)*twoPi
}

func msfnz(eccent, sinphi, cosphi float64) float64 {
	con := eccent * sinphi
	return cosphi / math.Sqrt(1-con*con)
}

func tsfnz(eccent, phi, sinphi float64) float64 {
	con := eccent * sinphi
	com := 0.5 * eccent
	con = math.Pow((1-con)/(1+con), com)
	return math.Tan(0.5*(halfPi-phi)) / con
}

func phi2z(eccent, ts float64) (float64, error) {
	eccnth := 0.5 * eccent
	phi := halfPi - 2*math.Atan(ts)
	for i := 0; i <= 15; i++ {
		con := eccent * math.Sin(phi)
		dphi := halfPi - 2*math.Atan(ts*math.Pow((1-con)/(1+con), eccnth)) - phi
		phi += dphi
		if math.Abs(dphi) <= stereEps {
			return phi, nil
		}
	}
	return math.NaN(), fmt.Errorf("phi2z has no convergence")
}
