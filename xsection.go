/*
Copyright © 2026 the LinearRef authors.
This file is part of LinearRef.

LinearRef is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

LinearRef is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with LinearRef.  If not, see <http://www.gnu.org/licenses/>.
*/

package linearref

import (
	"fmt"

	"github.com/ctessum/geom"
)

// CrossSection is a straight line crossing a route perpendicular to
// the local direction of travel at one station. The line has exactly
// two vertices and is drawn from the left side of the route to the
// right, relative to the direction of travel.
type CrossSection struct {
	RouteID RouteID
	Measure float64
	Name    string
	Line    geom.LineString
}

// CrossSectionOpts configures cross-section generation.
type CrossSectionOpts struct {
	// LeftLength and RightLength are how far the section extends to
	// each side of the route. They need not be equal.
	LeftLength, RightLength float64
	// FallbackTangent allows a station at the boundary vertex
	// between two disjoint parts, where the direction of travel is
	// defined on only one side, to use that one-sided direction.
	// When unset such stations fail with an UndefinedTangentError.
	FallbackTangent bool
}

// SymmetricCrossSection returns options for sections of the given
// total width, extending width/2 to each side of the route.
func SymmetricCrossSection(width float64) CrossSectionOpts {
	return CrossSectionOpts{LeftLength: width / 2, RightLength: width / 2}
}

// crossSectionAt builds the section for one resolved station.
func crossSectionAt(r *Route, loc RouteLocation, name string, opts CrossSectionOpts) (CrossSection, error) {
	tan, err := r.tangentAt(loc, !opts.FallbackTangent)
	if err != nil {
		return CrossSection{}, err
	}
	n := leftNormal(tan)
	left := geom.Point{X: loc.Point.X + n.X*opts.LeftLength, Y: loc.Point.Y + n.Y*opts.LeftLength}
	right := geom.Point{X: loc.Point.X - n.X*opts.RightLength, Y: loc.Point.Y - n.Y*opts.RightLength}
	return CrossSection{
		RouteID: r.ID,
		Measure: loc.Measure,
		Name:    name,
		Line:    geom.LineString{left, right},
	}, nil
}

// CrossSections emits one perpendicular section per station measure,
// in input order. Stations that fail to resolve, or whose tangent is
// undefined, are reported in the returned error list; they never abort
// the batch.
func CrossSections(r *Route, measures []float64, opts CrossSectionOpts) ([]CrossSection, []LocateError) {
	var sections []CrossSection
	var errs []LocateError
	for i, m := range measures {
		loc, err := r.LocateFirst(m)
		if err != nil {
			errs = append(errs, LocateError{Feature: i, Err: err})
			continue
		}
		name := fmt.Sprintf("%s_%d", r.ID, i)
		xs, err := crossSectionAt(r, loc, name, opts)
		if err != nil {
			errs = append(errs, LocateError{Feature: i, Err: err})
			continue
		}
		sections = append(sections, xs)
	}
	return sections, errs
}

// IntervalCrossSections generates sections at every station of an
// interval sequence over r. A station resolution failure aborts the
// sequence and is returned along with the sections generated so far.
func IntervalCrossSections(r *Route, spec IntervalSpec, opts CrossSectionOpts) ([]CrossSection, error) {
	seq, err := NewStationSeq(r, spec)
	if err != nil {
		return nil, err
	}
	var sections []CrossSection
	for seq.Next() {
		st := seq.Station()
		loc, err := r.LocateFirst(st.Measure)
		if err != nil {
			return sections, err
		}
		xs, err := crossSectionAt(r, loc, st.Label, opts)
		if err != nil {
			return sections, err
		}
		sections = append(sections, xs)
	}
	return sections, seq.Err()
}
