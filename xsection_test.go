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
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats/scalar"
)

// twoPartRoute has disjoint parts with contiguous measures: part 0
// covers [0,10], part 1 covers [10,20].
func twoPartRoute(t *testing.T) *Route {
	t.Helper()
	s := new(Synthesizer)
	r, err := s.Build("gap", geom.MultiLineString{
		{{X: 0, Y: 0}, {X: 10, Y: 0}},
		{{X: 20, Y: 5}, {X: 30, Y: 5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestCrossSections(t *testing.T) {
	r := elbowRoute(t)
	sections, errs := CrossSections(r, []float64{5, 15}, SymmetricCrossSection(8))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sections) != 2 {
		t.Fatalf("have %d sections, want 2", len(sections))
	}

	// At measure 5 travel is east, so the section runs from the left
	// (north) side to the right (south).
	xs := sections[0]
	if len(xs.Line) != 2 {
		t.Fatalf("section has %d vertices, want 2", len(xs.Line))
	}
	if !xs.Line[0].Equals(geom.Point{X: 5, Y: 4}) {
		t.Errorf("left end: have %+v, want (5,4)", xs.Line[0])
	}
	if !xs.Line[1].Equals(geom.Point{X: 5, Y: -4}) {
		t.Errorf("right end: have %+v, want (5,-4)", xs.Line[1])
	}
	if xs.Name != "A_0" {
		t.Errorf("name: have %s, want A_0", xs.Name)
	}

	// Every section is exactly perpendicular to the local tangent
	// and exactly LeftLength+RightLength long.
	for i, m := range []float64{5, 15} {
		xs := sections[i]
		loc, err := r.LocateFirst(m)
		if err != nil {
			t.Fatal(err)
		}
		tan, err := r.TangentAt(loc)
		if err != nil {
			t.Fatal(err)
		}
		dx := xs.Line[1].X - xs.Line[0].X
		dy := xs.Line[1].Y - xs.Line[0].Y
		if dot := tan.X*dx + tan.Y*dy; !scalar.EqualWithinAbs(dot, 0, testTolerance) {
			t.Errorf("section %d not perpendicular: dot product %g", i, dot)
		}
		if l := segmentLength(xs.Line[0], xs.Line[1]); !scalar.EqualWithinAbs(l, 8, testTolerance) {
			t.Errorf("section %d length: have %g, want 8", i, l)
		}
	}
}

func TestCrossSectionsAsymmetric(t *testing.T) {
	r := elbowRoute(t)
	sections, errs := CrossSections(r, []float64{5},
		CrossSectionOpts{LeftLength: 1, RightLength: 3})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	xs := sections[0]
	if !xs.Line[0].Equals(geom.Point{X: 5, Y: 1}) || !xs.Line[1].Equals(geom.Point{X: 5, Y: -3}) {
		t.Errorf("have %+v, want (5,1)-(5,-3)", xs.Line)
	}
}

func TestCrossSectionPartBoundary(t *testing.T) {
	r := twoPartRoute(t)

	// Measure 10 is the boundary between the parts: the tangent is
	// defined on only one side. Strict mode reports it...
	_, errs := CrossSections(r, []float64{10}, SymmetricCrossSection(4))
	if len(errs) != 1 {
		t.Fatalf("have %d errors, want 1", len(errs))
	}
	if _, ok := errs[0].Err.(*UndefinedTangentError); !ok {
		t.Errorf("have %T, want *UndefinedTangentError", errs[0].Err)
	}

	// ...and the fallback uses the one-sided segment direction.
	opts := SymmetricCrossSection(4)
	opts.FallbackTangent = true
	sections, errs := CrossSections(r, []float64{10}, opts)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	xs := sections[0]
	if !xs.Line[0].Equals(geom.Point{X: 10, Y: 2}) || !xs.Line[1].Equals(geom.Point{X: 10, Y: -2}) {
		t.Errorf("have %+v, want (10,2)-(10,-2)", xs.Line)
	}
}

func TestCrossSectionFailuresDoNotAbort(t *testing.T) {
	r := elbowRoute(t)
	sections, errs := CrossSections(r, []float64{5, 99, 15}, SymmetricCrossSection(2))
	if len(sections) != 2 {
		t.Errorf("have %d sections, want 2", len(sections))
	}
	if len(errs) != 1 {
		t.Fatalf("have %d errors, want 1", len(errs))
	}
	if errs[0].Feature != 1 {
		t.Errorf("error feature: have %d, want 1", errs[0].Feature)
	}
	if _, ok := errs[0].Err.(*MeasureOutOfRangeError); !ok {
		t.Errorf("have %T, want *MeasureOutOfRangeError", errs[0].Err)
	}
}

func TestIntervalCrossSections(t *testing.T) {
	r := elbowRoute(t)
	sections, err := IntervalCrossSections(r,
		IntervalSpec{Start: 0, End: 20, Distance: 5}, SymmetricCrossSection(6))
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 5 {
		t.Fatalf("have %d sections, want 5", len(sections))
	}
	for i, xs := range sections {
		if l := segmentLength(xs.Line[0], xs.Line[1]); !scalar.EqualWithinAbs(l, 6, testTolerance) {
			t.Errorf("section %d length: have %g, want 6", i, l)
		}
	}
	// Section names carry the route and station sequence.
	if sections[2].Name != "A_2" {
		t.Errorf("name: have %s, want A_2", sections[2].Name)
	}
}
