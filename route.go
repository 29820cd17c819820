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

// Package linearref converts between planar geometry and route-measure
// coordinates. A Route pairs a (possibly multi-part) polyline with a
// measure value at every vertex; the package locates measures along
// routes, resolves points to measures, builds event tables, synthesizes
// length-calibrated routes, and generates interval stations and
// cross-sections.
package linearref

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"gonum.org/v1/gonum/floats"
)

// RouteID identifies a route within a dataset. Multiple named routes
// may coexist in one dataset, so every output row carries the ID of
// the route it was resolved against.
type RouteID string

// calSegment is one calibrated segment of a route: a straight piece
// of geometry together with the measures at its two ends. Measures
// are assumed to vary linearly within a segment. The embedded
// two-vertex line satisfies geom.Geom so segments can live in the
// spatial index directly.
type calSegment struct {
	geom.LineString

	part, seg int // part index, and starting-vertex index within the part
	p0, p1    geom.Point
	m0, m1    float64
	length    float64
}

func (s *calSegment) direction() (geom.Point, bool) { return unit(s.p0, s.p1) }

// contains reports whether m falls within the segment's measure range,
// which may run in either direction.
func (s *calSegment) contains(m float64) bool {
	if s.m0 <= s.m1 {
		return s.m0 <= m && m <= s.m1
	}
	return s.m1 <= m && m <= s.m0
}

// MeasureRange is a measure interval within one part of a route over
// which the vertex measures run against the part's dominant direction,
// so inverse queries in the interval have multiple valid answers.
type MeasureRange struct {
	Part   int
	Lo, Hi float64
}

// Route is a calibrated route: a multi-part polyline with a measure
// value at every vertex. Measures need not be monotonic; non-monotonic
// regions are detected at construction and reported by
// NonMonotonicRanges rather than silently resolved.
//
// A Route is built fresh per operation and holds no shared mutable
// state, so it is safe for concurrent read-only use.
type Route struct {
	ID       RouteID
	Geometry geom.MultiLineString

	// Extrapolate enables linear extrapolation past the route ends:
	// Locate accepts measures beyond the calibrated range, and
	// MeasureOf accepts points projecting beyond the first or last
	// vertex (within tolerance), extending the nearest end segment.
	// Off by default.
	Extrapolate bool

	measures   [][]float64 // per part, per vertex
	segs       []*calSegment
	index      *rtree.Rtree
	nonMono    []MeasureRange
	minM, maxM float64
}

// NewRoute calibrates polyline p with the given per-part, per-vertex
// measures. Each part must have at least two vertices, at least two of
// which must be distinct, and all coordinates must be finite.
// Zero-length segments are tolerated but excluded from calibration.
func NewRoute(id RouteID, p geom.MultiLineString, measures [][]float64) (*Route, error) {
	if len(p) == 0 {
		return nil, &DegenerateGeometryError{Part: -1, Reason: "no parts"}
	}
	if len(measures) != len(p) {
		return nil, &MeasureCountMismatchError{Part: -1, Vertices: len(p), Measures: len(measures)}
	}
	r := &Route{
		ID:       id,
		Geometry: p,
		measures: measures,
		index:    rtree.NewTree(25, 50),
	}
	var all []float64
	for pi, part := range p {
		if len(part) < 2 {
			return nil, &DegenerateGeometryError{Part: pi, Reason: "fewer than 2 vertices"}
		}
		if len(measures[pi]) != len(part) {
			return nil, &MeasureCountMismatchError{
				Part: pi, Vertices: len(part), Measures: len(measures[pi]),
			}
		}
		nSegs := 0
		for vi, v := range part {
			if !finite(v) {
				return nil, &DegenerateGeometryError{Part: pi, Reason: "non-finite coordinate"}
			}
			m := measures[pi][vi]
			if math.IsNaN(m) || math.IsInf(m, 0) {
				return nil, &DegenerateGeometryError{Part: pi, Reason: "non-finite measure"}
			}
			all = append(all, m)
			if vi == len(part)-1 {
				continue
			}
			l := segmentLength(v, part[vi+1])
			if l == 0 {
				continue // zero-length segment: tolerated, not calibrated
			}
			s := &calSegment{
				LineString: geom.LineString{v, part[vi+1]},
				part:       pi,
				seg:        vi,
				p0:         v,
				p1:         part[vi+1],
				m0:         m,
				m1:         measures[pi][vi+1],
				length:     l,
			}
			r.segs = append(r.segs, s)
			r.index.Insert(s)
			nSegs++
		}
		if nSegs == 0 {
			return nil, &DegenerateGeometryError{Part: pi, Reason: "all vertices coincident"}
		}
	}
	r.minM = floats.Min(all)
	r.maxM = floats.Max(all)
	r.findNonMonotonic()
	return r, nil
}

// findNonMonotonic records, per part, the measure intervals covered by
// vertex runs going against the part's dominant measure direction.
func (r *Route) findNonMonotonic() {
	for pi, ms := range r.measures {
		dir := ms[len(ms)-1] - ms[0]
		if dir == 0 {
			for i := 0; i < len(ms)-1; i++ {
				if d := ms[i+1] - ms[i]; d != 0 {
					dir = d
					break
				}
			}
		}
		if dir == 0 {
			continue // constant measures; nothing to invert anyway
		}
		for i := 0; i < len(ms)-1; {
			if (ms[i+1]-ms[i])*dir >= 0 {
				i++
				continue
			}
			// Extend over the whole reversed run.
			j := i
			lo, hi := ms[i], ms[i]
			for j < len(ms)-1 && (ms[j+1]-ms[j])*dir < 0 {
				lo = math.Min(lo, math.Min(ms[j], ms[j+1]))
				hi = math.Max(hi, math.Max(ms[j], ms[j+1]))
				j++
			}
			r.nonMono = append(r.nonMono, MeasureRange{Part: pi, Lo: lo, Hi: hi})
			i = j
		}
	}
}

// NonMonotonicRanges returns the measure intervals in which the route's
// calibration reverses direction. Inverse queries within these
// intervals return multiple candidates.
func (r *Route) NonMonotonicRanges() []MeasureRange { return r.nonMono }

// Monotonic reports whether the route's measures never reverse.
func (r *Route) Monotonic() bool { return len(r.nonMono) == 0 }

// SpansNonMonotonic reports whether the measure interval [lo, hi]
// overlaps any non-monotonic region of the route.
func (r *Route) SpansNonMonotonic(lo, hi float64) bool {
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, nm := range r.nonMono {
		if lo <= nm.Hi && hi >= nm.Lo {
			return true
		}
	}
	return false
}

// MeasureBounds returns the minimum and maximum calibrated measures.
func (r *Route) MeasureBounds() (min, max float64) { return r.minM, r.maxM }

// FirstMeasure returns the measure at the first vertex of the first part.
func (r *Route) FirstMeasure() float64 { return r.measures[0][0] }

// LastMeasure returns the measure at the last vertex of the last part.
func (r *Route) LastMeasure() float64 {
	last := r.measures[len(r.measures)-1]
	return last[len(last)-1]
}

// VertexMeasures returns the calibrated measure at every vertex,
// in the same shape as the route geometry.
func (r *Route) VertexMeasures() [][]float64 { return r.measures }

// RouteLocation is a position along a route resolved from a measure:
// the (part, segment, fraction) indexes plus the interpolated
// point and the measure that produced it.
type RouteLocation struct {
	Part     int
	Segment  int     // starting-vertex index of the segment within the part
	Fraction float64 // fraction of the way along the segment
	Point    geom.Point
	Measure  float64
}

// Locate resolves a measure to geometric locations on the route. When
// the route's calibration is non-monotonic a measure can fall in
// several segments; all candidates are returned, ordered by part then
// segment index, and selecting the first is the documented default
// policy (see LocateFirst). A measure outside the calibrated range
// returns a MeasureOutOfRangeError unless r.Extrapolate is set, in
// which case it is extrapolated from the nearest end segment.
func (r *Route) Locate(measure float64) ([]RouteLocation, error) {
	if math.IsNaN(measure) || math.IsInf(measure, 0) {
		return nil, &DegenerateGeometryError{Part: -1, Reason: "non-finite measure"}
	}
	var locs []RouteLocation
	for _, s := range r.segs {
		if !s.contains(measure) {
			continue
		}
		frac := 0.0
		if s.m1 != s.m0 {
			frac = (measure - s.m0) / (s.m1 - s.m0)
		}
		pt := interpolateAlongSegment(s.p0, s.p1, frac)
		// A measure at a shared vertex matches both adjacent
		// segments at the same point; keep only the first.
		if n := len(locs); n > 0 {
			prev := locs[n-1]
			if prev.Part == s.part && prev.Point.Equals(pt) {
				continue
			}
		}
		locs = append(locs, RouteLocation{
			Part: s.part, Segment: s.seg, Fraction: frac,
			Point: pt, Measure: measure,
		})
	}
	if len(locs) > 0 {
		return locs, nil
	}
	if r.Extrapolate {
		if loc, ok := r.extrapolateMeasure(measure); ok {
			return []RouteLocation{loc}, nil
		}
	}
	return nil, &MeasureOutOfRangeError{Measure: measure, Min: r.minM, Max: r.maxM}
}

// extrapolateMeasure extends the first or last calibrated segment
// linearly to cover a measure beyond the route ends.
func (r *Route) extrapolateMeasure(measure float64) (RouteLocation, bool) {
	var s *calSegment
	if measure < r.minM == (r.segs[0].m0 <= r.segs[len(r.segs)-1].m1) {
		s = r.segs[0]
	} else {
		s = r.segs[len(r.segs)-1]
	}
	if s.m1 == s.m0 {
		return RouteLocation{}, false
	}
	frac := (measure - s.m0) / (s.m1 - s.m0)
	return RouteLocation{
		Part: s.part, Segment: s.seg, Fraction: frac,
		Point:   extrapolateAlongSegment(s.p0, s.p1, frac),
		Measure: measure,
	}, true
}

// LocateFirst resolves a measure to a single location using the
// default first-candidate policy.
func (r *Route) LocateFirst(measure float64) (RouteLocation, error) {
	locs, err := r.Locate(measure)
	if err != nil {
		return RouteLocation{}, err
	}
	return locs[0], nil
}

// PointLocation is the result of resolving an arbitrary point to the
// nearest location on a route: the location itself plus the
// perpendicular distance and the side of the route the point lies on.
type PointLocation struct {
	RouteLocation
	Distance float64
	Side     Side
}

// LocateNearest finds the nearest point on the route to p within
// tolerance tol. Ties between equally close segments are broken by
// preferring the lowest part index, then the lowest segment index,
// then the lowest fraction, so repeated runs over the same data
// produce identical event tables. Returns a NotFoundError if no
// segment is within tolerance.
func (r *Route) LocateNearest(p geom.Point, tol float64) (PointLocation, error) {
	if !finite(p) {
		return PointLocation{}, &DegenerateGeometryError{Part: -1, Reason: "non-finite point"}
	}
	qb := geom.NewBoundsPoint(p)
	qb.Min.X -= tol
	qb.Min.Y -= tol
	qb.Max.X += tol
	qb.Max.Y += tol

	best := PointLocation{Distance: math.Inf(1)}
	found := false
	for _, si := range r.index.SearchIntersect(qb) {
		s := si.(*calSegment)
		closest, frac, dist, side := projectPointOntoSegment(p, s.p0, s.p1)
		if dist > tol {
			continue
		}
		cand := PointLocation{
			RouteLocation: RouteLocation{
				Part: s.part, Segment: s.seg, Fraction: frac,
				Point:   closest,
				Measure: s.m0 + frac*(s.m1-s.m0),
			},
			Distance: dist,
			Side:     side,
		}
		if !found || lessLocation(cand, best) {
			best = cand
			found = true
		}
	}
	// With extrapolation enabled, a point projecting beyond a route
	// end competes against (and usually beats) the clamped end
	// vertex, because its perpendicular foot is closer.
	if r.Extrapolate {
		if loc, ok := r.extrapolatePoint(p, tol); ok {
			if !found || lessLocation(loc, best) {
				best = loc
				found = true
			}
		}
	}
	if !found {
		return PointLocation{}, &NotFoundError{Tolerance: tol}
	}
	return best, nil
}

// lessLocation orders candidate locations by distance, breaking ties
// by (part, segment, fraction).
func lessLocation(a, b PointLocation) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.Part != b.Part {
		return a.Part < b.Part
	}
	if a.Segment != b.Segment {
		return a.Segment < b.Segment
	}
	return a.Fraction < b.Fraction
}

// extrapolatePoint projects p onto the infinite extension of the first
// and last calibrated segments, accepting the projection if it falls
// beyond the route end but within tolerance.
func (r *Route) extrapolatePoint(p geom.Point, tol float64) (PointLocation, bool) {
	best := PointLocation{Distance: math.Inf(1)}
	found := false
	for _, end := range []struct {
		s     *calSegment
		first bool
	}{{r.segs[0], true}, {r.segs[len(r.segs)-1], false}} {
		s := end.s
		dx := s.p1.X - s.p0.X
		dy := s.p1.Y - s.p0.Y
		frac := ((p.X-s.p0.X)*dx + (p.Y-s.p0.Y)*dy) / (s.length * s.length)
		if end.first && frac >= 0 || !end.first && frac <= 1 {
			continue // not beyond this end
		}
		foot := extrapolateAlongSegment(s.p0, s.p1, frac)
		dist := segmentLength(p, foot)
		if dist > tol {
			continue
		}
		cross := dx*(p.Y-s.p0.Y) - dy*(p.X-s.p0.X)
		side := OnLine
		if cross > 0 {
			side = LeftSide
		} else if cross < 0 {
			side = RightSide
		}
		cand := PointLocation{
			RouteLocation: RouteLocation{
				Part: s.part, Segment: s.seg, Fraction: frac,
				Point:   foot,
				Measure: s.m0 + frac*(s.m1-s.m0),
			},
			Distance: dist,
			Side:     side,
		}
		if !found || lessLocation(cand, best) {
			best = cand
			found = true
		}
	}
	return best, found
}

// MeasureOf returns the measure of the nearest point on the route to p
// within tolerance tol.
func (r *Route) MeasureOf(p geom.Point, tol float64) (float64, error) {
	loc, err := r.LocateNearest(p, tol)
	if err != nil {
		return 0, err
	}
	return loc.Measure, nil
}

// segmentAt returns the calibrated segment holding the given location.
func (r *Route) segmentAt(loc RouteLocation) *calSegment {
	for _, s := range r.segs {
		if s.part == loc.Part && s.seg == loc.Segment {
			return s
		}
	}
	return nil
}

// neighborSegment returns the calibrated segment adjacent to s within
// the same part, on the incoming (before=true) or outgoing side.
func (r *Route) neighborSegment(s *calSegment, before bool) *calSegment {
	var found *calSegment
	for _, o := range r.segs {
		if o.part != s.part {
			continue
		}
		if before && o.seg < s.seg && (found == nil || o.seg > found.seg) {
			found = o
		}
		if !before && o.seg > s.seg && (found == nil || o.seg < found.seg) {
			found = o
		}
	}
	return found
}

// TangentAt returns the unit direction of travel at a resolved
// location. Within a segment this is the segment direction; at a
// shared vertex it is the angle bisector of the incoming and outgoing
// segment directions. At a part-terminus vertex the single adjacent
// segment's direction is used.
func (r *Route) TangentAt(loc RouteLocation) (geom.Point, error) {
	return r.tangentAt(loc, false)
}

// tangentAt computes the tangent at loc. With strict set, a location
// at the boundary vertex between two parts (where the neighboring
// segment on one side belongs to a disjoint part) fails with an
// UndefinedTangentError instead of falling back to the one-sided
// direction.
func (r *Route) tangentAt(loc RouteLocation, strict bool) (geom.Point, error) {
	s := r.segmentAt(loc)
	if s == nil {
		return geom.Point{}, &DegenerateGeometryError{Part: loc.Part, Reason: "location not on a calibrated segment"}
	}
	dir, _ := s.direction()
	if loc.Fraction > 0 && loc.Fraction < 1 {
		return dir, nil
	}
	var neighbor *calSegment
	atStart := loc.Fraction <= 0
	neighbor = r.neighborSegment(s, atStart)
	if neighbor != nil {
		nDir, _ := neighbor.direction()
		if atStart {
			return bisect(nDir, dir), nil
		}
		return bisect(dir, nDir), nil
	}
	// Part-terminus vertex: only one side has a defined segment.
	interior := (atStart && loc.Part > 0) || (!atStart && loc.Part < len(r.Geometry)-1)
	if strict && interior {
		return geom.Point{}, &UndefinedTangentError{Measure: loc.Measure, Part: loc.Part}
	}
	return dir, nil
}
