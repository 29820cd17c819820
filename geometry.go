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
	"math"

	"github.com/ctessum/geom"
)

// Side reports which side of a directed segment a point lies on,
// relative to the direction of travel.
type Side int

const (
	// OnLine means the point lies on the segment (or its extension).
	OnLine Side = 0
	// LeftSide means the point lies to the left of the direction of travel.
	LeftSide Side = 1
	// RightSide means the point lies to the right of the direction of travel.
	RightSide Side = -1
)

func finite(p geom.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// segmentLength returns the Euclidean distance between p0 and p1.
func segmentLength(p0, p1 geom.Point) float64 {
	return math.Hypot(p1.X-p0.X, p1.Y-p0.Y)
}

// interpolateAlongSegment returns the point a fraction of the way from
// p0 to p1. The fraction is clamped to [0, 1].
func interpolateAlongSegment(p0, p1 geom.Point, frac float64) geom.Point {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return geom.Point{
		X: p0.X + frac*(p1.X-p0.X),
		Y: p0.Y + frac*(p1.Y-p0.Y),
	}
}

// extrapolateAlongSegment is interpolateAlongSegment without clamping,
// for measures projected past a route end.
func extrapolateAlongSegment(p0, p1 geom.Point, frac float64) geom.Point {
	return geom.Point{
		X: p0.X + frac*(p1.X-p0.X),
		Y: p0.Y + frac*(p1.Y-p0.Y),
	}
}

// projectPointOntoSegment projects p onto the segment from p0 to p1.
// It returns the closest point on the segment, the fraction of the
// way along the segment where that point falls (clamped to [0, 1]),
// the distance from p to the closest point, and which side of the
// directed segment p lies on.
func projectPointOntoSegment(p, p0, p1 geom.Point) (closest geom.Point, frac, dist float64, side Side) {
	dx := p1.X - p0.X
	dy := p1.Y - p0.Y
	len2 := dx*dx + dy*dy
	if len2 == 0 { // degenerate segment; closest point is p0.
		return p0, 0, segmentLength(p, p0), OnLine
	}
	frac = ((p.X-p0.X)*dx + (p.Y-p0.Y)*dy) / len2
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	closest = geom.Point{X: p0.X + frac*dx, Y: p0.Y + frac*dy}
	dist = segmentLength(p, closest)
	cross := dx*(p.Y-p0.Y) - dy*(p.X-p0.X)
	switch {
	case cross > 0:
		side = LeftSide
	case cross < 0:
		side = RightSide
	default:
		side = OnLine
	}
	return closest, frac, dist, side
}

// unit returns the unit vector pointing from p0 to p1, and whether
// the two points are distinct enough to define a direction.
func unit(p0, p1 geom.Point) (geom.Point, bool) {
	l := segmentLength(p0, p1)
	if l == 0 {
		return geom.Point{}, false
	}
	return geom.Point{X: (p1.X - p0.X) / l, Y: (p1.Y - p0.Y) / l}, true
}

// bisect returns the normalized angle bisector of the two unit
// directions. If they are anti-parallel the bisector is undefined,
// and the incoming direction is returned instead.
func bisect(in, out geom.Point) geom.Point {
	s := geom.Point{X: in.X + out.X, Y: in.Y + out.Y}
	l := math.Hypot(s.X, s.Y)
	if l == 0 {
		return in
	}
	return geom.Point{X: s.X / l, Y: s.Y / l}
}

// leftNormal rotates the unit tangent 90° counterclockwise, giving
// the direction pointing to the left of travel.
func leftNormal(t geom.Point) geom.Point {
	return geom.Point{X: -t.Y, Y: t.X}
}
