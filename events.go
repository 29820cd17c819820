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
	"github.com/ctessum/geom"
)

// PointEvent is one row of a point event table: the position of an
// input point expressed as a measure along a route. Feature is the
// index of the originating input point, so downstream joins keyed on
// input order remain valid.
type PointEvent struct {
	RouteID RouteID
	Measure float64
	// Offset is the perpendicular distance from the route to the
	// input point, signed positive on the left of the direction of
	// travel.
	Offset  float64
	Feature int
}

// LineEvent is one row of a line event table: the span of an input
// line expressed as from/to measures along a route. Ambiguous is set
// when the endpoints resolved to different routes or the span crosses
// a non-monotonic calibration region; the caller decides how to treat
// such rows rather than the builder silently picking an
// interpretation.
type LineEvent struct {
	RouteID     RouteID
	FromMeasure float64
	ToMeasure   float64
	Ambiguous   bool
	Feature     int
}

// LocateError records an input feature that could not be resolved.
// Per-feature failures never abort a batch; they are collected
// alongside the successful rows.
type LocateError struct {
	Feature int
	Err     error
}

func (e *LocateError) Error() string { return e.Err.Error() }

func (e *LocateError) Unwrap() error { return e.Err }

// nearestOnRoutes resolves p against every route, returning the
// closest hit. Ties between routes are broken by input route order.
func nearestOnRoutes(routes []*Route, p geom.Point, tol float64) (*Route, PointLocation, error) {
	var (
		bestRoute *Route
		best      PointLocation
		found     bool
	)
	for _, r := range routes {
		loc, err := r.LocateNearest(p, tol)
		if err != nil {
			if _, ok := err.(*NotFoundError); ok {
				continue
			}
			return nil, PointLocation{}, err
		}
		if !found || loc.Distance < best.Distance {
			bestRoute, best, found = r, loc, true
		}
	}
	if !found {
		return nil, PointLocation{}, &NotFoundError{Tolerance: tol}
	}
	return bestRoute, best, nil
}

// BuildPointEvents locates each input point on the nearest of the
// given routes and emits one event per point, preserving input order.
// Points that fail to resolve within tolerance are reported in the
// returned error list instead of being silently dropped.
func BuildPointEvents(routes []*Route, points []geom.Point, tol float64) ([]PointEvent, []LocateError) {
	var events []PointEvent
	var errs []LocateError
	for i, p := range points {
		r, loc, err := nearestOnRoutes(routes, p, tol)
		if err != nil {
			errs = append(errs, LocateError{Feature: i, Err: err})
			continue
		}
		events = append(events, PointEvent{
			RouteID: r.ID,
			Measure: loc.Measure,
			Offset:  float64(loc.Side) * loc.Distance,
			Feature: i,
		})
	}
	return events, errs
}

// LineEventOpts configures BuildLineEvents.
type LineEventOpts struct {
	Tolerance float64
	// UseInteriorVertices resolves every vertex of each input line,
	// not just the endpoints, when checking that the line stays on
	// one route. The from/to measures always come from the
	// endpoints.
	UseInteriorVertices bool
}

// BuildLineEvents resolves the endpoints of each input line to
// measures on the nearest route, producing one from/to event per line
// in input order. An event is flagged ambiguous when its vertices
// resolve to different routes, or when the measure span crosses a
// non-monotonic region of the route's calibration.
func BuildLineEvents(routes []*Route, lines []geom.LineString, opts LineEventOpts) ([]LineEvent, []LocateError) {
	var events []LineEvent
	var errs []LocateError
	for i, l := range lines {
		if len(l) < 2 {
			errs = append(errs, LocateError{Feature: i,
				Err: &DegenerateGeometryError{Part: -1, Reason: "line with fewer than 2 vertices"}})
			continue
		}
		verts := []geom.Point{l[0], l[len(l)-1]}
		if opts.UseInteriorVertices {
			verts = l
		}
		var (
			ev       LineEvent
			resolved *Route
			lo, hi   float64
			failed   bool
		)
		ev.Feature = i
		for vi, v := range verts {
			r, loc, err := nearestOnRoutes(routes, v, opts.Tolerance)
			if err != nil {
				errs = append(errs, LocateError{Feature: i, Err: err})
				failed = true
				break
			}
			if resolved == nil {
				resolved = r
				ev.RouteID = r.ID
				lo, hi = loc.Measure, loc.Measure
			} else if r != resolved {
				ev.Ambiguous = true
			}
			if loc.Measure < lo {
				lo = loc.Measure
			}
			if loc.Measure > hi {
				hi = loc.Measure
			}
			// From/to measures come from the endpoints, in the
			// line's own direction.
			if vi == 0 {
				ev.FromMeasure = loc.Measure
			}
			if vi == len(verts)-1 {
				ev.ToMeasure = loc.Measure
			}
		}
		if failed {
			continue
		}
		if resolved.SpansNonMonotonic(lo, hi) {
			ev.Ambiguous = true
		}
		events = append(events, ev)
	}
	return events, errs
}

// CoverageEvents emits one line event per route spanning the route's
// full calibrated range, from the measure at the first vertex to the
// measure at the last. The resulting table covers each route
// completely and is suitable as input for locating features along the
// routes.
func CoverageEvents(routes []*Route) []LineEvent {
	events := make([]LineEvent, len(routes))
	for i, r := range routes {
		events[i] = LineEvent{
			RouteID:     r.ID,
			FromMeasure: r.FirstMeasure(),
			ToMeasure:   r.LastMeasure(),
			Feature:     i,
		}
	}
	return events
}

// IntervalEvents emits point events stepping from the route's first
// measure toward its last by interval. The walk stops strictly before
// the last measure, so the partial remainder is dropped and the end
// measure itself is never emitted, even when the span divides evenly.
// A negative interval steps downward along descending routes.
func IntervalEvents(r *Route, interval float64) []PointEvent {
	if interval == 0 {
		return nil
	}
	var events []PointEvent
	first := r.FirstMeasure()
	last := r.LastMeasure()
	m := first
	for i := 0; (interval > 0 && m < last) || (interval < 0 && m > last); i++ {
		events = append(events, PointEvent{RouteID: r.ID, Measure: m, Feature: i})
		m = first + float64(i+1)*interval
	}
	return events
}
