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
	"math"

	"github.com/ctessum/geom"
)

// Station is a point along a route where a measure was evaluated: the
// measure itself, the resolved point, and the unit direction of travel
// there. Label identifies the station within its route
// ("<routeID>_<sequence>") and seeds cross-section naming.
type Station struct {
	RouteID RouteID
	Measure float64
	Point   geom.Point
	Tangent geom.Point
	Label   string
}

// IntervalSpec describes where stations fall within a measure range:
// either at a fixed measure spacing, or as a fixed number of equal
// divisions. Exactly one of Distance and Count must be set.
//
// With Distance d over range length L the sequence yields
// floor(L/d)+1 stations with exact spacing d; if L is not an exact
// multiple of d, the partial remainder is dropped rather than rounded,
// keeping inter-station spacing exact. With Count n it yields exactly
// n+1 stations including both endpoints.
type IntervalSpec struct {
	Start, End float64
	Distance   float64
	Count      int
}

func (s IntervalSpec) stationCount() (int, error) {
	switch {
	case s.Distance != 0 && s.Count != 0:
		return 0, fmt.Errorf("linearref: interval spec sets both distance (%g) and count (%d)",
			s.Distance, s.Count)
	case s.Distance != 0:
		span := (s.End - s.Start) / s.Distance
		if span < 0 {
			return 0, fmt.Errorf("linearref: interval distance %g runs away from range [%g, %g]",
				s.Distance, s.Start, s.End)
		}
		// Tolerate float drift when the range is an exact multiple
		// of the spacing.
		return int(math.Floor(span*(1+1e-12))) + 1, nil
	case s.Count > 0:
		return s.Count + 1, nil
	default:
		return 0, fmt.Errorf("linearref: interval spec sets neither distance nor count")
	}
}

func (s IntervalSpec) measureAt(k, n int) float64 {
	if s.Distance != 0 {
		m := s.Start + float64(k)*s.Distance
		// The station count tolerates float drift when the range is an
		// exact multiple of the spacing; the final station needs the
		// matching snap so accumulated rounding cannot push it past End.
		if k == n-1 && math.Abs(m-s.End) <= 1e-12*math.Abs(s.End-s.Start) {
			return s.End
		}
		return m
	}
	if k == n-1 {
		return s.End // exact, not start + n*(span/n)
	}
	return s.Start + float64(k)*(s.End-s.Start)/float64(s.Count)
}

// StationSeq is a lazy, finite, restartable sequence of stations along
// one route. Iterate in the manner of sql.Rows:
//
//	for seq.Next() {
//		st := seq.Station()
//		...
//	}
//	if err := seq.Err(); err != nil { ... }
type StationSeq struct {
	route *Route
	spec  IntervalSpec
	n     int
	k     int
	cur   Station
	err   error
}

// NewStationSeq prepares a station sequence over route r. The spec's
// measure range must lie within the route's calibrated range unless
// r.Extrapolate is set.
func NewStationSeq(r *Route, spec IntervalSpec) (*StationSeq, error) {
	n, err := spec.stationCount()
	if err != nil {
		return nil, err
	}
	return &StationSeq{route: r, spec: spec, n: n}, nil
}

// StationsByDistance iterates stations at fixed measure spacing d over
// the route's full calibrated range, from its first to its last vertex
// measure.
func (r *Route) StationsByDistance(d float64) (*StationSeq, error) {
	return NewStationSeq(r, IntervalSpec{
		Start: r.FirstMeasure(), End: r.LastMeasure(), Distance: d,
	})
}

// StationsByCount iterates exactly n+1 stations dividing the route's
// full calibrated range into n equal measure intervals.
func (r *Route) StationsByCount(n int) (*StationSeq, error) {
	return NewStationSeq(r, IntervalSpec{
		Start: r.FirstMeasure(), End: r.LastMeasure(), Count: n,
	})
}

// Next advances to the next station. It returns false when the
// sequence is exhausted or a station failed to resolve; check Err
// afterward to tell the two apart.
func (s *StationSeq) Next() bool {
	if s.err != nil || s.k >= s.n {
		return false
	}
	m := s.spec.measureAt(s.k, s.n)
	loc, err := s.route.LocateFirst(m)
	if err != nil {
		s.err = fmt.Errorf("station %d at measure %g: %w", s.k, m, err)
		return false
	}
	tan, err := s.route.TangentAt(loc)
	if err != nil {
		s.err = fmt.Errorf("station %d at measure %g: %w", s.k, m, err)
		return false
	}
	s.cur = Station{
		RouteID: s.route.ID,
		Measure: m,
		Point:   loc.Point,
		Tangent: tan,
		Label:   fmt.Sprintf("%s_%d", s.route.ID, s.k),
	}
	s.k++
	return true
}

// Station returns the station produced by the last successful Next.
func (s *StationSeq) Station() Station { return s.cur }

// Err returns the first resolution failure, if any.
func (s *StationSeq) Err() error { return s.err }

// Reset restarts the sequence from the first station.
func (s *StationSeq) Reset() {
	s.k = 0
	s.err = nil
	s.cur = Station{}
}

// Len returns the total number of stations the sequence yields.
func (s *StationSeq) Len() int { return s.n }
