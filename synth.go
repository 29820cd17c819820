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
	"gonum.org/v1/gonum/floats"
)

// Synthesizer builds calibrated routes whose measures derive purely
// from cumulative segment length, independent of any input attribute
// measures. The zero value calibrates from measure 0 in map units with
// contiguous parts.
type Synthesizer struct {
	// UnitMultiplier scales map-unit lengths into measure units
	// (for example map meters to miles). Zero means 1.
	UnitMultiplier float64
	// StartMeasure is the measure assigned to the first vertex.
	StartMeasure float64
	// PartGap is added between the end measure of one part and the
	// start measure of the next. Ignored when RestartParts is set.
	PartGap float64
	// RestartParts restarts every part at StartMeasure instead of
	// continuing from the previous part's end.
	RestartParts bool
}

// Build calibrates p by cumulative length. Zero-length segments
// contribute nothing to the accumulated measure.
func (s *Synthesizer) Build(id RouteID, p geom.MultiLineString) (*Route, error) {
	mult := s.UnitMultiplier
	if mult == 0 {
		mult = 1
	}
	measures := make([][]float64, len(p))
	start := s.StartMeasure
	for pi, part := range p {
		if len(part) < 2 {
			return nil, &DegenerateGeometryError{Part: pi, Reason: "fewer than 2 vertices"}
		}
		deltas := make([]float64, len(part))
		deltas[0] = start
		for vi := 0; vi < len(part)-1; vi++ {
			deltas[vi+1] = segmentLength(part[vi], part[vi+1]) * mult
		}
		floats.CumSum(deltas, deltas)
		measures[pi] = deltas
		if s.RestartParts {
			start = s.StartMeasure
		} else {
			start = deltas[len(deltas)-1] + s.PartGap
		}
	}
	return NewRoute(id, p, measures)
}

// BuildAll calibrates one route per input polyline. The ids and geoms
// slices must be the same length. Routes are built in parallel but
// returned in input order; a failure on any input aborts the batch.
func (s *Synthesizer) BuildAll(ids []RouteID, geoms []geom.MultiLineString) ([]*Route, error) {
	if len(ids) != len(geoms) {
		return nil, fmt.Errorf("linearref: %d route IDs for %d geometries", len(ids), len(geoms))
	}
	routes := make([]*Route, len(geoms))
	err := eachIndex(len(geoms), func(i int) error {
		r, err := s.Build(ids[i], geoms[i])
		if err != nil {
			return fmt.Errorf("route %s: %w", ids[i], err)
		}
		routes[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return routes, nil
}

// BuildGrouped merges input features that share a route identifier
// into one multi-part route each, then calibrates the merged routes by
// length. Parts keep the order in which their features appeared; route
// order follows the first appearance of each identifier.
func (s *Synthesizer) BuildGrouped(ids []RouteID, lines []geom.LineString) ([]*Route, error) {
	if len(ids) != len(lines) {
		return nil, fmt.Errorf("linearref: %d route IDs for %d lines", len(ids), len(lines))
	}
	var order []RouteID
	grouped := make(map[RouteID]geom.MultiLineString)
	for i, id := range ids {
		if _, ok := grouped[id]; !ok {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], lines[i])
	}
	outIDs := make([]RouteID, len(order))
	geoms := make([]geom.MultiLineString, len(order))
	for i, id := range order {
		outIDs[i] = id
		geoms[i] = grouped[id]
	}
	return s.BuildAll(outIDs, geoms)
}
