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

import "fmt"

// DegenerateGeometryError reports input geometry that cannot be
// calibrated: non-finite coordinates, a part with fewer than two
// vertices, or a part whose vertices are all coincident.
type DegenerateGeometryError struct {
	Part   int
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("linearref: degenerate geometry in part %d: %s", e.Part, e.Reason)
}

// MeasureCountMismatchError reports a vertex-measure slice whose
// length does not match the vertex count of the corresponding part.
type MeasureCountMismatchError struct {
	Part               int
	Vertices, Measures int
}

func (e *MeasureCountMismatchError) Error() string {
	return fmt.Sprintf("linearref: part %d has %d vertices but %d measures",
		e.Part, e.Vertices, e.Measures)
}

// MeasureOutOfRangeError reports a measure that falls outside every
// calibrated segment of a route when extrapolation is not enabled.
type MeasureOutOfRangeError struct {
	Measure  float64
	Min, Max float64
}

func (e *MeasureOutOfRangeError) Error() string {
	return fmt.Sprintf("linearref: measure %g outside route range [%g, %g]",
		e.Measure, e.Min, e.Max)
}

// NotFoundError reports a point that could not be resolved to a
// location on any route within the given tolerance.
type NotFoundError struct {
	Tolerance float64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("linearref: no route location within tolerance %g", e.Tolerance)
}

// AmbiguousMeasureError reports a query that produced multiple valid
// answers because the span in question crosses a non-monotonic
// measure region, or because the endpoints of a line resolved to
// different routes.
type AmbiguousMeasureError struct {
	Reason string
}

func (e *AmbiguousMeasureError) Error() string {
	return "linearref: ambiguous measure: " + e.Reason
}

// UndefinedTangentError reports a station at a part boundary where
// the direction of travel is undefined on one side and no fallback
// tangent was configured.
type UndefinedTangentError struct {
	Measure float64
	Part    int
}

func (e *UndefinedTangentError) Error() string {
	return fmt.Sprintf("linearref: tangent undefined at measure %g (part boundary %d)",
		e.Measure, e.Part)
}
