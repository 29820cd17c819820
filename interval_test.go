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

func collectStations(t *testing.T, seq *StationSeq) []Station {
	t.Helper()
	var out []Station
	for seq.Next() {
		out = append(out, seq.Station())
	}
	if err := seq.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestStationsByDistance(t *testing.T) {
	r := elbowRoute(t)
	seq, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 20, Distance: 7})
	if err != nil {
		t.Fatal(err)
	}
	stations := collectStations(t, seq)
	want := []float64{0, 7, 14}
	if len(stations) != len(want) {
		t.Fatalf("have %d stations, want %d", len(stations), len(want))
	}
	for i, st := range stations {
		if st.Measure != want[i] {
			t.Errorf("station %d: have measure %g, want %g", i, st.Measure, want[i])
		}
	}
	// Spacing between consecutive stations is exactly the interval.
	for i := 1; i < len(stations); i++ {
		if d := stations[i].Measure - stations[i-1].Measure; d != 7 {
			t.Errorf("spacing %d: have %g, want exactly 7", i, d)
		}
	}
}

func TestStationsByDistanceExactMultiple(t *testing.T) {
	r := elbowRoute(t)
	seq, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 20, Distance: 5})
	if err != nil {
		t.Fatal(err)
	}
	stations := collectStations(t, seq)
	// floor(20/5)+1 = 5 stations, both endpoints included.
	if len(stations) != 5 {
		t.Fatalf("have %d stations, want 5", len(stations))
	}
	if stations[0].Measure != 0 || stations[4].Measure != 20 {
		t.Errorf("endpoints: have %g, %g; want 0, 20",
			stations[0].Measure, stations[4].Measure)
	}
}

func TestStationsByDistanceDriftedEndpoint(t *testing.T) {
	// 0.7/0.1 is an exact multiple on paper but not in floats:
	// accumulating 7*0.1 lands one ulp past the route's last measure.
	// The final station must snap to the end instead of failing out of
	// range mid-iteration.
	s := new(Synthesizer)
	r, err := s.Build("drift", geom.MultiLineString{{{X: 0, Y: 0}, {X: 0.7, Y: 0}}})
	if err != nil {
		t.Fatal(err)
	}
	seq, err := r.StationsByDistance(0.1)
	if err != nil {
		t.Fatal(err)
	}
	stations := collectStations(t, seq)
	if len(stations) != 8 {
		t.Fatalf("have %d stations, want 8", len(stations))
	}
	if last := stations[7].Measure; last != r.LastMeasure() {
		t.Errorf("final station: have measure %v, want exactly %v", last, r.LastMeasure())
	}
}

func TestStationsByCount(t *testing.T) {
	r := elbowRoute(t)
	seq, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 20, Count: 8})
	if err != nil {
		t.Fatal(err)
	}
	stations := collectStations(t, seq)
	if len(stations) != 9 {
		t.Fatalf("have %d stations, want 9", len(stations))
	}
	if stations[0].Measure != 0 {
		t.Errorf("first station: have %g, want 0", stations[0].Measure)
	}
	if stations[8].Measure != 20 {
		t.Errorf("last station: have %g, want exactly 20", stations[8].Measure)
	}
}

func TestStationResolution(t *testing.T) {
	r := elbowRoute(t)
	seq, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 20, Distance: 5})
	if err != nil {
		t.Fatal(err)
	}
	stations := collectStations(t, seq)

	// Station at measure 15 sits halfway up the second leg,
	// traveling north.
	st := stations[3]
	if !st.Point.Equals(geom.Point{X: 10, Y: 5}) {
		t.Errorf("point: have %+v, want (10,5)", st.Point)
	}
	if !st.Tangent.Equals(geom.Point{X: 0, Y: 1}) {
		t.Errorf("tangent: have %+v, want (0,1)", st.Tangent)
	}
	if st.Label != "A_3" {
		t.Errorf("label: have %s, want A_3", st.Label)
	}

	// Every tangent is a unit vector.
	for i, st := range stations {
		l := st.Tangent.X*st.Tangent.X + st.Tangent.Y*st.Tangent.Y
		if !scalar.EqualWithinAbs(l, 1, testTolerance) {
			t.Errorf("station %d tangent %+v is not a unit vector", i, st.Tangent)
		}
	}
}

func TestStationSeqReset(t *testing.T) {
	r := elbowRoute(t)
	seq, err := r.StationsByDistance(5)
	if err != nil {
		t.Fatal(err)
	}
	first := collectStations(t, seq)
	if seq.Next() {
		t.Error("exhausted sequence should not advance")
	}
	seq.Reset()
	second := collectStations(t, seq)
	if len(first) != len(second) {
		t.Fatalf("restart yielded %d stations, first pass %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("station %d differs after restart: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestStationSeqSpecErrors(t *testing.T) {
	r := elbowRoute(t)
	if _, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 20}); err == nil {
		t.Error("expected error for spec with neither distance nor count")
	}
	if _, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 20, Distance: 5, Count: 4}); err == nil {
		t.Error("expected error for spec with both distance and count")
	}
	if _, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 20, Distance: -5}); err == nil {
		t.Error("expected error for spacing that runs away from the range")
	}
}

func TestStationSeqOutOfRange(t *testing.T) {
	r := elbowRoute(t)
	seq, err := NewStationSeq(r, IntervalSpec{Start: 0, End: 30, Distance: 10})
	if err != nil {
		t.Fatal(err)
	}
	var n int
	for seq.Next() {
		n++
	}
	if seq.Err() == nil {
		t.Error("expected an error for a station beyond the calibrated range")
	}
	if n != 3 { // measures 0, 10, 20 resolve; 30 does not
		t.Errorf("resolved %d stations before failing, want 3", n)
	}
}
