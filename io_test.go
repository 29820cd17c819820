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
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ctessum/geom"
	goshp "github.com/jonas-p/go-shp"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestSliceSourceSink(t *testing.T) {
	src := &SliceSource{Features: []Feature{
		{Geom: geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}}, Fields: map[string]string{"RID": "A"}},
		{Geom: geom.MultiLineString{{{X: 0, Y: 5}, {X: 10, Y: 5}}}, Fields: map[string]string{"RID": "B"}},
	}}
	ids, geoms, err := ReadPolylines(src, "RID")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "A" || ids[1] != "B" {
		t.Errorf("ids: have %v, want [A B]", ids)
	}
	// Bare LineStrings are normalized into single-part polylines.
	if len(geoms[0]) != 1 || len(geoms[1]) != 1 {
		t.Errorf("part counts: have %d, %d; want 1, 1", len(geoms[0]), len(geoms[1]))
	}

	sink := new(SliceSink)
	s := new(Synthesizer)
	routes, err := s.BuildAll(ids, geoms)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteRoutes(sink, "RID", routes); err != nil {
		t.Fatal(err)
	}
	if len(sink.Features) != 2 {
		t.Fatalf("have %d features, want 2", len(sink.Features))
	}
	f := sink.Features[0]
	if f.Fields["RID"] != "A" {
		t.Errorf("RID: have %s, want A", f.Fields["RID"])
	}
	to, err := strconv.ParseFloat(f.Fields["ToMeasure"], 64)
	if err != nil || to != 10 {
		t.Errorf("ToMeasure: have %s, want 10", f.Fields["ToMeasure"])
	}
}

func TestWritePointEvents(t *testing.T) {
	r := elbowRoute(t)
	sink := new(SliceSink)
	events := []PointEvent{
		{RouteID: "A", Measure: 15, Offset: -2, Feature: 0},
	}
	if err := WritePointEvents(sink, "RID", []*Route{r}, events); err != nil {
		t.Fatal(err)
	}
	f := sink.Features[0]
	p, ok := f.Geom.(geom.Point)
	if !ok {
		t.Fatalf("geometry: have %T, want geom.Point", f.Geom)
	}
	if !p.Equals(geom.Point{X: 10, Y: 5}) {
		t.Errorf("located point: have %+v, want (10,5)", p)
	}

	// Unknown route IDs are structural failures.
	bad := []PointEvent{{RouteID: "missing", Measure: 1}}
	if err := WritePointEvents(sink, "RID", []*Route{r}, bad); err == nil {
		t.Error("expected error for unknown route ID")
	}
}

func TestWriteStations(t *testing.T) {
	r := elbowRoute(t)
	seq, err := r.StationsByDistance(5)
	if err != nil {
		t.Fatal(err)
	}
	var stations []Station
	for seq.Next() {
		stations = append(stations, seq.Station())
	}
	if err := seq.Err(); err != nil {
		t.Fatal(err)
	}
	sink := new(SliceSink)
	if err := WriteStations(sink, "RID", stations); err != nil {
		t.Fatal(err)
	}
	// Station at measure 5 travels east; the cross-section angle
	// (left normal) points north, 90 degrees.
	f := sink.Features[1]
	angle, err := strconv.ParseFloat(f.Fields["LocAngle"], 64)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(angle, 90, 1e-6) {
		t.Errorf("LocAngle: have %g, want 90", angle)
	}
}

func TestShapefileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "xsections.shp")

	sink, err := CreateShapefileSink(fname, goshp.POLYLINE,
		goshp.StringField("RID", 16),
		goshp.StringField("Name", 32),
		goshp.FloatField("Measure", 14, 8),
	)
	if err != nil {
		t.Fatal(err)
	}
	r := elbowRoute(t)
	sections, errs := CrossSections(r, []float64{5, 15}, SymmetricCrossSection(4))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if err := WriteCrossSections(sink, "RID", sections); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := OpenShapefileSource(fname, "RID", "Measure")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	var n int
	for {
		f, ok := src.Next()
		if !ok {
			break
		}
		if f.Fields["RID"] != "A" {
			t.Errorf("row %d RID: have %s, want A", n, f.Fields["RID"])
		}
		if _, err := strconv.ParseFloat(f.Fields["Measure"], 64); err != nil {
			t.Errorf("row %d measure %q: %v", n, f.Fields["Measure"], err)
		}
		n++
	}
	if err := src.Err(); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("have %d rows, want 2", n)
	}
}
