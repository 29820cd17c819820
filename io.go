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
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// Feature is one row exchanged with a feature source or sink:
// a geometry plus named attribute values.
type Feature struct {
	Geom   geom.Geom
	Fields map[string]string
}

// FeatureSource supplies input features one row at a time. Concrete
// storage formats (shapefiles, in-memory slices) implement it so the
// engine never depends on where its inputs live.
type FeatureSource interface {
	// Next returns the next feature and whether one was available.
	Next() (Feature, bool)
	// Err returns the first read failure, if any. Check it after
	// Next returns false.
	Err() error
}

// FeatureSink receives output features. The engine writes rows into a
// caller-supplied sink and never owns output storage beyond the call.
type FeatureSink interface {
	Write(Feature) error
	Close() error
}

// SliceSource is an in-memory FeatureSource.
type SliceSource struct {
	Features []Feature
	i        int
}

func (s *SliceSource) Next() (Feature, bool) {
	if s.i >= len(s.Features) {
		return Feature{}, false
	}
	f := s.Features[s.i]
	s.i++
	return f, true
}

func (s *SliceSource) Err() error { return nil }

// SliceSink is an in-memory FeatureSink.
type SliceSink struct {
	Features []Feature
}

func (s *SliceSink) Write(f Feature) error {
	s.Features = append(s.Features, f)
	return nil
}

func (s *SliceSink) Close() error { return nil }

// ShapefileSource reads features and the named attribute fields from
// a shapefile.
type ShapefileSource struct {
	dec    *shp.Decoder
	fields []string
}

// OpenShapefileSource opens the shapefile at filename for reading.
// Each feature will carry the values of the named attribute fields.
func OpenShapefileSource(filename string, fields ...string) (*ShapefileSource, error) {
	dec, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("linearref: opening shapefile %s: %v", filename, err)
	}
	return &ShapefileSource{dec: dec, fields: fields}, nil
}

func (s *ShapefileSource) Next() (Feature, bool) {
	g, fields, more := s.dec.DecodeRowFields(s.fields...)
	if !more {
		return Feature{}, false
	}
	return Feature{Geom: g, Fields: fields}, true
}

func (s *ShapefileSource) Err() error { return s.dec.Error() }

// Close closes the underlying shapefile.
func (s *ShapefileSource) Close() { s.dec.Close() }

// ShapefileSink writes features to a shapefile with a fixed attribute
// schema. Field values are written in the order the fields were
// declared.
type ShapefileSink struct {
	enc    *shp.Encoder
	fields []string
}

// CreateShapefileSink creates a shapefile of the given shape type at
// filename with the given attribute fields.
func CreateShapefileSink(filename string, t goshp.ShapeType, fields ...goshp.Field) (*ShapefileSink, error) {
	enc, err := shp.NewEncoderFromFields(filename, t, fields...)
	if err != nil {
		return nil, fmt.Errorf("linearref: creating shapefile %s: %v", filename, err)
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(string(f.Name[:]), "\x00")
	}
	return &ShapefileSink{enc: enc, fields: names}, nil
}

func (s *ShapefileSink) Write(f Feature) error {
	vals := make([]interface{}, len(s.fields))
	for i, name := range s.fields {
		vals[i] = f.Fields[name]
	}
	return s.enc.EncodeFields(f.Geom, vals...)
}

func (s *ShapefileSink) Close() error {
	s.enc.Close()
	return nil
}

// toMultiLineString normalizes linear geometry read from a source.
func toMultiLineString(g geom.Geom) (geom.MultiLineString, error) {
	switch t := g.(type) {
	case geom.MultiLineString:
		return t, nil
	case geom.LineString:
		return geom.MultiLineString{t}, nil
	default:
		return nil, fmt.Errorf("linearref: expected linear geometry, got %T", g)
	}
}

// ReadPolylines reads all features from src, returning their IDs
// (from the idField attribute) and linear geometries in file order.
func ReadPolylines(src FeatureSource, idField string) ([]RouteID, []geom.MultiLineString, error) {
	var ids []RouteID
	var geoms []geom.MultiLineString
	for {
		f, ok := src.Next()
		if !ok {
			break
		}
		ml, err := toMultiLineString(f.Geom)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, RouteID(f.Fields[idField]))
		geoms = append(geoms, ml)
	}
	if err := src.Err(); err != nil {
		return nil, nil, fmt.Errorf("linearref: reading features: %v", err)
	}
	return ids, geoms, nil
}

// ReadPoints reads all point features from src.
func ReadPoints(src FeatureSource) ([]geom.Point, error) {
	var pts []geom.Point
	for {
		f, ok := src.Next()
		if !ok {
			break
		}
		p, ok := f.Geom.(geom.Point)
		if !ok {
			return nil, fmt.Errorf("linearref: expected point geometry, got %T", f.Geom)
		}
		pts = append(pts, p)
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("linearref: reading features: %v", err)
	}
	return pts, nil
}

// WriteRoutes writes calibrated routes to sink with the route
// identifier under idField plus the from/to measures of each route.
func WriteRoutes(sink FeatureSink, idField string, routes []*Route) error {
	for _, r := range routes {
		f := Feature{
			Geom: r.Geometry,
			Fields: map[string]string{
				idField:       string(r.ID),
				"FromMeasure": formatMeasure(r.FirstMeasure()),
				"ToMeasure":   formatMeasure(r.LastMeasure()),
			},
		}
		if err := sink.Write(f); err != nil {
			return fmt.Errorf("linearref: writing route %s: %v", r.ID, err)
		}
	}
	return nil
}

// WritePointEvents materializes point events as located point features
// with the route identifier under idField plus Measure and Offset
// columns. Events must reference routes present in the routes slice.
func WritePointEvents(sink FeatureSink, idField string, routes []*Route, events []PointEvent) error {
	byID := routesByID(routes)
	for _, ev := range events {
		r, ok := byID[ev.RouteID]
		if !ok {
			return fmt.Errorf("linearref: event references unknown route %s", ev.RouteID)
		}
		loc, err := r.LocateFirst(ev.Measure)
		if err != nil {
			return fmt.Errorf("linearref: locating event on route %s: %v", ev.RouteID, err)
		}
		f := Feature{
			Geom: loc.Point,
			Fields: map[string]string{
				idField:   string(ev.RouteID),
				"Measure": formatMeasure(ev.Measure),
				"Offset":  formatMeasure(ev.Offset),
			},
		}
		if err := sink.Write(f); err != nil {
			return fmt.Errorf("linearref: writing point event: %v", err)
		}
	}
	return nil
}

// WriteLineEvents materializes line events as two-point features
// connecting the located from/to measures, with FromMeasure,
// ToMeasure, and Ambiguous columns.
func WriteLineEvents(sink FeatureSink, idField string, routes []*Route, events []LineEvent) error {
	byID := routesByID(routes)
	for _, ev := range events {
		r, ok := byID[ev.RouteID]
		if !ok {
			return fmt.Errorf("linearref: event references unknown route %s", ev.RouteID)
		}
		from, err := r.LocateFirst(ev.FromMeasure)
		if err != nil {
			return fmt.Errorf("linearref: locating event on route %s: %v", ev.RouteID, err)
		}
		to, err := r.LocateFirst(ev.ToMeasure)
		if err != nil {
			return fmt.Errorf("linearref: locating event on route %s: %v", ev.RouteID, err)
		}
		ambig := "0"
		if ev.Ambiguous {
			ambig = "1"
		}
		f := Feature{
			Geom: geom.LineString{from.Point, to.Point},
			Fields: map[string]string{
				idField:       string(ev.RouteID),
				"FromMeasure": formatMeasure(ev.FromMeasure),
				"ToMeasure":   formatMeasure(ev.ToMeasure),
				"Ambiguous":   ambig,
			},
		}
		if err := sink.Write(f); err != nil {
			return fmt.Errorf("linearref: writing line event: %v", err)
		}
	}
	return nil
}

// WriteStations writes stations as point features with the route
// identifier, station label, measure, and the bearing of the left
// normal in degrees (the angle a cross-section would be drawn at).
func WriteStations(sink FeatureSink, idField string, stations []Station) error {
	for _, st := range stations {
		n := leftNormal(st.Tangent)
		f := Feature{
			Geom: st.Point,
			Fields: map[string]string{
				idField:    string(st.RouteID),
				"Station":  st.Label,
				"Measure":  formatMeasure(st.Measure),
				"LocAngle": formatMeasure(math.Atan2(n.Y, n.X) * 180 / math.Pi),
			},
		}
		if err := sink.Write(f); err != nil {
			return fmt.Errorf("linearref: writing station %s: %v", st.Label, err)
		}
	}
	return nil
}

// WriteCrossSections writes cross-sections as two-point line features
// keyed by station measure.
func WriteCrossSections(sink FeatureSink, idField string, sections []CrossSection) error {
	for _, xs := range sections {
		f := Feature{
			Geom: xs.Line,
			Fields: map[string]string{
				idField:   string(xs.RouteID),
				"Name":    xs.Name,
				"Measure": formatMeasure(xs.Measure),
			},
		}
		if err := sink.Write(f); err != nil {
			return fmt.Errorf("linearref: writing cross-section %s: %v", xs.Name, err)
		}
	}
	return nil
}

func routesByID(routes []*Route) map[RouteID]*Route {
	byID := make(map[RouteID]*Route, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
	}
	return byID
}

func formatMeasure(m float64) string {
	return fmt.Sprintf("%.8f", m)
}
