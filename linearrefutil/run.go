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

package linearrefutil

import (
	"fmt"

	"github.com/ctessum/geom"
	goshp "github.com/jonas-p/go-shp"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/linearref"
	"github.com/spf13/cast"
)

// loadPolylines reads the input route shapefiles named by the routes
// option, keeping feature identifiers from the routeidfield attribute.
func loadPolylines(cfg *viper.Viper, msgLog chan string) ([]linearref.RouteID, []geom.MultiLineString, error) {
	files := cast.ToStringSlice(cfg.Get("routes"))
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("linearref: no route shapefiles specified; set the routes option")
	}
	idField := cfg.GetString("routeidfield")
	var ids []linearref.RouteID
	var geoms []geom.MultiLineString
	for _, file := range files {
		msgLog <- fmt.Sprintf("Reading route features from %s", file)
		src, err := linearref.OpenShapefileSource(file, idField)
		if err != nil {
			return nil, nil, err
		}
		fileIDs, fileGeoms, err := linearref.ReadPolylines(src, idField)
		src.Close()
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, fileIDs...)
		geoms = append(geoms, fileGeoms...)
	}
	msgLog <- fmt.Sprintf("Read %d route features", len(ids))
	return ids, geoms, nil
}

// buildRoutes calibrates the input polylines by cumulative length.
func buildRoutes(cfg *viper.Viper, msgLog chan string) ([]*linearref.Route, error) {
	ids, geoms, err := loadPolylines(cfg, msgLog)
	if err != nil {
		return nil, err
	}
	s := &linearref.Synthesizer{
		UnitMultiplier: cfg.GetFloat64("unitmultiplier"),
		StartMeasure:   cfg.GetFloat64("startmeasure"),
		PartGap:        cfg.GetFloat64("partgap"),
		RestartParts:   cfg.GetBool("restartparts"),
	}
	var routes []*linearref.Route
	if cfg.GetBool("grouped") {
		var lineIDs []linearref.RouteID
		var lines []geom.LineString
		for i, ml := range geoms {
			for _, part := range ml {
				lineIDs = append(lineIDs, ids[i])
				lines = append(lines, part)
			}
		}
		routes, err = s.BuildGrouped(lineIDs, lines)
	} else {
		routes, err = s.BuildAll(ids, geoms)
	}
	if err != nil {
		return nil, err
	}
	msgLog <- fmt.Sprintf("Calibrated %d routes", len(routes))
	return routes, nil
}

func outputPath(cfg *viper.Viper) (string, error) {
	out := cfg.GetString("output")
	if out == "" {
		return "", fmt.Errorf("linearref: no output file specified; set the output option")
	}
	return out, nil
}

// CreateRoutes builds measured routes from the input line features and
// writes them to the output shapefile.
func CreateRoutes(cfg *viper.Viper, msgLog chan string) error {
	defer close(msgLog)
	routes, err := buildRoutes(cfg, msgLog)
	if err != nil {
		return err
	}
	out, err := outputPath(cfg)
	if err != nil {
		return err
	}
	idField := cfg.GetString("routeidfield")
	sink, err := linearref.CreateShapefileSink(out, goshp.POLYLINE,
		goshp.StringField(idField, 32),
		goshp.FloatField("FromMeasure", 14, 8),
		goshp.FloatField("ToMeasure", 14, 8),
	)
	if err != nil {
		return err
	}
	if err := linearref.WriteRoutes(sink, idField, routes); err != nil {
		return err
	}
	msgLog <- fmt.Sprintf("Wrote %d routes to %s", len(routes), out)
	return sink.Close()
}

// PointEventTable locates the input points along the routes and writes
// the resulting events.
func PointEventTable(cfg *viper.Viper, msgLog chan string) error {
	defer close(msgLog)
	routes, err := buildRoutes(cfg, msgLog)
	if err != nil {
		return err
	}
	pointsFile := cfg.GetString("points")
	if pointsFile == "" {
		return fmt.Errorf("linearref: no point shapefile specified; set the points option")
	}
	src, err := linearref.OpenShapefileSource(pointsFile)
	if err != nil {
		return err
	}
	points, err := linearref.ReadPoints(src)
	src.Close()
	if err != nil {
		return err
	}
	msgLog <- fmt.Sprintf("Locating %d points within tolerance %g", len(points), cfg.GetFloat64("tolerance"))
	events, locErrs := linearref.BatchPointEvents(routes, points, cfg.GetFloat64("tolerance"))
	for _, e := range locErrs {
		msgLog <- fmt.Sprintf("Skipping feature %d: %v", e.Feature, e.Err)
	}
	out, err := outputPath(cfg)
	if err != nil {
		return err
	}
	idField := cfg.GetString("routeidfield")
	sink, err := linearref.CreateShapefileSink(out, goshp.POINT,
		goshp.StringField(idField, 32),
		goshp.FloatField("Measure", 14, 8),
		goshp.FloatField("Offset", 14, 8),
	)
	if err != nil {
		return err
	}
	if err := linearref.WritePointEvents(sink, idField, routes, events); err != nil {
		return err
	}
	msgLog <- fmt.Sprintf("Wrote %d point events to %s (%d features skipped)", len(events), out, len(locErrs))
	return sink.Close()
}

// LineEventTable locates the input line features along the routes and
// writes from/to measure events.
func LineEventTable(cfg *viper.Viper, msgLog chan string) error {
	defer close(msgLog)
	routes, err := buildRoutes(cfg, msgLog)
	if err != nil {
		return err
	}
	linesFile := cfg.GetString("lines")
	if linesFile == "" {
		return fmt.Errorf("linearref: no line shapefile specified; set the lines option")
	}
	src, err := linearref.OpenShapefileSource(linesFile)
	if err != nil {
		return err
	}
	_, lineGeoms, err := linearref.ReadPolylines(src, "")
	src.Close()
	if err != nil {
		return err
	}
	var lines []geom.LineString
	for _, ml := range lineGeoms {
		for _, part := range ml {
			lines = append(lines, part)
		}
	}
	msgLog <- fmt.Sprintf("Locating %d lines within tolerance %g", len(lines), cfg.GetFloat64("tolerance"))
	events, locErrs := linearref.BuildLineEvents(routes, lines,
		linearref.LineEventOpts{Tolerance: cfg.GetFloat64("tolerance")})
	for _, e := range locErrs {
		msgLog <- fmt.Sprintf("Skipping feature %d: %v", e.Feature, e.Err)
	}
	if err := writeLineEvents(cfg, routes, events, msgLog); err != nil {
		return err
	}
	return nil
}

// CoverageEventTable writes one line event per route spanning its full
// measure range.
func CoverageEventTable(cfg *viper.Viper, msgLog chan string) error {
	defer close(msgLog)
	routes, err := buildRoutes(cfg, msgLog)
	if err != nil {
		return err
	}
	events := linearref.CoverageEvents(routes)
	return writeLineEvents(cfg, routes, events, msgLog)
}

func writeLineEvents(cfg *viper.Viper, routes []*linearref.Route, events []linearref.LineEvent, msgLog chan string) error {
	out, err := outputPath(cfg)
	if err != nil {
		return err
	}
	idField := cfg.GetString("routeidfield")
	sink, err := linearref.CreateShapefileSink(out, goshp.POLYLINE,
		goshp.StringField(idField, 32),
		goshp.FloatField("FromMeasure", 14, 8),
		goshp.FloatField("ToMeasure", 14, 8),
		goshp.StringField("Ambiguous", 1),
	)
	if err != nil {
		return err
	}
	if err := linearref.WriteLineEvents(sink, idField, routes, events); err != nil {
		return err
	}
	msgLog <- fmt.Sprintf("Wrote %d line events to %s", len(events), out)
	return sink.Close()
}

// IntervalEventTable writes point events stepping along each route by
// the configured interval.
func IntervalEventTable(cfg *viper.Viper, msgLog chan string) error {
	defer close(msgLog)
	routes, err := buildRoutes(cfg, msgLog)
	if err != nil {
		return err
	}
	var events []linearref.PointEvent
	for _, r := range routes {
		events = append(events, linearref.IntervalEvents(r, cfg.GetFloat64("interval"))...)
	}
	out, err := outputPath(cfg)
	if err != nil {
		return err
	}
	idField := cfg.GetString("routeidfield")
	sink, err := linearref.CreateShapefileSink(out, goshp.POINT,
		goshp.StringField(idField, 32),
		goshp.FloatField("Measure", 14, 8),
		goshp.FloatField("Offset", 14, 8),
	)
	if err != nil {
		return err
	}
	if err := linearref.WritePointEvents(sink, idField, routes, events); err != nil {
		return err
	}
	msgLog <- fmt.Sprintf("Wrote %d interval events to %s", len(events), out)
	return sink.Close()
}

// intervalSpec builds the station spacing specification for a route
// from the interval option, covering the route's full measure range.
func intervalSpec(cfg *viper.Viper, r *linearref.Route) linearref.IntervalSpec {
	return linearref.IntervalSpec{
		Start:    r.FirstMeasure(),
		End:      r.LastMeasure(),
		Distance: cfg.GetFloat64("interval"),
	}
}

// StationPoints generates stations at equal intervals along each route
// and writes them as point features.
func StationPoints(cfg *viper.Viper, msgLog chan string) error {
	defer close(msgLog)
	routes, err := buildRoutes(cfg, msgLog)
	if err != nil {
		return err
	}
	out, err := outputPath(cfg)
	if err != nil {
		return err
	}
	idField := cfg.GetString("routeidfield")
	sink, err := linearref.CreateShapefileSink(out, goshp.POINT,
		goshp.StringField(idField, 32),
		goshp.StringField("Station", 32),
		goshp.FloatField("Measure", 14, 8),
		goshp.FloatField("LocAngle", 14, 8),
	)
	if err != nil {
		return err
	}
	var n int
	for _, r := range routes {
		seq, err := r.StationsByDistance(cfg.GetFloat64("interval"))
		if err != nil {
			return fmt.Errorf("linearref: route %s: %v", r.ID, err)
		}
		var stations []linearref.Station
		for seq.Next() {
			stations = append(stations, seq.Station())
		}
		if err := seq.Err(); err != nil {
			return fmt.Errorf("linearref: route %s: %v", r.ID, err)
		}
		if err := linearref.WriteStations(sink, idField, stations); err != nil {
			return err
		}
		n += len(stations)
	}
	msgLog <- fmt.Sprintf("Wrote %d stations to %s", n, out)
	return sink.Close()
}

// CrossSectionLines generates stations at equal intervals along each
// route and writes a cross-section line through each one.
func CrossSectionLines(cfg *viper.Viper, msgLog chan string) error {
	defer close(msgLog)
	routes, err := buildRoutes(cfg, msgLog)
	if err != nil {
		return err
	}
	opts := linearref.SymmetricCrossSection(cfg.GetFloat64("width"))
	opts.FallbackTangent = cfg.GetBool("fallbacktangent")
	out, err := outputPath(cfg)
	if err != nil {
		return err
	}
	idField := cfg.GetString("routeidfield")
	sink, err := linearref.CreateShapefileSink(out, goshp.POLYLINE,
		goshp.StringField(idField, 32),
		goshp.StringField("Name", 32),
		goshp.FloatField("Measure", 14, 8),
	)
	if err != nil {
		return err
	}
	var n int
	for i, r := range routes {
		sections, err := linearref.IntervalCrossSections(r, intervalSpec(cfg, r), opts)
		if err != nil {
			return fmt.Errorf("linearref: route %s: %v", r.ID, err)
		}
		if err := linearref.WriteCrossSections(sink, idField, sections); err != nil {
			return err
		}
		n += len(sections)
		if (i+1)%100 == 0 {
			msgLog <- fmt.Sprintf("Processed %d of %d routes", i+1, len(routes))
		}
	}
	msgLog <- fmt.Sprintf("Wrote %d cross-sections to %s", n, out)
	return sink.Close()
}
