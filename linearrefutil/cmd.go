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

// Package linearrefutil wires the linear-referencing engine into a
// command-line tool: configuration handling, shapefile input and
// output, and progress logging. The engine itself never logs; this
// package drains its status messages into a logger.
package linearrefutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/linearref"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "routes",
			usage: `
              routes is a list of paths to shapefiles containing the
              input polyline features that routes are built from.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "routeidfield",
			usage: `
              routeidfield is the attribute field in the input route
              shapefiles that identifies each route. Route identifiers
              must be unique unless features are grouped.`,
			defaultVal: "ROUTEID",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "unitmultiplier",
			usage: `
              unitmultiplier scales map-unit lengths into measure
              units when calibrating routes by length.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{routesCmd.Flags()},
		},
		{
			name: "startmeasure",
			usage: `
              startmeasure is the measure assigned to the first vertex
              of each synthesized route.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{routesCmd.Flags()},
		},
		{
			name: "partgap",
			usage: `
              partgap is added between the end measure of one part and
              the start measure of the next in multi-part routes.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{routesCmd.Flags()},
		},
		{
			name: "restartparts",
			usage: `
              restartparts restarts the measures of every part at
              startmeasure instead of continuing across parts.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{routesCmd.Flags()},
		},
		{
			name: "grouped",
			usage: `
              grouped merges input features sharing a route identifier
              into one multi-part route before calibration.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{routesCmd.Flags()},
		},
		{
			name: "points",
			usage: `
              points is the path to a shapefile of point features to
              locate along the routes.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{eventsPointsCmd.Flags()},
		},
		{
			name: "lines",
			usage: `
              lines is the path to a shapefile of line features to
              locate along the routes.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{eventsLinesCmd.Flags()},
		},
		{
			name: "tolerance",
			usage: `
              tolerance is the maximum distance, in map units, that a
              feature may lie from a route and still be located on it.`,
			defaultVal: 0.5,
			flagsets: []*pflag.FlagSet{
				eventsPointsCmd.Flags(), eventsLinesCmd.Flags(),
			},
		},
		{
			name: "interval",
			usage: `
              interval is the measure spacing between generated events
              or stations.`,
			defaultVal: 10.0,
			flagsets: []*pflag.FlagSet{
				eventsIntervalCmd.Flags(), stationsCmd.Flags(), xsectionsCmd.Flags(),
			},
		},
		{
			name: "width",
			usage: `
              width is the total cross-section width; sections extend
              width/2 to each side of the route.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{xsectionsCmd.Flags()},
		},
		{
			name: "fallbacktangent",
			usage: `
              fallbacktangent allows stations at the boundary between
              disjoint route parts to use the one-sided direction of
              travel instead of failing.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{xsectionsCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output is the path the result shapefile is written to.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets: []*pflag.FlagSet{
				routesCmd.Flags(), eventsPointsCmd.Flags(), eventsLinesCmd.Flags(),
				eventsCoverageCmd.Flags(), eventsIntervalCmd.Flags(),
				stationsCmd.Flags(), xsectionsCmd.Flags(),
			},
		},
	}

	Cfg = viper.New()
	for _, option := range options {
		for _, set := range option.flagsets {
			if set.Lookup(option.name) != nil {
				Cfg.BindPFlag(option.name, set.Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(routesCmd)
	Root.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsPointsCmd)
	eventsCmd.AddCommand(eventsLinesCmd)
	eventsCmd.AddCommand(eventsCoverageCmd)
	eventsCmd.AddCommand(eventsIntervalCmd)
	Root.AddCommand(stationsCmd)
	Root.AddCommand(xsectionsCmd)
}

// Log is the logger progress messages are written to.
var Log = logrus.StandardLogger()

// outChan returns a channel whose messages are written to the log.
func outChan() chan string {
	c := make(chan string)
	go func() {
		for msg := range c {
			Log.Info(msg)
		}
	}()
	return c
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("linearref: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "linearref",
	Short: "A linear-referencing toolset.",
	Long: `linearref converts between planar geometry and route measures:
it calibrates routes by length, builds point and line event tables,
generates station points at intervals, and draws cross-sections
perpendicular to routes.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag) or by using command-line
arguments.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of LinearRef.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("LinearRef v%s\n", linearref.Version)
	},
	DisableAutoGenTag: true,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Create measured routes from line features by length.",
	Long: `routes converts the input line features into measured routes whose
measures derive from cumulative segment length. Input features sharing a
common identifier can be merged into a single multi-part route.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return CreateRoutes(Cfg, outChan())
	},
	DisableAutoGenTag: true,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Build event tables expressing features as route measures.",
	Long: `events builds event tables suitable for locating features along
routes. Use the subcommands to choose the event type.`,
	DisableAutoGenTag: true,
}

var eventsPointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Locate point features along routes.",
	Long: `points locates each input point feature on the nearest route within
tolerance and writes one event per point. Points that fail to locate are
reported without aborting the rest of the table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return PointEventTable(Cfg, outChan())
	},
	DisableAutoGenTag: true,
}

var eventsLinesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Locate line features along routes.",
	Long: `lines locates the endpoints of each input line feature along the
routes, producing from/to measure events. Events whose endpoints resolve
to different routes, or whose span crosses a non-monotonic calibration
region, are flagged ambiguous.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return LineEventTable(Cfg, outChan())
	},
	DisableAutoGenTag: true,
}

var eventsCoverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Create line events covering each route end to end.",
	Long: `coverage emits one line event per route, spanning from the measure
at the route's first vertex to the measure at its last, so the event
table covers the full length of every route.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return CoverageEventTable(Cfg, outChan())
	},
	DisableAutoGenTag: true,
}

var eventsIntervalCmd = &cobra.Command{
	Use:   "interval",
	Short: "Create point events at fixed measure intervals.",
	Long: `interval emits point events stepping along each route from its first
measure toward its last by the configured interval. The partial
remainder at the end of the route is dropped to keep spacing exact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return IntervalEventTable(Cfg, outChan())
	},
	DisableAutoGenTag: true,
}

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Generate station points at intervals along routes.",
	Long: `stations generates points at equal measure intervals along each
route, each carrying its measure and the local cross-section angle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return StationPoints(Cfg, outChan())
	},
	DisableAutoGenTag: true,
}

var xsectionsCmd = &cobra.Command{
	Use:   "xsections",
	Short: "Draw cross-sections perpendicular to routes.",
	Long: `xsections generates station points at equal intervals along each
route and draws a cross-section of the configured width through each
station, perpendicular to the local direction of travel. Sections are
drawn from the left side of the route to the right.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return CrossSectionLines(Cfg, outChan())
	},
	DisableAutoGenTag: true,
}
