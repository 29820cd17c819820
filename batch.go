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
	"runtime"
	"sync"

	"github.com/ctessum/geom"
)

// eachIndex runs fn for every index in [0, n) on a bounded worker
// pool. Workers write results into caller-owned slots keyed by index,
// so output ordering is decided by the caller, not by scheduling.
// The first error encountered is returned after all workers drain.
func eachIndex(n int, fn func(i int) error) error {
	nworkers := runtime.GOMAXPROCS(-1)
	if nworkers > n {
		nworkers = n
	}
	if nworkers < 1 {
		nworkers = 1
	}
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var (
		wg       sync.WaitGroup
		mx       sync.Mutex
		firstErr error
	)
	for w := 0; w < nworkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := fn(i); err != nil {
					mx.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mx.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// RouteResult holds the per-route outcome of a batch operation.
// Structural failures are reported per route; they do not sink the
// rest of the batch.
type RouteResult struct {
	RouteID RouteID
	Err     error
}

// BatchStations generates interval stations for many routes at once,
// one station slice per route in input order. Routes are processed in
// parallel; the per-route station ordering guarantees of StationSeq
// are unaffected.
func BatchStations(routes []*Route, spec IntervalSpec) ([][]Station, []RouteResult) {
	stations := make([][]Station, len(routes))
	results := make([]RouteResult, len(routes))
	eachIndex(len(routes), func(i int) error {
		results[i].RouteID = routes[i].ID
		seq, err := NewStationSeq(routes[i], spec)
		if err != nil {
			results[i].Err = err
			return nil
		}
		for seq.Next() {
			stations[i] = append(stations[i], seq.Station())
		}
		results[i].Err = seq.Err()
		return nil
	})
	return stations, results
}

// BatchCrossSections generates interval cross-sections for many routes
// at once, one slice per route in input order.
func BatchCrossSections(routes []*Route, spec IntervalSpec, opts CrossSectionOpts) ([][]CrossSection, []RouteResult) {
	sections := make([][]CrossSection, len(routes))
	results := make([]RouteResult, len(routes))
	eachIndex(len(routes), func(i int) error {
		results[i].RouteID = routes[i].ID
		xs, err := IntervalCrossSections(routes[i], spec, opts)
		sections[i] = xs
		results[i].Err = err
		return nil
	})
	return sections, results
}

// BatchPointEvents builds point events against many routes, splitting
// the input points across workers and reassembling the table in input
// order. It produces the same output as BuildPointEvents.
func BatchPointEvents(routes []*Route, points []geom.Point, tol float64) ([]PointEvent, []LocateError) {
	type slot struct {
		ev  *PointEvent
		err *LocateError
	}
	slots := make([]slot, len(points))
	eachIndex(len(points), func(i int) error {
		r, loc, err := nearestOnRoutes(routes, points[i], tol)
		if err != nil {
			slots[i].err = &LocateError{Feature: i, Err: err}
			return nil
		}
		slots[i].ev = &PointEvent{
			RouteID: r.ID,
			Measure: loc.Measure,
			Offset:  float64(loc.Side) * loc.Distance,
			Feature: i,
		}
		return nil
	})
	var events []PointEvent
	var errs []LocateError
	for _, s := range slots {
		if s.ev != nil {
			events = append(events, *s.ev)
		}
		if s.err != nil {
			errs = append(errs, *s.err)
		}
	}
	return events, errs
}
