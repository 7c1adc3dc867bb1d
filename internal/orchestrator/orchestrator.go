// Package orchestrator runs the external tools for a turn: flight search
// fan-out before generation, and the independent enrichment calls after the
// itinerary text exists. Every call is time-bounded and failures degrade to
// partial results; a tool error never aborts the turn.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"tripweaver/internal/telemetry"
	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/flights"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/visa"
)

const maxGeocodePlaces = 20

// Tools is the capability set the orchestrator dispatches to. Each field may
// be an in-process implementation or a remote MCP client; the orchestrator
// does not care which.
type Tools struct {
	Flights  flights.Searcher
	Geocoder geocode.Geocoder
	Articles articles.Fetcher
	Visa     visa.Service
}

// Orchestrator coordinates tool calls for the chat engine.
type Orchestrator struct {
	tools        Tools
	timeout      time.Duration // per tool call
	limitPerDate int
	logger       *log.Logger
	metrics      *telemetry.Metrics
}

// New creates an orchestrator. timeout bounds every individual tool call.
func New(tools Tools, timeout time.Duration, limitPerDate int, logger *log.Logger, metrics *telemetry.Metrics) *Orchestrator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if limitPerDate <= 0 {
		limitPerDate = 3
	}
	return &Orchestrator{
		tools:        tools,
		timeout:      timeout,
		limitPerDate: limitPerDate,
		logger:       logger,
		metrics:      metrics,
	}
}

// SearchFlights fans out one search per travel date, gathers what succeeded,
// and returns deduplicated options sorted by departure, capped per date. A
// date whose search fails contributes nothing; the error return is non-nil
// only when every date failed, so callers can tell "no flights" from "tool
// down".
func (o *Orchestrator) SearchFlights(ctx context.Context, destination string, dates []string, prefs []flights.TimeWindow) ([]flights.Flight, error) {
	if o.tools.Flights == nil || len(dates) == 0 {
		return nil, nil
	}

	type dateResult struct {
		flights []flights.Flight
		err     error
	}
	results := make([]dateResult, len(dates))

	var wg sync.WaitGroup
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			start := time.Now()
			fs, err := o.tools.Flights.Search(callCtx, destination, date)
			o.metrics.ObserveTool(flights.ToolName, time.Since(start), err)
			if err != nil {
				if o.logger != nil {
					o.logger.Printf("flight search %s on %s: %v", destination, date, err)
				}
				results[i] = dateResult{err: err}
				return
			}
			fs = flights.FilterByTime(fs, prefs)
			fs = flights.Dedupe(fs)
			flights.SortByDeparture(fs)
			results[i] = dateResult{flights: flights.Limit(fs, o.limitPerDate)}
		}(i, date)
	}
	wg.Wait()

	var all []flights.Flight
	failures := 0
	var lastErr error
	for _, r := range results {
		if r.err != nil {
			failures++
			lastErr = r.err
			continue
		}
		all = append(all, r.flights...)
	}
	if failures == len(dates) {
		return nil, lastErr
	}

	// sort first so the cross-date dedupe keeps the earliest departure
	flights.SortByDeparture(all)
	all = flights.Dedupe(all)
	return all, nil
}

// EnrichRequest names what the post-itinerary tools should fetch.
type EnrichRequest struct {
	Destination  string
	CountryCode  string
	Nationality  string   // empty uses the visa service default
	Places       []string // itinerary places to geocode
	ArticleLimit int
}

// Enrichment is the gathered output. Any field may be empty when its tool
// failed or returned nothing.
type Enrichment struct {
	Articles  []articles.Article
	Locations []geocode.Location
	Visa      *visa.Info
}

// Enrich runs the article fetch, geocoding, and visa lookup concurrently and
// gathers whatever finished successfully. One tool failing never blocks the
// others.
func (o *Orchestrator) Enrich(ctx context.Context, req EnrichRequest) Enrichment {
	var (
		out Enrichment
		wg  sync.WaitGroup
	)

	if o.tools.Articles != nil && req.Destination != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			start := time.Now()
			arts, err := o.tools.Articles.Fetch(callCtx, req.Destination, req.ArticleLimit)
			o.metrics.ObserveTool(articles.ToolName, time.Since(start), err)
			if err != nil {
				if o.logger != nil {
					o.logger.Printf("article fetch for %s: %v", req.Destination, err)
				}
				return
			}
			out.Articles = arts
		}()
	}

	if o.tools.Geocoder != nil && len(req.Places) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Locations = o.geocodePlaces(ctx, req.Places, req.Destination)
		}()
	}

	if o.tools.Visa != nil && req.CountryCode != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			start := time.Now()
			info, err := o.tools.Visa.Lookup(callCtx, req.Nationality, req.CountryCode)
			o.metrics.ObserveTool(visa.ToolName, time.Since(start), err)
			if err != nil {
				if o.logger != nil {
					o.logger.Printf("visa lookup for %s: %v", req.CountryCode, err)
				}
				return
			}
			out.Visa = info
		}()
	}

	wg.Wait()
	return out
}

// geocodePlaces resolves places one at a time; Nominatim's usage policy
// forbids parallel hammering. Unresolved places are kept with Resolved false
// so the composer can still name them.
func (o *Orchestrator) geocodePlaces(ctx context.Context, places []string, destination string) []geocode.Location {
	if len(places) > maxGeocodePlaces {
		places = places[:maxGeocodePlaces]
	}
	out := make([]geocode.Location, 0, len(places))
	for _, place := range places {
		query := place
		if destination != "" {
			query = place + ", " + destination
		}

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		start := time.Now()
		loc, err := o.tools.Geocoder.Geocode(callCtx, query)
		o.metrics.ObserveTool(geocode.ToolName, time.Since(start), err)
		cancel()

		if err != nil {
			if o.logger != nil {
				o.logger.Printf("geocode %q: %v", query, err)
			}
			out = append(out, geocode.Location{Name: place})
			continue
		}
		if loc == nil {
			out = append(out, geocode.Location{Name: place})
			continue
		}
		loc.Name = place
		out = append(out, *loc)
	}
	return out
}
