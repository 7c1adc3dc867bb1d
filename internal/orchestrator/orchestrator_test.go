package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/flights"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/visa"
)

type stubSearcher struct {
	byDate map[string][]flights.Flight
	errs   map[string]error
}

func (s stubSearcher) Search(_ context.Context, _ string, date string) ([]flights.Flight, error) {
	if err := s.errs[date]; err != nil {
		return nil, err
	}
	return s.byDate[date], nil
}

func flight(number, date, ts string) flights.Flight {
	return flights.Flight{FlightNumber: number, ScheduledDate: date, DisplayTimestamp: ts}
}

func TestSearchFlightsFanOut(t *testing.T) {
	searcher := stubSearcher{byDate: map[string][]flights.Flight{
		"2026-12-25": {
			flight("SQ104", "2026-12-25", "2026-12-25 14:00"),
			flight("SQ100", "2026-12-25", "2026-12-25 08:00"),
		},
		"2026-12-26": {
			flight("MH200", "2026-12-26", "2026-12-26 09:00"),
		},
	}}
	o := New(Tools{Flights: searcher}, time.Second, 3, nil, nil)

	got, err := o.SearchFlights(context.Background(), "Bali", []string{"2026-12-25", "2026-12-26"}, nil)
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d flights, want 3", len(got))
	}
	// sorted across dates, earliest first
	if got[0].FlightNumber != "SQ100" || got[2].FlightNumber != "MH200" {
		t.Fatalf("order wrong: %+v", got)
	}
}

func TestSearchFlightsDedupesAcrossDates(t *testing.T) {
	searcher := stubSearcher{byDate: map[string][]flights.Flight{
		"2026-12-25": {flight("SQ100", "2026-12-25", "2026-12-25 08:00")},
		"2026-12-26": {
			flight("SQ100", "2026-12-26", "2026-12-26 08:00"), // same daily service
			flight("MH200", "2026-12-26", "2026-12-26 09:00"),
		},
	}}
	o := New(Tools{Flights: searcher}, time.Second, 3, nil, nil)

	got, err := o.SearchFlights(context.Background(), "Bali", []string{"2026-12-26", "2026-12-25"}, nil)
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d flights, want 2", len(got))
	}
	if got[0].FlightNumber != "SQ100" || got[0].ScheduledDate != "2026-12-25" {
		t.Fatalf("earliest instance of the repeated service should survive: %+v", got[0])
	}
}

func TestSearchFlightsPartialFailure(t *testing.T) {
	searcher := stubSearcher{
		byDate: map[string][]flights.Flight{
			"2026-12-25": {flight("SQ100", "2026-12-25", "2026-12-25 08:00")},
		},
		errs: map[string]error{"2026-12-26": errors.New("upstream down")},
	}
	o := New(Tools{Flights: searcher}, time.Second, 3, nil, nil)

	got, err := o.SearchFlights(context.Background(), "Bali", []string{"2026-12-25", "2026-12-26"}, nil)
	if err != nil {
		t.Fatalf("partial failure should not surface an error, got %v", err)
	}
	if len(got) != 1 || got[0].FlightNumber != "SQ100" {
		t.Fatalf("got %+v", got)
	}
}

func TestSearchFlightsAllFailed(t *testing.T) {
	searcher := stubSearcher{errs: map[string]error{
		"2026-12-25": errors.New("upstream down"),
		"2026-12-26": errors.New("upstream down"),
	}}
	o := New(Tools{Flights: searcher}, time.Second, 3, nil, nil)

	got, err := o.SearchFlights(context.Background(), "Bali", []string{"2026-12-25", "2026-12-26"}, nil)
	if err == nil {
		t.Fatal("expected an error when every date fails")
	}
	if len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestSearchFlightsPerDateLimitAndDedupe(t *testing.T) {
	searcher := stubSearcher{byDate: map[string][]flights.Flight{
		"2026-12-25": {
			flight("SQ100", "2026-12-25", "2026-12-25 08:00"),
			flight("SQ100", "2026-12-25", "2026-12-25 08:00"), // duplicate
			flight("SQ102", "2026-12-25", "2026-12-25 10:00"),
			flight("SQ104", "2026-12-25", "2026-12-25 12:00"),
		},
	}}
	o := New(Tools{Flights: searcher}, time.Second, 2, nil, nil)

	got, err := o.SearchFlights(context.Background(), "Bali", []string{"2026-12-25"}, nil)
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d flights, want 2 (per-date limit)", len(got))
	}
	if got[0].FlightNumber != "SQ100" || got[1].FlightNumber != "SQ102" {
		t.Fatalf("got %+v", got)
	}
}

type stubFetcher struct {
	articles []articles.Article
	err      error
}

func (s stubFetcher) Fetch(context.Context, string, int) ([]articles.Article, error) {
	return s.articles, s.err
}

type stubGeocoder struct {
	known map[string]*geocode.Location
}

func (s stubGeocoder) Geocode(_ context.Context, place string) (*geocode.Location, error) {
	return s.known[place], nil
}

type stubVisa struct {
	info *visa.Info
	err  error
}

func (s stubVisa) Lookup(context.Context, string, string) (*visa.Info, error) {
	return s.info, s.err
}

func TestEnrichGathersIndependently(t *testing.T) {
	o := New(Tools{
		Articles: stubFetcher{err: errors.New("feed down")},
		Geocoder: stubGeocoder{known: map[string]*geocode.Location{
			"Ubud, Bali": {Name: "Ubud", Lat: -8.5, Lon: 115.26, Resolved: true},
		}},
		Visa: stubVisa{info: &visa.Info{Status: visa.VisaFree, DaysAllowed: 30}},
	}, time.Second, 3, nil, nil)

	got := o.Enrich(context.Background(), EnrichRequest{
		Destination:  "Bali",
		CountryCode:  "ID",
		Places:       []string{"Ubud", "Made Up Beach"},
		ArticleLimit: 3,
	})

	if len(got.Articles) != 0 {
		t.Fatalf("failed fetcher should yield no articles, got %+v", got.Articles)
	}
	if got.Visa == nil || got.Visa.Status != visa.VisaFree {
		t.Fatalf("visa result lost: %+v", got.Visa)
	}
	if len(got.Locations) != 2 {
		t.Fatalf("got %d locations, want 2", len(got.Locations))
	}
	if !got.Locations[0].Resolved || got.Locations[0].Name != "Ubud" {
		t.Fatalf("resolved place mangled: %+v", got.Locations[0])
	}
	if got.Locations[1].Resolved {
		t.Fatalf("unknown place should stay unresolved: %+v", got.Locations[1])
	}
}

func TestEnrichNothingRequested(t *testing.T) {
	o := New(Tools{}, time.Second, 3, nil, nil)
	got := o.Enrich(context.Background(), EnrichRequest{})
	if got.Visa != nil || got.Articles != nil || got.Locations != nil {
		t.Fatalf("got %+v", got)
	}
}
