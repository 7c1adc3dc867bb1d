package mcp

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"tripweaver/internal/orchestrator"
	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/flights"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/visa"
)

type stubSearcher struct{ err error }

func (s stubSearcher) Search(_ context.Context, _ string, date string) ([]flights.Flight, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []flights.Flight{{FlightNumber: "TR 280", ScheduledDate: date, DisplayTimestamp: date + " 09:45"}}, nil
}

type stubGeocoder struct{ miss bool }

func (s stubGeocoder) Geocode(_ context.Context, query string) (*geocode.Location, error) {
	if s.miss {
		return nil, nil
	}
	return &geocode.Location{DisplayName: query, Lat: 1.35, Lon: 103.99, Resolved: true}, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, term string, limit int) ([]articles.Article, error) {
	out := []articles.Article{{Title: "Eating through " + term}, {Title: "Hidden beaches of " + term}}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type stubVisa struct{}

func (stubVisa) Lookup(_ context.Context, _, countryCode string) (*visa.Info, error) {
	if countryCode != "ID" {
		return nil, nil
	}
	return &visa.Info{Status: visa.VisaFree, DaysAllowed: 30}, nil
}

func newTestClient(t *testing.T, tools orchestrator.Tools) *Client {
	t.Helper()
	e := echo.New()
	NewServer(tools, time.Second, nil).Attach(e)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/rpc", time.Second)
}

func allStubs() orchestrator.Tools {
	return orchestrator.Tools{
		Flights:  stubSearcher{},
		Geocoder: stubGeocoder{},
		Articles: stubFetcher{},
		Visa:     stubVisa{},
	}
}

func TestInitializeAndList(t *testing.T) {
	c := newTestClient(t, allStubs())
	ctx := context.Background()

	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	descs, err := c.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(descs) != 4 {
		t.Fatalf("tool count = %d", len(descs))
	}
	names := map[string]bool{}
	for _, d := range descs {
		names[d.Name] = true
		if d.InputSchema == nil {
			t.Fatalf("tool %s has no input schema", d.Name)
		}
	}
	for _, want := range []string{flights.ToolName, geocode.ToolName, articles.ToolName, visa.ToolName} {
		if !names[want] {
			t.Fatalf("tool %s not advertised", want)
		}
	}
}

func TestRemoteToolsRoundtrip(t *testing.T) {
	remote := newTestClient(t, allStubs()).Tools()
	ctx := context.Background()

	fs, err := remote.Flights.Search(ctx, "Bali", "2026-12-25")
	if err != nil || len(fs) != 1 || fs[0].FlightNumber != "TR 280" {
		t.Fatalf("Search: (%+v, %v)", fs, err)
	}
	if fs[0].ScheduledDate != "2026-12-25" {
		t.Fatalf("date not carried through: %+v", fs[0])
	}

	loc, err := remote.Geocoder.Geocode(ctx, "Uluwatu Temple, Bali")
	if err != nil || loc == nil || !loc.Resolved {
		t.Fatalf("Geocode: (%+v, %v)", loc, err)
	}

	arts, err := remote.Articles.Fetch(ctx, "Bali", 1)
	if err != nil || len(arts) != 1 {
		t.Fatalf("Fetch: (%+v, %v)", arts, err)
	}

	info, err := remote.Visa.Lookup(ctx, "SG", "ID")
	if err != nil || info == nil || info.Status != visa.VisaFree {
		t.Fatalf("Lookup: (%+v, %v)", info, err)
	}
}

func TestMissesComeBackAsNil(t *testing.T) {
	tools := allStubs()
	tools.Geocoder = stubGeocoder{miss: true}
	remote := newTestClient(t, tools).Tools()
	ctx := context.Background()

	loc, err := remote.Geocoder.Geocode(ctx, "nowhere")
	if err != nil || loc != nil {
		t.Fatalf("miss should be (nil, nil), got (%+v, %v)", loc, err)
	}
	info, err := remote.Visa.Lookup(ctx, "SG", "ZZ")
	if err != nil || info != nil {
		t.Fatalf("miss should be (nil, nil), got (%+v, %v)", info, err)
	}
}

func TestToolErrorPropagates(t *testing.T) {
	tools := allStubs()
	tools.Flights = stubSearcher{err: errors.New("upstream down")}
	remote := newTestClient(t, tools).Tools()

	_, err := remote.Flights.Search(context.Background(), "Bali", "2026-12-25")
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("err = %v", err)
	}
}

func TestBadRequests(t *testing.T) {
	c := newTestClient(t, allStubs())
	ctx := context.Background()

	if err := c.rpc(ctx, "no/such/method", nil, nil); err == nil {
		t.Fatal("unknown method accepted")
	}
	if err := c.call(ctx, "no_such_tool", nil, nil); err == nil {
		t.Fatal("unknown tool accepted")
	}
	if err := c.call(ctx, flights.ToolName, map[string]any{"destination": "Bali"}, nil); err == nil {
		t.Fatal("missing date accepted")
	}
}
