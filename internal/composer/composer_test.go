package composer

import (
	"strings"
	"testing"

	"tripweaver/internal/catalog"
	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/flights"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/visa"
)

func bali(t *testing.T) catalog.City {
	t.Helper()
	city, ok := catalog.Find("Bali")
	if !ok {
		t.Fatal("Bali missing from catalog")
	}
	return city
}

func blockTypes(blocks []Block) []BlockType {
	var out []BlockType
	for _, b := range blocks {
		out = append(out, b.Type)
	}
	return out
}

func TestComposeFullOrder(t *testing.T) {
	in := Input{
		Itinerary:   "Day 1: arrive and head to Ubud.",
		Destination: bali(t),
		Duration:    5,
		DepartDate:  "2026-12-25",
		Flights:     []flights.Flight{{FlightNumber: "SQ946", ScheduledDate: "2026-12-25"}},
		Articles:    []articles.Article{{Title: "Three days in Bali", URL: "https://example.com/a"}},
		Locations:   []geocode.Location{{Name: "Ubud", Lat: -8.5, Lon: 115.26, Resolved: true}},
		Visa:        &visa.Info{Status: visa.VisaFree, DaysAllowed: 30},
	}

	blocks := Compose(in)
	want := []BlockType{BlockItinerary, BlockVisa, BlockArticles, BlockFlights, BlockMap}
	got := blockTypes(blocks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block %d is %s, want %s", i, got[i], want[i])
		}
	}

	if blocks[1].Visa.Country != "Indonesia" || blocks[1].Visa.Status != visa.VisaFree {
		t.Fatalf("visa block: %+v", blocks[1].Visa)
	}
	if !strings.Contains(blocks[3].Flights[0].BookingURL, "acity=dps") {
		t.Fatalf("booking url: %s", blocks[3].Flights[0].BookingURL)
	}
	if !strings.Contains(blocks[3].Flights[0].BookingURL, "rdate=2026-12-30") {
		t.Fatalf("return date not derived from duration: %s", blocks[3].Flights[0].BookingURL)
	}
	if len(blocks[4].Map.Locations) != 1 {
		t.Fatalf("map block: %+v", blocks[4].Map)
	}
}

func TestComposeOmitsEmptyBlocks(t *testing.T) {
	blocks := Compose(Input{Itinerary: "Day 1: beach.", Destination: bali(t), Duration: 3})
	got := blockTypes(blocks)
	want := []BlockType{BlockItinerary, BlockMap}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !strings.Contains(blocks[1].Map.URL, "query=Bali") {
		t.Fatalf("map fallback should search the destination: %s", blocks[1].Map.URL)
	}
}

func TestComposeUnresolvedLocationsFallBack(t *testing.T) {
	blocks := Compose(Input{
		Itinerary:   "Day 1: somewhere.",
		Destination: bali(t),
		Locations:   []geocode.Location{{Name: "Made Up Beach"}},
	})
	mapBlk := blocks[len(blocks)-1]
	if mapBlk.Type != BlockMap || len(mapBlk.Map.Locations) != 0 {
		t.Fatalf("unresolved-only locations should fall back: %+v", mapBlk)
	}
}

func TestComposeNoItinerary(t *testing.T) {
	if blocks := Compose(Input{Destination: bali(t)}); blocks != nil {
		t.Fatalf("no itinerary means no blocks, got %v", blockTypes(blocks))
	}
}
