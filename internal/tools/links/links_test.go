package links

import (
	"net/url"
	"strings"
	"testing"
)

func TestLonelyPlanet(t *testing.T) {
	got := LonelyPlanet("Gardens by the Bay")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("bad url: %v", err)
	}
	if u.Query().Get("q") != "Gardens by the Bay" || u.Query().Get("sortBy") != "pois" {
		t.Fatalf("got %s", got)
	}
}

func TestTripComSearchEncodesSpaces(t *testing.T) {
	got := TripComSearch("night safari singapore")
	if !strings.Contains(got, "keyword=night%20safari%20singapore") {
		t.Fatalf("got %s", got)
	}
}

func TestTripComFlights(t *testing.T) {
	got := TripComFlights("sin", "kul", "2026-12-25", "2026-12-28", 2)
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("bad url: %v", err)
	}
	q := u.Query()
	for key, want := range map[string]string{
		"dcity": "sin", "acity": "kul",
		"ddate": "2026-12-25", "rdate": "2026-12-28",
		"quantity": "2", "triptype": "rt", "curr": "SGD",
	} {
		if q.Get(key) != want {
			t.Errorf("%s = %q, want %q", key, q.Get(key), want)
		}
	}
}

func TestReturnDate(t *testing.T) {
	if got := ReturnDate("2026-12-25", 3); got != "2026-12-28" {
		t.Fatalf("got %s", got)
	}
	if got := ReturnDate("not-a-date", 3); got != "not-a-date" {
		t.Fatalf("bad input should pass through, got %s", got)
	}
}

func TestMapLinks(t *testing.T) {
	if got := MapSearch("Ubud"); !strings.Contains(got, "query=Ubud") {
		t.Fatalf("got %s", got)
	}
	if got := MapPin(1.3521, 103.8198); !strings.Contains(got, "1.352100%2C103.819800") {
		t.Fatalf("got %s", got)
	}
}
