// Package links builds outbound booking and content URLs. Everything here is
// pure string assembly; no network calls.
package links

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ToolName is the wire name of the link generation tool.
const ToolName = "generate_links"

// LonelyPlanet returns a Lonely Planet point-of-interest search URL.
func LonelyPlanet(query string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sortBy", "pois")
	return "https://www.lonelyplanet.com/search?" + q.Encode()
}

// TripComSearch returns a Trip.com activity search URL.
func TripComSearch(query string) string {
	// Trip.com expects %20 for spaces in the keyword
	keyword := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return fmt.Sprintf("https://www.trip.com/global-search/searchlist/search/?keyword=%s&from=home", keyword)
}

// TripComFlights returns a Trip.com round-trip fare search URL between two
// airports (lowercase IATA city codes) for the given ISO dates.
func TripComFlights(departureCode, arrivalCode, departDate, returnDate string, passengers int) string {
	if passengers < 1 {
		passengers = 1
	}
	q := url.Values{}
	q.Set("dcity", departureCode)
	q.Set("acity", arrivalCode)
	q.Set("ddate", departDate)
	q.Set("rdate", returnDate)
	q.Set("dairport", departureCode)
	q.Set("triptype", "rt")
	q.Set("class", "y")
	q.Set("lowpricesource", "searchform")
	q.Set("quantity", strconv.Itoa(passengers))
	q.Set("searchboxarg", "t")
	q.Set("nonstoponly", "off")
	q.Set("locale", "en-SG")
	q.Set("curr", "SGD")
	return "https://sg.trip.com/flights/showfarefirst?" + q.Encode()
}

// ReturnDate adds the trip duration to a departure date. A bad departure
// date falls back to itself.
func ReturnDate(departDate string, durationDays int) string {
	t, err := time.Parse("2006-01-02", departDate)
	if err != nil {
		return departDate
	}
	return t.AddDate(0, 0, durationDays).Format("2006-01-02")
}

// MapPin returns a map link centred on coordinates.
func MapPin(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f%%2C%f", lat, lon)
}

// MapSearch returns a map link for a named place, used when geocoding came
// up empty.
func MapSearch(place string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", place)
	return "https://www.google.com/maps/search/?" + q.Encode()
}
