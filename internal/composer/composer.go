// Package composer assembles the structured chat response: the itinerary
// text plus the tool-result blocks the front-end renders around it.
package composer

import (
	"tripweaver/internal/catalog"
	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/flights"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/links"
	"tripweaver/internal/tools/visa"
)

// BlockType identifies a response block.
type BlockType string

const (
	BlockItinerary BlockType = "itinerary"
	BlockVisa      BlockType = "visa"
	BlockArticles  BlockType = "articles"
	BlockFlights   BlockType = "flights"
	BlockMap       BlockType = "map"
)

// FlightOption is a flight plus its booking link.
type FlightOption struct {
	flights.Flight
	BookingURL string `json:"booking_url,omitempty"`
}

// VisaBlock is the visa-check affordance for the destination country.
type VisaBlock struct {
	Destination string      `json:"destination"`
	Country     string      `json:"country"`
	Status      visa.Status `json:"status"`
	DaysAllowed int         `json:"days_allowed,omitempty"`
	Note        string      `json:"note,omitempty"`
}

// MapBlock carries the geocoded itinerary places, or just a destination
// search link when nothing resolved.
type MapBlock struct {
	Locations []geocode.Location `json:"locations,omitempty"`
	URL       string             `json:"url"`
}

// Block is one renderable unit. Exactly one payload field is set, matching
// Type.
type Block struct {
	Type BlockType `json:"type"`

	Text            string             `json:"text,omitempty"`
	LonelyPlanetURL string             `json:"lonely_planet_url,omitempty"`
	TripComURL      string             `json:"trip_com_url,omitempty"`
	Visa            *VisaBlock         `json:"visa,omitempty"`
	Articles        []articles.Article `json:"articles,omitempty"`
	Flights         []FlightOption     `json:"flights,omitempty"`
	Map             *MapBlock          `json:"map,omitempty"`
}

// Input is everything gathered for one generated itinerary.
type Input struct {
	Itinerary   string
	Destination catalog.City
	Duration    int
	DepartDate  string // first travel date, ISO; empty on best-effort runs
	HomeIATA    string // departure airport code, lowercase

	Flights   []flights.Flight
	Articles  []articles.Article
	Locations []geocode.Location
	Visa      *visa.Info
}

// Compose lays the blocks out in fixed order: itinerary, visa, articles,
// flights, map. Blocks with nothing to show are omitted; the map block
// always appears, falling back to a destination search link.
func Compose(in Input) []Block {
	if in.Itinerary == "" {
		return nil
	}

	out := []Block{{
		Type:            BlockItinerary,
		Text:            in.Itinerary,
		LonelyPlanetURL: links.LonelyPlanet(in.Destination.Name),
		TripComURL:      links.TripComSearch(in.Destination.Name),
	}}

	if in.Visa != nil {
		out = append(out, Block{Type: BlockVisa, Visa: &VisaBlock{
			Destination: in.Destination.Name,
			Country:     in.Destination.Country,
			Status:      in.Visa.Status,
			DaysAllowed: in.Visa.DaysAllowed,
			Note:        in.Visa.Note,
		}})
	}

	if len(in.Articles) > 0 {
		out = append(out, Block{Type: BlockArticles, Articles: in.Articles})
	}

	if len(in.Flights) > 0 {
		out = append(out, Block{Type: BlockFlights, Flights: flightOptions(in)})
	}

	out = append(out, Block{Type: BlockMap, Map: mapBlock(in)})
	return out
}

func flightOptions(in Input) []FlightOption {
	home := in.HomeIATA
	if home == "" {
		home = "sin"
	}
	opts := make([]FlightOption, 0, len(in.Flights))
	for _, f := range in.Flights {
		departDate := f.ScheduledDate
		if departDate == "" {
			departDate = in.DepartDate
		}
		var bookingURL string
		if departDate != "" {
			bookingURL = links.TripComFlights(home, in.Destination.IATA, departDate, links.ReturnDate(departDate, in.Duration), 1)
		}
		opts = append(opts, FlightOption{Flight: f, BookingURL: bookingURL})
	}
	return opts
}

func mapBlock(in Input) *MapBlock {
	for _, loc := range in.Locations {
		if loc.Resolved {
			return &MapBlock{Locations: in.Locations, URL: links.MapPin(loc.Lat, loc.Lon)}
		}
	}
	return &MapBlock{URL: links.MapSearch(in.Destination.Name + ", " + in.Destination.Country)}
}
