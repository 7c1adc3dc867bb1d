// Package changi implements flight search against the Changi Airport
// GraphQL API.
package changi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"tripweaver/config"
	"tripweaver/internal/tools/flights"
)

const (
	defaultAPIURL = "https://vjk4bub6rbbjrflwlroku34myi.appsync-api.ap-southeast-1.amazonaws.com/graphql"
	defaultAPIKey = "da2-rkyh2gb2kvft3oco3l6eaqmlb4"
)

// Client queries the Changi departures search endpoint.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// New creates a Changi flight searcher. Request deadlines come from the
// caller's context, not the client.
func New(cfg config.FlightsConfig, logger *log.Logger) *Client {
	url := cfg.APIURL
	if url == "" {
		url = defaultAPIURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = defaultAPIKey
	}
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

const searchQuery = `query searchAll {
  searchCA_v2(text: %q, category: FLIGHTS, page_size: 100, page_number: 1, filter: { terminal:"" direction:DEP scheduled_date: %q }) {
    items {
      ... on Flight {
        flight_number
        scheduled_date
        scheduled_time
        display_timestamp
        direction
        terminal
        display_gate
        airport_details { city country_code }
        airline_details { name code }
        via_airport_details { city }
        status_mapping { details_status_en listing_status_en }
      }
    }
    total
  }
}`

type searchResponse struct {
	Data struct {
		SearchCAV2 *struct {
			Items []searchItem `json:"items"`
			Total int          `json:"total"`
		} `json:"searchCA_v2"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type searchItem struct {
	FlightNumber     string `json:"flight_number"`
	ScheduledDate    string `json:"scheduled_date"`
	ScheduledTime    string `json:"scheduled_time"`
	DisplayTimestamp string `json:"display_timestamp"`
	Direction        string `json:"direction"`
	Terminal         string `json:"terminal"`
	DisplayGate      string `json:"display_gate"`
	AirportDetails   *struct {
		City        string `json:"city"`
		CountryCode string `json:"country_code"`
	} `json:"airport_details"`
	AirlineDetails *struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"airline_details"`
	ViaAirportDetails *struct {
		City string `json:"city"`
	} `json:"via_airport_details"`
	StatusMapping *struct {
		DetailsStatusEN string `json:"details_status_en"`
		ListingStatusEN string `json:"listing_status_en"`
	} `json:"status_mapping"`
}

// Search implements flights.Searcher for one destination and date.
func (c *Client) Search(ctx context.Context, destination, date string) ([]flights.Flight, error) {
	payload, err := json.Marshal(map[string]string{
		"query": fmt.Sprintf(searchQuery, destination, date),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flight search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("flight search status %d: %s", resp.StatusCode, string(b))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode flight search response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("flight search graphql error: %s", out.Errors[0].Message)
	}
	if out.Data.SearchCAV2 == nil {
		return nil, fmt.Errorf("flight search response missing result for %s on %s", destination, date)
	}

	var result []flights.Flight
	for _, item := range out.Data.SearchCAV2.Items {
		if item.Direction != "DEP" {
			continue
		}
		result = append(result, item.toFlight())
	}
	if c.logger != nil {
		c.logger.Printf("changi: %d departures to %s on %s", len(result), destination, date)
	}
	return result, nil
}

func (i searchItem) toFlight() flights.Flight {
	f := flights.Flight{
		FlightNumber:     i.FlightNumber,
		ScheduledDate:    i.ScheduledDate,
		ScheduledTime:    i.ScheduledTime,
		DisplayTimestamp: i.DisplayTimestamp,
		Terminal:         i.Terminal,
		Gate:             i.DisplayGate,
	}
	if i.AirportDetails != nil {
		f.City = i.AirportDetails.City
		f.CountryCode = i.AirportDetails.CountryCode
	}
	if i.AirlineDetails != nil {
		f.Airline = i.AirlineDetails.Name
		f.AirlineCode = i.AirlineDetails.Code
	}
	if i.ViaAirportDetails != nil {
		f.ViaCity = i.ViaAirportDetails.City
	}
	if i.StatusMapping != nil {
		f.Status = i.StatusMapping.DetailsStatusEN
		if f.Status == "" {
			f.Status = i.StatusMapping.ListingStatusEN
		}
	}
	return f
}
