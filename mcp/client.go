package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"tripweaver/internal/orchestrator"
	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/flights"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/visa"
)

// Client talks JSON-RPC to a remote tool server. Its adapters satisfy the
// same interfaces as the in-process tools, so the orchestrator cannot tell
// the difference.
type Client struct {
	url        string
	httpClient *http.Client
	nextID     atomic.Int64
}

// NewClient creates a client for the server at url (the /rpc endpoint).
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{url: url, httpClient: &http.Client{Timeout: timeout}}
}

// Initialize performs the handshake and verifies the server is a tool server.
func (c *Client) Initialize(ctx context.Context) error {
	var out struct {
		ProtocolVersion string `json:"protocol_version"`
		Capabilities    struct {
			Tools bool `json:"tools"`
		} `json:"capabilities"`
	}
	if err := c.rpc(ctx, "initialize", nil, &out); err != nil {
		return err
	}
	if !out.Capabilities.Tools {
		return fmt.Errorf("server at %s does not expose tools", c.url)
	}
	return nil
}

// ListTools fetches the advertised tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]ToolDesc, error) {
	var out struct {
		Tools []ToolDesc `json:"tools"`
	}
	if err := c.rpc(ctx, "tools/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Tools, nil
}

// Tools returns the remote-backed tool set.
func (c *Client) Tools() orchestrator.Tools {
	return orchestrator.Tools{
		Flights:  flightSearcher{c},
		Geocoder: geocoder{c},
		Articles: articleFetcher{c},
		Visa:     visaService{c},
	}
}

func (c *Client) call(ctx context.Context, tool string, args map[string]any, out any) error {
	params := map[string]any{"name": tool, "arguments": args}
	return c.rpc(ctx, "tools/call", params, out)
}

func (c *Client) rpc(ctx context.Context, method string, params any, out any) error {
	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return err
		}
		rawParams = data
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tool server: %w", err)
	}
	defer httpResp.Body.Close()

	var resp rpcResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return fmt.Errorf("tool server: decode response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

type flightSearcher struct{ c *Client }

func (f flightSearcher) Search(ctx context.Context, destination, date string) ([]flights.Flight, error) {
	var out struct {
		Flights []flights.Flight `json:"flights"`
	}
	err := f.c.call(ctx, flights.ToolName, map[string]any{"destination": destination, "date": date}, &out)
	return out.Flights, err
}

type geocoder struct{ c *Client }

func (g geocoder) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	var out struct {
		Location *geocode.Location `json:"location"`
	}
	err := g.c.call(ctx, geocode.ToolName, map[string]any{"query": query}, &out)
	return out.Location, err
}

type articleFetcher struct{ c *Client }

func (a articleFetcher) Fetch(ctx context.Context, term string, limit int) ([]articles.Article, error) {
	var out struct {
		Articles []articles.Article `json:"articles"`
	}
	err := a.c.call(ctx, articles.ToolName, map[string]any{"term": term, "limit": limit}, &out)
	return out.Articles, err
}

type visaService struct{ c *Client }

func (v visaService) Lookup(ctx context.Context, nationality, countryCode string) (*visa.Info, error) {
	var out struct {
		Visa *visa.Info `json:"visa"`
	}
	err := v.c.call(ctx, visa.ToolName, map[string]any{"nationality": nationality, "country_code": countryCode}, &out)
	return out.Visa, err
}
