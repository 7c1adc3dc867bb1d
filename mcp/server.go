// Package mcp exposes the travel tools over JSON-RPC 2.0 so they can run as
// a separate process. The chat server talks to it through Client; the tool
// implementations behind Server are the same ones used in-process.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tripweaver/internal/orchestrator"
	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/flights"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/visa"
)

// ProtocolVersion is the JSON-RPC surface version advertised by initialize.
const ProtocolVersion = "2024-11-05"

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc %d: %s", e.Code, e.Message) }

const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// ToolDesc describes one tool to clients, including its input schema.
type ToolDesc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Server serves the tool set over JSON-RPC.
type Server struct {
	tools   orchestrator.Tools
	timeout time.Duration // per tools/call
	logger  *log.Logger
	descs   []ToolDesc
}

// NewServer wraps a tool set. timeout bounds every tools/call handler.
func NewServer(tools orchestrator.Tools, timeout time.Duration, logger *log.Logger) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Server{tools: tools, timeout: timeout, logger: logger}
	s.initDescs()
	return s
}

func (s *Server) initDescs() {
	s.descs = []ToolDesc{
		{
			Name:        flights.ToolName,
			Description: "Search departures from Singapore to a supported city on one date.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"destination": map[string]any{"type": "string"},
					"date":        map[string]any{"type": "string", "description": "YYYY-MM-DD"},
				},
				"required": []string{"destination", "date"},
			},
		},
		{
			Name:        geocode.ToolName,
			Description: "Resolve a place name to coordinates.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        articles.ToolName,
			Description: "Fetch recent travel articles about a destination.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"term":  map[string]any{"type": "string"},
					"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
				},
				"required": []string{"term"},
			},
		},
		{
			Name:        visa.ToolName,
			Description: "Look up entry requirements for a nationality and destination country.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"nationality":  map[string]any{"type": "string"},
					"country_code": map[string]any{"type": "string"},
				},
				"required": []string{"country_code"},
			},
		},
	}
}

// Tools returns the advertised descriptors.
func (s *Server) Tools() []ToolDesc { return s.descs }

// Attach mounts the RPC endpoint on an echo instance.
func (s *Server) Attach(e *echo.Echo) {
	e.POST("/rpc", s.handle)
}

func (s *Server) handle(c echo.Context) error {
	var req rpcRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeInvalidParams, Message: "malformed request"},
		})
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	result, err := s.dispatch(c.Request().Context(), req)
	if err != nil {
		var re *rpcError
		if !errors.As(err, &re) {
			re = &rpcError{Code: codeToolFailed, Message: err.Error()}
		}
		if s.logger != nil {
			s.logger.Printf("rpc %s: %v", req.Method, err)
		}
		resp.Error = re
		return c.JSON(http.StatusOK, resp)
	}
	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = &rpcError{Code: codeToolFailed, Message: err.Error()}
		return c.JSON(http.StatusOK, resp)
	}
	resp.Result = data
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) dispatch(ctx context.Context, req rpcRequest) (any, error) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocol_version": ProtocolVersion,
			"server_name":      "tripweaver-tools",
			"capabilities":     map[string]any{"tools": true},
		}, nil

	case "tools/list":
		return map[string]any{"tools": s.descs}, nil

	case "tools/call":
		var params struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "malformed params"}
		}
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.callTool(callCtx, params.Name, params.Arguments)

	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "unknown method: " + req.Method}
	}
}

func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case flights.ToolName:
		return s.tSearchFlights(ctx, args)
	case geocode.ToolName:
		return s.tGeocode(ctx, args)
	case articles.ToolName:
		return s.tFetchArticles(ctx, args)
	case visa.ToolName:
		return s.tVisaLookup(ctx, args)
	default:
		return nil, &rpcError{Code: codeInvalidParams, Message: "unknown tool: " + name}
	}
}

func (s *Server) tSearchFlights(ctx context.Context, args map[string]any) (any, error) {
	destination := str(args["destination"])
	date := str(args["date"])
	if destination == "" || date == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "destination and date are required"}
	}
	if s.tools.Flights == nil {
		return nil, errors.New("flight search not configured")
	}
	fs, err := s.tools.Flights.Search(ctx, destination, date)
	if err != nil {
		return nil, err
	}
	return map[string]any{"flights": fs}, nil
}

func (s *Server) tGeocode(ctx context.Context, args map[string]any) (any, error) {
	query := str(args["query"])
	if query == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "query is required"}
	}
	if s.tools.Geocoder == nil {
		return nil, errors.New("geocoding not configured")
	}
	loc, err := s.tools.Geocoder.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	return map[string]any{"location": loc}, nil
}

func (s *Server) tFetchArticles(ctx context.Context, args map[string]any) (any, error) {
	term := str(args["term"])
	if term == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "term is required"}
	}
	if s.tools.Articles == nil {
		return nil, errors.New("article fetch not configured")
	}
	limit := clampInt(asInt(args["limit"]), 1, 10)
	arts, err := s.tools.Articles.Fetch(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"articles": arts}, nil
}

func (s *Server) tVisaLookup(ctx context.Context, args map[string]any) (any, error) {
	country := str(args["country_code"])
	if country == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "country_code is required"}
	}
	if s.tools.Visa == nil {
		return nil, errors.New("visa lookup not configured")
	}
	info, err := s.tools.Visa.Lookup(ctx, str(args["nationality"]), country)
	if err != nil {
		return nil, err
	}
	return map[string]any{"visa": info}, nil
}

func str(v any) string { s, _ := v.(string); return s }

func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case json.Number:
		i, _ := x.Int64()
		return int(i)
	default:
		return 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
