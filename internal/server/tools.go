package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tripweaver/mcp"
)

// ToolsHandler lists the tool registry for the admin UI.
type ToolsHandler struct {
	Descs []mcp.ToolDesc
	Mode  string // inprocess or mcp
}

type toolEntry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
	Enabled     bool           `json:"enabled"`
}

// Register mounts the tools route.
func (h *ToolsHandler) Register(g *echo.Group) {
	g.GET("/tools", h.list)
}

func (h *ToolsHandler) list(c echo.Context) error {
	entries := make([]toolEntry, 0, len(h.Descs))
	for _, d := range h.Descs {
		entries = append(entries, toolEntry{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
			Enabled:     true,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"mode":  h.Mode,
		"tools": entries,
	})
}
