package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tripweaver/internal/agentdef"
)

// AgentsHandler serves agent definition CRUD.
type AgentsHandler struct {
	Registry *agentdef.Registry
}

// Register mounts the agent routes.
func (h *AgentsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *AgentsHandler) list(c echo.Context) error {
	agents, err := h.Registry.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, agents)
}

func (h *AgentsHandler) create(c echo.Context) error {
	var a agentdef.Agent
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if a.ID == "" {
		a.ID = slugOrUUID(a.Name)
	}
	if existing, err := h.Registry.Get(a.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "agent already exists: "+a.ID)
	}
	if err := h.Registry.Save(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AgentsHandler) get(c echo.Context) error {
	a, err := h.Registry.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if a == nil {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AgentsHandler) update(c echo.Context) error {
	var a agentdef.Agent
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = c.Param("id")
	if existing, err := h.Registry.Get(a.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	if err := h.Registry.Save(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AgentsHandler) remove(c echo.Context) error {
	ok, err := h.Registry.Delete(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// slugOrUUID derives an agent id from its name, falling back to a random id
// for unusable names.
func slugOrUUID(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(name))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}
