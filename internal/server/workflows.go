package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tripweaver/internal/workflow"
)

// WorkflowsHandler serves workflow definition CRUD, validation, and routed
// chat.
type WorkflowsHandler struct {
	Registry *workflow.Registry
	Router   *workflow.Router
}

// Register mounts the workflow routes.
func (h *WorkflowsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.POST("/:id/validate", h.validate)
	g.POST("/:id/chat", h.chat)
}

func (h *WorkflowsHandler) list(c echo.Context) error {
	workflows, err := h.Registry.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, workflows)
}

func (h *WorkflowsHandler) create(c echo.Context) error {
	var w workflow.Workflow
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if existing, err := h.Registry.Get(w.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "workflow already exists: "+w.ID)
	}
	if err := h.Registry.Save(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *WorkflowsHandler) get(c echo.Context) error {
	w, err := h.Registry.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if w == nil {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WorkflowsHandler) update(c echo.Context) error {
	var w workflow.Workflow
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w.ID = c.Param("id")
	if existing, err := h.Registry.Get(w.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	if err := h.Registry.Save(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WorkflowsHandler) remove(c echo.Context) error {
	ok, err := h.Registry.Delete(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// validate re-checks a stored workflow's structure and resolvable execution
// path without modifying it.
func (h *WorkflowsHandler) validate(c echo.Context) error {
	w, err := h.Registry.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if w == nil {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}

	errs := w.Validate()
	var agents []string
	if len(errs) == 0 {
		path, err := w.Path()
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			agents = path
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"valid":  len(errs) == 0,
		"errors": errs,
		"agents": agents,
	})
}

// chat routes a message through the workflow's agent chain.
func (h *WorkflowsHandler) chat(c echo.Context) error {
	if h.Router == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "workflow routing not configured")
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	out, err := h.Router.Route(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": out})
}
