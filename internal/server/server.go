// Package server is the HTTP surface: the chat endpoint plus admin CRUD for
// agents, workflows, and the tool registry listing.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"tripweaver/config"
	"tripweaver/internal/agentdef"
	"tripweaver/internal/chat"
	"tripweaver/internal/telemetry"
	"tripweaver/internal/workflow"
	"tripweaver/mcp"
)

// Deps are the wired components the server exposes.
type Deps struct {
	Engine    *chat.Engine
	Agents    *agentdef.Registry
	Workflows *workflow.Registry
	Router    *workflow.Router
	ToolDescs []mcp.ToolDesc
	ToolsMode string
	Metrics   *telemetry.Metrics
}

// Server is the HTTP front of the assistant.
type Server struct {
	e      *echo.Echo
	cfg    *config.Config
	logger *log.Logger
}

// New builds the echo instance and registers all routes.
func New(cfg *config.Config, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	api := e.Group("/api")

	ch := &ChatHandler{Engine: deps.Engine, CookieTTL: cfg.Session.TTL}
	ch.Register(api)

	ah := &AgentsHandler{Registry: deps.Agents}
	ah.Register(api.Group("/agents"))

	wh := &WorkflowsHandler{Registry: deps.Workflows, Router: deps.Router}
	wh.Register(api.Group("/workflows"))

	th := &ToolsHandler{Descs: deps.ToolDescs, Mode: deps.ToolsMode}
	th.Register(api)

	return &Server{e: e, cfg: cfg, logger: logger}
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address
	s.logger.Printf("listening on %s", addr)
	return s.e.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo { return s.e }
