package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tripweaver/internal/chat"
)

const sessionCookie = "session_id"

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	Engine    *chat.Engine
	CookieTTL time.Duration
}

// Register mounts the chat routes on the API group.
func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.POST("/reset", h.reset)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req chat.TurnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" && req.SelectedFlightIndex == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	if req.SessionID == "" {
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			req.SessionID = cookie.Value
		}
	}

	resp, err := h.Engine.HandleTurn(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.setCookie(c, resp.SessionID, h.CookieTTL)
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) reset(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	_ = c.Bind(&req)
	if req.SessionID == "" {
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			req.SessionID = cookie.Value
		}
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no session to reset")
	}

	if err := h.Engine.Reset(c.Request().Context(), req.SessionID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.setCookie(c, "", -time.Hour)
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}

func (h *ChatHandler) setCookie(c echo.Context, sessionID string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
