package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openclaw/tubebrief/internal/assistant"
	"github.com/openclaw/tubebrief/internal/metrics"
	"github.com/openclaw/tubebrief/internal/qa"
)

// MessagesHandler exposes the assistant's message entry point.
type MessagesHandler struct {
	Assistant *assistant.Assistant
	Logger    *log.Logger
}

func (h *MessagesHandler) Register(g *echo.Group) {
	g.POST("/messages", h.handleMessage)
}

type messageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type messageResponse struct {
	Reply string `json:"reply"`
}

func (h *MessagesHandler) handleMessage(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	requestID := uuid.NewString()
	start := time.Now()
	// A unit of work outlives its trigger: an aborted request must still
	// finish and commit, with later messages applied in arrival order.
	ctx := context.WithoutCancel(c.Request().Context())
	reply, err := h.Assistant.HandleMessage(ctx, req.UserID, req.Text)
	metrics.RequestDuration.WithLabelValues("messages").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("error").Inc()
		h.Logger.Printf("req=%s user=%s failed: %v", requestID, req.UserID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	outcome := "ok"
	if reply == qa.RefusalText {
		outcome = "refused"
	}
	metrics.MessagesTotal.WithLabelValues(outcome).Inc()
	h.Logger.Printf("req=%s user=%s handled in %s", requestID, req.UserID, time.Since(start).Round(time.Millisecond))
	return c.JSON(http.StatusOK, messageResponse{Reply: reply})
}
