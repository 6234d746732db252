package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

type chatBody struct {
	Prompt string `json:"prompt"`
	System string `json:"system"`
	Model  string `json:"model"`
}

func (b chatBody) request() domain.CompletionRequest {
	return domain.CompletionRequest{Prompt: b.Prompt, System: b.System, Model: b.Model}
}

func (s *Server) chatComplete(c echo.Context) error {
	var in chatBody
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}

	reply, err := s.ports.Chat.Complete(c.Request().Context(), in.request())
	if err != nil {
		logger.Warn("chat completion failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": chatErrorLabel(err)})
	}
	return c.JSON(http.StatusOK, echo.Map{"reply": reply})
}

func (s *Server) chatStream(c echo.Context) error {
	var in chatBody
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	return writeEvents(c, s.ports.Chat.Stream(c.Request().Context(), in.request()))
}
