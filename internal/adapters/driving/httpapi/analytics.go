package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type dailyJSON struct {
	Date   string `json:"date"`
	Events int    `json:"events"`
}

func (s *Server) analyticsSummary(c echo.Context) error {
	days := domain.DefaultSummaryDays
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !domain.ValidSummaryDays(n) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be between 1 and 90"})
		}
		days = n
	}

	sum, err := s.ports.Analytics.Summary(c.Request().Context(), days)
	if err != nil {
		return writeError(c, err)
	}

	perDay := make([]dailyJSON, len(sum.PerDay))
	for i, d := range sum.PerDay {
		perDay[i] = dailyJSON{Date: d.Date, Events: d.Events}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"since": sum.Since.UTC().Format(time.RFC3339),
		"totals": echo.Map{
			"uploads":   sum.Uploads,
			"questions": sum.Questions,
		},
		"per_day": perDay,
	})
}
