package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// writeEvents relays a stream as server-sent events until the channel closes.
// Each event becomes one "event: <kind>\ndata: <data>\n\n" frame.
func writeEvents(c echo.Context, events <-chan domain.StreamEvent) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for ev := range events {
		if _, err := fmt.Fprint(res, formatEvent(ev)); err != nil {
			// Client went away; keep draining so the producer can finish.
			continue
		}
		res.Flush()
	}
	return nil
}

// formatEvent renders one SSE frame. Multi-line data becomes several data lines.
func formatEvent(ev domain.StreamEvent) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(string(ev.Kind))
	b.WriteString("\n")
	for _, line := range strings.Split(ev.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
