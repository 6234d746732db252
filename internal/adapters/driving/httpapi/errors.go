package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// errorStatus maps a service error to an HTTP status and a caller-safe message.
// Provider and storage details are never echoed back.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrExtractionEmpty):
		return http.StatusBadRequest, "No text extracted"
	case errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "Unsupported file type"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, domain.ErrNoContext):
		return http.StatusNotFound, "No chunks for document"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return http.StatusServiceUnavailable, "Vector index unavailable"
	case errors.Is(err, domain.ErrPrimaryFailed):
		return http.StatusBadGateway, domain.ErrorLabelPrimaryFailed
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusBadGateway, domain.ErrorLabelUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeError(c echo.Context, err error) error {
	status, msg := errorStatus(err)
	return c.JSON(status, echo.Map{"error": msg})
}

// chatErrorLabel maps a raw completion failure to its public label.
func chatErrorLabel(err error) string {
	if errors.Is(err, domain.ErrPrimaryFailed) {
		return domain.ErrorLabelPrimaryFailed
	}
	return domain.ErrorLabelFallbackFailed
}
