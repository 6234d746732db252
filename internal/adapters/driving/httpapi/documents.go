package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

type documentJSON struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Ext         string `json:"ext"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	UploadedAt  string `json:"uploaded_at"`
	ChunkCount  int    `json:"chunk_count"`
}

type documentPageJSON struct {
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Total int            `json:"total"`
	Items []documentJSON `json:"items"`
}

func toDocumentJSON(doc *domain.Document) documentJSON {
	return documentJSON{
		ID:          doc.ID,
		Filename:    doc.Filename,
		Ext:         doc.Ext,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		UploadedAt:  doc.UploadedAt.UTC().Format(time.RFC3339),
		ChunkCount:  doc.ChunkCount,
	}
}

func (s *Server) uploadDocument(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fh.Size > domain.MaxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "File too large"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable upload"})
	}
	defer f.Close()

	res, err := s.ports.Ingest.IngestFile(c.Request().Context(), driving.IngestRequest{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"document_id": res.DocumentID, "chunks": res.Chunks})
}

func (s *Server) listDocuments(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
	}
	size, err := queryInt(c, "size", domain.DefaultPageSize)
	if err != nil || size > domain.MaxPageSize {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid size"})
	}

	out, err := s.ports.Document.List(c.Request().Context(), domain.DocumentQuery{
		Search:   c.QueryParam("search"),
		Ext:      c.QueryParam("ext"),
		DateFrom: domain.ParseDate(c.QueryParam("date_from")),
		DateTo:   domain.ParseDate(c.QueryParam("date_to")),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		return writeError(c, err)
	}

	resp := documentPageJSON{
		Page:  out.Page,
		Size:  out.Size,
		Total: out.Total,
		Items: make([]documentJSON, len(out.Items)),
	}
	for i := range out.Items {
		resp.Items[i] = toDocumentJSON(&out.Items[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getDocument(c echo.Context) error {
	doc, err := s.ports.Document.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toDocumentJSON(doc))
}

func (s *Server) deleteDocument(c echo.Context) error {
	if err := s.ports.Document.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// queryInt parses an optional positive integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, domain.ErrInvalidInput
	}
	return n, nil
}
