package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

type askBody struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	Format     string `json:"format"`
}

type summarizeBody struct {
	DocumentID string `json:"document_id"`
	Style      string `json:"style"`
	Format     string `json:"format"`
}

type searchBody struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	DocumentID string `json:"document_id"`
}

type sourceJSON struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

type hitJSON struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

func (s *Server) ask(c echo.Context) error {
	var in askBody
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	format, err := domain.ParseAnswerFormat(in.Format)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid format"})
	}
	if strings.TrimSpace(in.Query) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Empty query"})
	}

	ans, err := s.ports.Answer.Ask(c.Request().Context(), driving.AskRequest{
		Query:      in.Query,
		DocumentID: in.DocumentID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeAnswer(c, ans, format)
}

func (s *Server) askStream(c echo.Context) error {
	var in askBody
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if strings.TrimSpace(in.Query) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Empty query"})
	}

	events, err := s.ports.Answer.AskStream(c.Request().Context(), driving.AskRequest{
		Query:      in.Query,
		DocumentID: in.DocumentID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeEvents(c, events)
}

func (s *Server) summarize(c echo.Context) error {
	var in summarizeBody
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	format, err := domain.ParseAnswerFormat(in.Format)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid format"})
	}

	ans, err := s.ports.Answer.Summarize(c.Request().Context(), driving.SummarizeRequest{
		DocumentID: in.DocumentID,
		Style:      in.Style,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeAnswer(c, ans, format)
}

func (s *Server) search(c echo.Context) error {
	var in searchBody
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}

	hits, err := s.ports.Search.Retrieve(c.Request().Context(), in.Query, domain.RetrieveOptions{
		TopK:       in.TopK,
		DocumentID: in.DocumentID,
	})
	if err != nil {
		return writeError(c, err)
	}

	out := make([]hitJSON, len(hits))
	for i, h := range hits {
		out[i] = hitJSON{
			ID:         h.ID,
			Text:       h.Text,
			DocumentID: h.Metadata.DocumentID,
			Filename:   h.Metadata.Filename,
			ChunkIndex: h.Metadata.ChunkIndex,
			Score:      h.Score,
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"hits": out})
}

// writeAnswer shapes the answer text. The text format is sent as text/plain
// without sources; lines become a JSON array.
func writeAnswer(c echo.Context, ans *domain.Answer, format domain.AnswerFormat) error {
	shaped := format.Shape(ans.Text)
	if shaped.Format == domain.AnswerFormatText {
		return c.String(http.StatusOK, shaped.Text)
	}

	sources := make([]sourceJSON, len(ans.Sources))
	for i, src := range ans.Sources {
		sources[i] = sourceJSON{ID: src.ID, Filename: src.Filename, ChunkIndex: src.ChunkIndex}
	}

	var answer any = shaped.Text
	if shaped.Format == domain.AnswerFormatLines {
		answer = shaped.Lines
	}
	return c.JSON(http.StatusOK, echo.Map{"answer": answer, "sources": sources})
}
