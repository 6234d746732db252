package extractors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// stubExtractor returns fixed output for testing.
type stubExtractor struct {
	name  string
	exts  []string
	mimes []string
	text  string
	err   error
}

func (s *stubExtractor) Name() string                  { return s.name }
func (s *stubExtractor) SupportedExtensions() []string { return s.exts }
func (s *stubExtractor) SupportedMIMETypes() []string  { return s.mimes }
func (s *stubExtractor) Extract(context.Context, string) (string, error) {
	return s.text, s.err
}

func newTestRegistry() *Registry {
	r := NewRegistry(&stubExtractor{name: "fallback", text: "fallback text"})
	r.Register(&stubExtractor{name: "pdf", exts: []string{"pdf"}, mimes: []string{"pdf"}, text: "pdf text"})
	r.Register(&stubExtractor{name: "docx", exts: []string{".DOCX"}, mimes: []string{"wordprocessingml.document"}, text: "docx text"})
	return r
}

func TestSelect(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name        string
		path        string
		contentType string
		want        string
	}{
		{"by extension", "a/report.PDF", "", "pdf"},
		{"dotted upper-case extension registered", "memo.docx", "", "docx"},
		{"extension wins over content type", "memo.docx", "application/pdf", "docx"},
		{"by content type", "upload.bin", "application/pdf", "pdf"},
		{"content type case-insensitive", "upload", "application/vnd.openxmlformats-officedocument.WordprocessingML.Document", "docx"},
		{"fallback", "notes.txt", "text/plain", "fallback"},
		{"no hints", "blob", "", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Select(tt.path, tt.contentType).Name())
		})
	}
}

func TestExtract_Success(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, "pdf text", r.Extract(context.Background(), "x.pdf", ""))
}

func TestExtract_FailureIsMarked(t *testing.T) {
	r := NewRegistry(&stubExtractor{name: "broken", err: errors.New("bad bytes")})

	text := r.Extract(context.Background(), "x.txt", "")
	assert.Equal(t, "[PARSE_ERROR] bad bytes", text)
	assert.True(t, IsParseError(text))
	assert.True(t, strings.HasPrefix(text, driven.ParseErrorMarker))
}

func TestExtract_NoFallback(t *testing.T) {
	r := NewRegistry(nil)
	assert.True(t, IsParseError(r.Extract(context.Background(), "x.bin", "")))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"pdf", "docx"}, newTestRegistry().Names())
}

func TestDefaultRegistry_PlainTextAndMarkdown(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"plaintext", "pdf", "docx", "html", "xlsx", "eml"}, r.Names())

	dir := t.TempDir()
	md := filepath.Join(dir, "readme.md")
	require.NoError(t, os.WriteFile(md, []byte("# Heading\nbody"), 0o600))
	assert.Equal(t, "# Heading\nbody", r.Extract(context.Background(), md, "text/markdown"))

	unknown := filepath.Join(dir, "data.weird")
	require.NoError(t, os.WriteFile(unknown, []byte("raw \xffbytes"), 0o600))
	assert.Equal(t, "raw bytes", r.Extract(context.Background(), unknown, "application/octet-stream"))
}

func TestDefaultRegistry_BrokenDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	assert.True(t, IsParseError(NewDefaultRegistry().Extract(context.Background(), path, "")))
}
