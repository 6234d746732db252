// Package chunker splits extracted text into overlapping, size-bounded passages.
package chunker

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters
// between hard-split windows.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// paragraphSeparator joins packed paragraphs and counts toward chunk size.
const paragraphSeparator = "\n\n"

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Processor packs paragraphs into chunks of at most chunkSize characters.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between hard-split windows in characters.
// An overlap at or above the chunk size still advances one character per window.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits text into chunks.
// Input chunks are ignored; this processor creates new chunks from the text.
func (p *Processor) Process(ctx context.Context, text string, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Chunk(text, p.chunkSize, p.overlap), nil
}

// Chunk splits text into paragraphs and packs them greedily into chunks.
//
// Paragraphs are separated by blank lines and trimmed. A paragraph joins the
// current buffer while the buffer, a "\n\n" separator and the paragraph fit in
// chunkSize. A paragraph longer than chunkSize is cut into windows of chunkSize
// advancing by chunkSize-overlap (at least 1). Text with no paragraphs yields a
// single empty chunk at index 0. Output is deterministic for fixed inputs.
func Chunk(text string, chunkSize, overlap int) []domain.Chunk {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	var texts []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen > 0 {
			texts = append(texts, buf.String())
			buf.Reset()
			bufLen = 0
		}
	}

	for _, para := range splitParagraphs(text) {
		paraLen := utf8.RuneCountInString(para)
		sep := 0
		if bufLen > 0 {
			sep = len(paragraphSeparator)
		}

		if bufLen+paraLen+sep <= chunkSize {
			if bufLen > 0 {
				buf.WriteString(paragraphSeparator)
			}
			buf.WriteString(para)
			bufLen += sep + paraLen
			continue
		}

		flush()
		if paraLen > chunkSize {
			texts = append(texts, hardSplit(para, chunkSize, overlap)...)
			continue
		}
		buf.WriteString(para)
		bufLen = paraLen
	}
	flush()

	if len(texts) == 0 {
		texts = []string{""}
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{Index: i, Text: t}
	}
	return chunks
}

// splitParagraphs splits on blank lines and drops empty paragraphs.
func splitParagraphs(text string) []string {
	parts := blankLine.Split(text, -1)
	paras := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// hardSplit cuts a paragraph into windows of size runes advancing by
// size-overlap. The last windows may be shorter than size.
func hardSplit(para string, size, overlap int) []string {
	runes := []rune(para)
	step := max(1, size-overlap)

	windows := make([]string, 0, len(runes)/step+1)
	for i := 0; i < len(runes); i += step {
		end := min(i+size, len(runes))
		windows = append(windows, string(runes[i:end]))
	}
	return windows
}
