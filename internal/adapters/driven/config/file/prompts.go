package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// template is a built-in prompt and the number of %s verbs an override must keep.
type template struct {
	text  string
	verbs int
}

//nolint:lll
var builtins = map[string]template{
	driven.PromptGroundedAnswer: {
		text:  "Answer the question using ONLY the context. If the answer isn't in the context, say you don't know.\n\nCONTEXT:\n%s\n\nQUESTION:\n%s\n\nAnswer:",
		verbs: 2,
	},
	driven.PromptGroundedSystem: {text: "You are a concise assistant. Answer using only the provided context."},
	driven.PromptSummarizeStyle: {text: "Summarize this document into clear sections and a one-line takeaway."},
}

// DefaultPrompts returns the built-in templates keyed by prompt name.
func DefaultPrompts() map[string]string {
	out := make(map[string]string, len(builtins))
	for name, t := range builtins {
		out[name] = t.text
	}
	return out
}

// PromptStore serves prompt templates from <dir>/<name>.txt, seeding the
// directory with the built-ins on first Load. Invalid overrides are ignored.
type PromptStore struct {
	dir string

	mu     sync.Mutex
	seeded bool
	cache  map[string]string
}

// NewPromptStore returns a store rooted at dir, or ~/.sercha-kb/prompts when empty.
// Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the template for name, preferring a valid user override.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prompt, ok := s.cache[name]; ok {
		return prompt, nil
	}
	if err := s.seed(); err != nil {
		logger.Warn("prompts: %v; using built-ins", err)
	}

	prompt, err := s.read(name)
	if err != nil {
		builtin, ok := builtins[name]
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			logger.Debug("prompts: ignoring override %q: %v", name, err)
		}
		prompt = builtin.text
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load rereads the files.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// seed writes missing built-ins once. A failure is retried on the next Load.
func (s *PromptStore) seed() error {
	if s.seeded {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for name, t := range builtins {
		path := s.path(name)
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(t.text+"\n"), 0600); err != nil {
			return fmt.Errorf("write default prompt %q: %w", name, err)
		}
	}
	s.seeded = true
	return nil
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt %q is empty", name)
	}
	if t, ok := builtins[name]; ok {
		if got := strings.Count(prompt, "%s"); got != t.verbs {
			return "", fmt.Errorf("prompt %q has %d %%s placeholders, want %d", name, got, t.verbs)
		}
	}
	return prompt, nil
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}
