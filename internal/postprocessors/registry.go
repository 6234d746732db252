package postprocessors

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// ErrUnknownProcessor is returned when a pipeline names an unregistered processor.
var ErrUnknownProcessor = errors.New("unknown processor")

// BuilderFunc creates a processor from its [pipeline.<name>] settings.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register binds name to builder, replacing any earlier binding.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the named processor.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok || builder == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
	}
	return builder(cfg)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// BuildPipeline builds cfg.Processors in order. Ingestion needs chunks, so an
// empty list is an error, as is naming the same processor twice.
func (r *Registry) BuildPipeline(cfg domain.PipelineConfig) (*Pipeline, error) {
	if len(cfg.Processors) == 0 {
		return nil, errors.New("pipeline has no processors")
	}

	p := NewPipeline()
	seen := make(map[string]bool, len(cfg.Processors))
	for _, name := range cfg.Processors {
		if seen[name] {
			return nil, fmt.Errorf("processor %s listed twice", name)
		}
		seen[name] = true

		stage, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, err
		}
		p.Add(stage)
	}
	return p, nil
}
