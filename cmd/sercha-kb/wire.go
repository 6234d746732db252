package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/localfs"
	memstore "github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/mongodb"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/vector/chroma"
	memindex "github.com/custodia-labs/sercha-kb/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/extractors"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

// stores groups the metadata stores of one backend.
type stores struct {
	documents driven.DocumentStore
	usage     driven.UsageStore
	close     func() error
}

// closers releases resources in reverse order of acquisition.
type closers []func()

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// build wires the driven adapters into the core services.
func build(ctx context.Context, settings *domain.AppSettings, pipelineCfg domain.PipelineConfig) (*cli.Services, func(), error) {
	var cleanup closers
	fail := func(err error) (*cli.Services, func(), error) {
		cleanup.run()
		return nil, nil, err
	}

	st, err := openStores(ctx, settings.Storage)
	if err != nil {
		return fail(err)
	}
	cleanup = append(cleanup, func() {
		if err := st.close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	})

	files, err := openFileStore(settings.Storage)
	if err != nil {
		return fail(err)
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return fail(err)
	}
	cleanup = append(cleanup, func() {
		if err := embedder.Close(); err != nil {
			logger.Warn("closing embedder: %v", err)
		}
	})

	index, err := openIndex(ctx, settings.VectorIndex, embedder.Dimensions())
	if err != nil {
		return fail(err)
	}
	cleanup = append(cleanup, func() {
		if err := index.Close(); err != nil {
			logger.Warn("closing vector index: %v", err)
		}
	})

	providers := ai.CreateProviders(settings.LLM)
	cleanup = append(cleanup, providers.Close)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fail(fmt.Errorf("opening prompts: %w", err))
	}

	pipeline, err := postprocessors.NewDefaultPipeline(pipelineCfg)
	if err != nil {
		return fail(fmt.Errorf("creating pipeline: %w", err))
	}

	generator := services.NewGenerator(providers.Primary, providers.Fallback, settings.LLM.Primary.Timeout)
	analytics := services.NewAnalyticsService(st.usage)
	cleanup = append(cleanup, analytics.Flush)
	search := services.NewSearchService(embedder, index)
	indexer := services.NewIndexer(embedder, index)

	svcs := &cli.Services{
		Ingest: services.NewIngestService(
			files, extractors.NewDefaultRegistry(), pipeline, indexer, index, st.documents, analytics,
		),
		Search:    search,
		Answer:    services.NewAnswerService(search, index, generator, prompts, analytics),
		Chat:      services.NewChatService(generator),
		Document:  services.NewDocumentService(st.documents, index, files),
		Analytics: analytics,
		Server:    settings.Server,
		Providers: providerNames(providers),
	}

	logger.Debug("Embedder %s (%d dims), index %s, store %s",
		embedder.ModelName(), embedder.Dimensions(), settings.VectorIndex.Backend, settings.Storage.Backend)
	return svcs, cleanup.run, nil
}

func openStores(ctx context.Context, cfg domain.StorageSettings) (*stores, error) {
	switch cfg.Backend {
	case domain.StoreBackendMemory:
		return &stores{
			documents: memstore.NewDocumentStore(),
			usage:     memstore.NewUsageStore(),
			close:     func() error { return nil },
		}, nil
	case domain.StoreBackendMongo:
		s, err := mongodb.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("opening mongodb store: %w", err)
		}
		return &stores{documents: s.DocumentStore(), usage: s.UsageStore(), close: s.Close}, nil
	case domain.StoreBackendSQLite, "":
		s, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return &stores{documents: s.DocumentStore(), usage: s.UsageStore(), close: s.Close}, nil
	default:
		return nil, fmt.Errorf("storage backend %q: %w", cfg.Backend, domain.ErrUnsupportedType)
	}
}

func openFileStore(cfg domain.StorageSettings) (*localfs.FileStore, error) {
	dir := cfg.FileDir
	if dir == "" {
		base, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "files")
	}
	files, err := localfs.NewFileStore(dir, domain.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("opening file store: %w", err)
	}
	return files, nil
}

func openIndex(ctx context.Context, cfg domain.VectorIndexSettings, dimension int) (driven.VectorIndex, error) {
	switch cfg.Backend {
	case domain.VectorBackendMemory, "":
		return memindex.NewIndex(dimension), nil
	case domain.VectorBackendChroma:
		idx, err := chroma.NewIndex(chroma.Config{
			Host:       cfg.ChromaHost,
			Port:       cfg.ChromaPort,
			Dimension:  dimension,
			APIVersion: cfg.ChromaAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("opening chroma index: %w", err)
		}
		return idx, nil
	case domain.VectorBackendPGVector:
		idx, err := pgvector.NewIndex(ctx, cfg.PostgresDSN, dimension)
		if err != nil {
			return nil, fmt.Errorf("opening pgvector index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("vector backend %q: %w", cfg.Backend, domain.ErrUnsupportedType)
	}
}

// providerNames lists the built completion providers in fallback order.
func providerNames(p *ai.Providers) []string {
	var names []string
	for _, svc := range []driven.LLMService{p.Primary, p.Fallback} {
		if svc != nil {
			names = append(names, svc.Name())
		}
	}
	return names
}
