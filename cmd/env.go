package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/district-cli/internal/cache"
	"github.com/sells-group/district-cli/internal/engine"
	"github.com/sells-group/district-cli/internal/fetcher"
	"github.com/sells-group/district-cli/internal/geometry"
	"github.com/sells-group/district-cli/internal/orchestrator"
	"github.com/sells-group/district-cli/internal/resolver"
	"github.com/sells-group/district-cli/internal/validator"
	"github.com/sells-group/district-cli/pkg/geocode"
	"github.com/sells-group/district-cli/pkg/llm"
	"github.com/sells-group/district-cli/pkg/usps"
)

// appEnv wires the configured components for one command invocation.
type appEnv struct {
	store        *geometry.Store
	resolver     *resolver.Resolver
	registry     *validator.Registry
	orchestrator *orchestrator.Orchestrator
	engine       *engine.Engine
	cacheStore   cache.Store
	memCache     *cache.Memory
}

// statusReport pairs the geometry snapshot state with geocode-cache
// effectiveness for the status surfaces.
type statusReport struct {
	Geometry     geometry.Status `json:"geometry"`
	GeocodeCache cache.Stats     `json:"geocode_cache"`
}

func (e *appEnv) status() statusReport {
	return statusReport{
		Geometry:     e.store.Status(),
		GeocodeCache: e.memCache.Stats(),
	}
}

// initEnv builds the component graph from config. loadGeometry controls
// whether the district set is loaded up front; commands that never resolve
// a district skip it.
func initEnv(ctx context.Context, loadGeometry bool) (*appEnv, error) {
	store := geometry.NewStore(fetcher.New(), cfg.Geometry.TempDir, cfg.Geometry.GeometryTTL())
	if loadGeometry {
		if err := store.Load(ctx, cfg.Geometry.Source); err != nil {
			return nil, err
		}
	}
	res := resolver.New(store)

	cacheStore, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	mem := cache.NewMemory(cacheStore, cfg.Cache.GeocodeTTLDuration())

	uspsClient := usps.NewClient(cfg.USPS.UserID,
		usps.WithBaseURL(cfg.USPS.BaseURL),
		usps.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.USPS.TimeoutSecs) * time.Second}),
	)
	censusClient := geocode.NewCensusClient(
		geocode.WithCensusBaseURL(cfg.Census.BaseURL),
		geocode.WithCensusBenchmark(cfg.Census.Benchmark),
		geocode.WithCensusRateLimit(cfg.Census.RateLimit),
		geocode.WithCensusHTTPClient(&http.Client{Timeout: time.Duration(cfg.Census.TimeoutSecs) * time.Second}),
	)
	googleClient := geocode.NewGoogleClient(cfg.Google.APIKey,
		geocode.WithGoogleBaseURL(cfg.Google.BaseURL),
		geocode.WithGoogleHTTPClient(&http.Client{Timeout: time.Duration(cfg.Google.TimeoutSecs) * time.Second}),
	)

	var zipTable *validator.ZipTable
	if cfg.Geometry.ZipTablePath != "" {
		zipTable, err = validator.LoadZipTable(cfg.Geometry.ZipTablePath)
		if err != nil {
			zap.L().Warn("zip table unavailable, falling back to geometry",
				zap.String("path", cfg.Geometry.ZipTablePath),
				zap.Error(err),
			)
		}
	}

	registry := validator.NewRegistry()
	uspsAdapter := validator.NewUSPS(uspsClient, zipTable, res, censusClient, mem)
	registry.Register(uspsAdapter)
	registry.Register(validator.NewCensus(censusClient, res, mem))
	registry.Register(validator.NewGoogle(googleClient, res, mem))

	analysisCfg := orchestrator.DefaultAnalysisConfig()
	if cfg.Validate.AnalysisConfigPath != "" {
		analysisCfg, err = orchestrator.LoadAnalysisConfig(cfg.Validate.AnalysisConfigPath)
		if err != nil {
			return nil, err
		}
	}

	oracle := engine.NewLLMOracle(
		llm.NewClient(cfg.Oracle.APIKey),
		cfg.Oracle.Model,
		int64(cfg.Oracle.MaxTokens),
	)

	return &appEnv{
		store:        store,
		resolver:     res,
		registry:     registry,
		orchestrator: orchestrator.New(registry, analysisCfg, cfg.Validate.AdapterTimeout()),
		engine: engine.New(uspsAdapter, oracle,
			engine.WithMaxRetries(cfg.Engine.MaxRetries),
			engine.WithBudget(cfg.Engine.Budget()),
		),
		cacheStore: cacheStore,
		memCache:   mem,
	}, nil
}

// Close releases held resources.
func (e *appEnv) Close() {
	if e.cacheStore != nil {
		if err := e.cacheStore.Close(); err != nil {
			zap.L().Warn("close cache store", zap.Error(err))
		}
	}
}
