package commands

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-screener/internal/cache"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/external/wikipedia"
	"github.com/wonny/aegis-screener/internal/external/yahoo"
	"github.com/wonny/aegis-screener/internal/pipeline"
	"github.com/wonny/aegis-screener/internal/prescreen"
	"github.com/wonny/aegis-screener/internal/selection"
	"github.com/wonny/aegis-screener/internal/strategyconfig"
	"github.com/wonny/aegis-screener/internal/universe"
	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/httputil"
	"github.com/wonny/aegis-screener/pkg/logger"
	"github.com/wonny/aegis-screener/pkg/redis"
)

// app holds the wired components shared by all commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	cache    *cache.ResultCache
	service  *pipeline.Service
	snaps    *cache.SnapshotCache
	strategy *strategyconfig.Config
	locker   *redis.Cache // nil unless REDIS_ENABLED
	cleanup  []func()
}

// Close releases every resource opened by newApp, last opened first
func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

// loadBase reads config and builds the logger, applying global flags
func loadBase() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if universeFlag != "" {
		cfg.Universe.Kind = universeFlag
	}
	if strategyFile != "" {
		cfg.Screener.StrategyFile = strategyFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}

// openCache opens only the result cache (cache/export commands)
func openCache(ctx context.Context) (*app, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return nil, err
	}

	rc, closeCache, err := cache.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return &app{cfg: cfg, log: log, cache: rc, cleanup: []func(){closeCache}}, nil
}

// newApp wires the full screening stack
// config → logger → cache → sources → strategy → pipeline
func newApp(ctx context.Context) (*app, error) {
	a, err := openCache(ctx)
	if err != nil {
		return nil, err
	}
	cfg, log := a.cfg, a.log

	kind, err := contracts.ParseUniverseKind(cfg.Universe.Kind)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 1. Strategy thresholds
	strategy, _, err := strategyconfig.LoadOrDefault(cfg.Screener.StrategyFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.CheckWarnings(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("hash strategy: %w", err)
	}
	a.strategy = strategy

	// 2. External sources
	wikiHTTP := httputil.New(log, cfg.Yahoo.Timeout)
	wiki := wikipedia.NewClient(wikiHTTP, log)
	source := universe.NewSource(wiki, universe.Config{
		SP500URL:     cfg.Universe.SP500URL,
		Nasdaq100URL: cfg.Universe.Nasdaq100URL,
	}, log)

	yahooHTTP := httputil.New(log, cfg.Yahoo.Timeout).
		WithRateLimit(cfg.Yahoo.RateLimit, cfg.Yahoo.Burst).
		WithCookieJar()
	opts := yahoo.DefaultOptions()
	opts.ChartURL = cfg.Yahoo.ChartURL
	opts.SummaryURL = cfg.Yahoo.SummaryURL
	yahooClient := yahoo.NewClient(yahooHTTP, log, opts)
	summaries := yahoo.NewQuoteSummarizer(cfg.Yahoo.RateLimit, cfg.Yahoo.Burst, yahooClient, log).
		WithTimeout(cfg.Yahoo.Timeout)
	a.snaps = cache.NewSnapshotCache(yahooClient, cfg.Screener.SnapshotTTL, log)

	// 3. Stages
	pre := prescreen.New(summaries, prescreen.Config{
		MinMarketCap: strategy.PreScreen.MarketCapMin,
		MinAvgVolume: strategy.PreScreen.AvgVolumeMin,
	}, log)
	engine := selection.NewFilterEngine(strategy.FilterConfig(), strategy.NewScorer(), log)
	ranker := selection.NewRanker(strategy.Ranking.TopN, log)

	// 4. Pipeline
	orch := pipeline.NewOrchestrator(pipeline.Components{
		Universe:    source,
		PreScreener: pre,
		Market:      a.snaps,
		Engine:      engine,
		Ranker:      ranker,
		Cache:       a.cache,
	}, pipeline.Options{
		DetailTimeout: cfg.Screener.DetailTimeout,
		StrategyHash:  hash,
	}, log)
	a.service = pipeline.NewService(orch, a.cache, kind, log)

	// 5. Distributed lock for scheduled refreshes
	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.locker = redis.NewCache(client, cfg.Redis.Prefix)
		a.cleanup = append(a.cleanup, func() { _ = client.Close() })
	}

	log.WithFields(map[string]interface{}{
		"universe":      kind,
		"cache_backend": cfg.Screener.CacheBackend,
		"strategy":      strategy.Meta.StrategyID,
		"strategy_hash": hash[:12],
	}).Info("Screener initialized")

	return a, nil
}
