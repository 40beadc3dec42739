package main

import (
	"errors"
	"fmt"

	"github.com/hurttlocker/chartmerge/internal/aggregate"
	"github.com/hurttlocker/chartmerge/internal/assemble"
	"github.com/hurttlocker/chartmerge/internal/extract"
	"github.com/hurttlocker/chartmerge/internal/llm"
	"github.com/hurttlocker/chartmerge/internal/metrics"
	"github.com/hurttlocker/chartmerge/internal/normalize"
	"github.com/hurttlocker/chartmerge/internal/registry"
	"github.com/hurttlocker/chartmerge/internal/synthcache"
)

// pipeline builds the normalization pipeline from the resolved config. The
// returned cleanup closes the synthesis cache and must always be called.
func (a *app) pipeline() (*normalize.Pipeline, func(), error) {
	cleanup := func() {}

	reg, err := registry.LoadOrDefault(a.cfg.RegistryPath)
	if err != nil {
		return nil, cleanup, err
	}
	mode, err := normalize.ParseMode(a.cfg.Mode)
	if err != nil {
		return nil, cleanup, err
	}

	rec := metrics.New(a.promReg)

	extractOpts := []extract.Option{
		extract.WithConfig(a.cfg.ExtractOptions()),
		extract.WithLogger(a.log),
	}
	if a.cfg.TokenizerPath != "" {
		tc, err := extract.NewPretrainedCounter(a.cfg.TokenizerPath, a.cfg.Extract.CharsPerToken)
		if err != nil {
			return nil, cleanup, err
		}
		extractOpts = append(extractOpts, extract.WithTokenCounter(tc))
	}

	aggOpts := []aggregate.Option{
		aggregate.WithTimeout(a.cfg.Synthesis.Timeout),
		aggregate.WithTemperature(a.cfg.Synthesis.Temperature),
		aggregate.WithParallelism(a.cfg.Synthesis.Parallelism),
		aggregate.WithLogger(a.log),
		aggregate.WithMetrics(rec),
	}

	narrator, err := a.narrator()
	switch {
	case errors.Is(err, llm.ErrDisabled):
		a.log.Debug().Msg("no llm provider configured; narrative fields use the merge fallback")
	case err != nil:
		return nil, cleanup, err
	default:
		aggOpts = append(aggOpts, aggregate.WithNarrator(narrator))
		a.log.Info().Str("provider", narrator.Name()).Msg("narrative synthesis enabled")
	}

	if a.cfg.Cache.Path != "" {
		cache, err := synthcache.Open(a.cfg.Cache.Path)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := cache.Close(); err != nil {
				a.log.Warn().Err(err).Msg("closing synthesis cache")
			}
		}
		aggOpts = append(aggOpts, aggregate.WithCache(cache))
	}

	p, err := normalize.New(reg,
		normalize.WithMode(mode),
		normalize.WithExtractOptions(extractOpts...),
		normalize.WithAggregateOptions(aggOpts...),
		normalize.WithAssembleOptions(assemble.WithLogger(a.log)),
		normalize.WithLogger(a.log),
		normalize.WithMetrics(rec),
	)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("building pipeline: %w", err)
	}
	return p, cleanup, nil
}

// narrator returns llm.ErrDisabled when no provider is configured.
func (a *app) narrator() (*llm.Narrator, error) {
	spec, err := llm.ParseSpec(a.cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	spec.APIKey = a.cfg.LLM.APIKey
	spec.BaseURL = a.cfg.LLM.BaseURL

	provider, err := llm.NewProvider(spec)
	if err != nil {
		return nil, err
	}
	return llm.NewNarrator(provider, llm.NarratorOptions{
		RatePerMinute: a.cfg.LLM.RatePerMinute,
		MaxRetries:    a.cfg.LLM.MaxRetries,
		Logger:        a.log,
	}), nil
}
