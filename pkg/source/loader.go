package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// Locations holds the four merge inputs
type Locations struct {
	Registry       string
	GDPPerCapita   string
	GVABasicPrices string
	GVABySector    string
}

// Loader reads the merge inputs
type Loader struct {
	locations   Locations
	opts        Options
	concurrency int
	logger      *zap.Logger
}

// NewLoader creates a Loader. concurrency bounds how many sources are read at once.
func NewLoader(locations Locations, opts Options, concurrency int, logger *zap.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	opts.Logger = logger
	return &Loader{
		locations:   locations,
		opts:        opts,
		concurrency: concurrency,
		logger:      logger,
	}
}

// LoadTable reads a single dataset
func (l *Loader) LoadTable(ctx context.Context, name, location string) (*model.Table, error) {
	src, err := ParseSource(name, location, l.opts)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}

	t, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	return t, nil
}

// LoadDatasets reads the registry and the three indicator tables.
// The first failure cancels the remaining loads.
func (l *Loader) LoadDatasets(ctx context.Context) (*model.Bundle, error) {
	jobs := []struct {
		name     string
		location string
		dst      **model.Table
	}{
		{DatasetRegistry, l.locations.Registry, nil},
		{DatasetGDPPerCapita, l.locations.GDPPerCapita, nil},
		{DatasetGVABasicPrices, l.locations.GVABasicPrices, nil},
		{DatasetGVABySector, l.locations.GVABySector, nil},
	}

	bundle := &model.Bundle{}
	jobs[0].dst = &bundle.Registry
	jobs[1].dst = &bundle.GDPPerCapita
	jobs[2].dst = &bundle.GVABasicPrices
	jobs[3].dst = &bundle.GVABySector

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			t, err := l.LoadTable(gctx, job.name, job.location)
			if err != nil {
				return err
			}
			*job.dst = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info("Loaded input datasets",
		zap.Int("registry_rows", bundle.Registry.Len()),
		zap.Int("gdp_per_capita_rows", bundle.GDPPerCapita.Len()),
		zap.Int("gva_basic_prices_rows", bundle.GVABasicPrices.Len()),
		zap.Int("gva_by_sector_rows", bundle.GVABySector.Len()))

	return bundle, nil
}
