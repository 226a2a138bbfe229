package main

import (
	"golang.org/x/sync/errgroup"

	"github.com/sundayezeilo/linkshelf/internal/metadata"
)

type extraction struct {
	URL string `json:"url"`
	metadata.Result
}

// Run executes the extract command. Pages are fetched concurrently and
// printed in argument order; unreachable pages print null fields.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	results := make([]extraction, len(c.URLs))

	g, ctx := errgroup.WithContext(deps.Ctx)
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, u := range c.URLs {
		g.Go(func() error {
			results[i] = extraction{URL: u, Result: deps.Extractor.Extract(ctx, u)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return writeJSON(deps.Stdout, results)
}
