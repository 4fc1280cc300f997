package loader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sqlkit/sqlkit/hydrate"
	"github.com/sqlkit/sqlkit/schema"
)

// Request is one lazy relation needing a batched fetch across rows.
type Request struct {
	Table *schema.Table
	Rows  []hydrate.Row
	Plan  *hydrate.RelationPlan
}

// Collection fans a set of independent relation batches out concurrently
// (spec §4.G/SPEC_FULL.md §4.G: "errgroup bounds how many distinct
// relation batches run concurrently against the executor within one
// Collection.Load fan-out"). A single session's own tracked-write path
// stays strictly ordered (spec §5); this concurrency is only across
// distinct, independent SELECTs the loader itself issues.
type Collection struct {
	b *Batcher
}

// NewCollection returns a Collection driven by b.
func NewCollection(b *Batcher) *Collection {
	return &Collection{b: b}
}

// maxConcurrentBatches bounds how many distinct relation batches run
// against the executor at once within one Collection.Load fan-out
// (SPEC_FULL.md §4.G: "errgroup bounds how many distinct relation batches
// run concurrently").
const maxConcurrentBatches = 8

// Load resolves every request concurrently (bounded by maxConcurrentBatches),
// mutating each request's Rows in place, and returns the first error
// encountered (if any); the rest of the requests still run to completion.
func (c *Collection) Load(ctx context.Context, reqs []Request) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for _, r := range reqs {
		r := r
		g.Go(func() error {
			fut := c.b.LoadAsync(gctx, r.Table, r.Rows, r.Plan)
			_, err := fut.Get(gctx)
			return err
		})
	}
	return g.Wait()
}

// LoadAll resolves every hydrate.Plan.LazyRelations entry for rows
// selected from table, a convenience wrapper over Load for the common
// case of loading every lazy relation a query declared at once.
func (c *Collection) LoadAll(ctx context.Context, table *schema.Table, rows []hydrate.Row, plan *hydrate.Plan) error {
	if len(plan.LazyRelations) == 0 {
		return nil
	}
	reqs := make([]Request, len(plan.LazyRelations))
	for i, rp := range plan.LazyRelations {
		reqs[i] = Request{Table: table, Rows: rows, Plan: rp}
	}
	return c.Load(ctx, reqs)
}
