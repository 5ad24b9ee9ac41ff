package command

import (
	"context"
	"time"

	"github.com/kailas-cloud/ftsearch/internal/aggregate"
	"github.com/kailas-cloud/ftsearch/internal/coordinator"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
	"github.com/kailas-cloud/ftsearch/internal/query"
	"github.com/kailas-cloud/ftsearch/internal/shard"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

// Aggregate runs FT.AGGREGATE: fans the query out exactly like FT.SEARCH
// to gather every matching document's default projection, flattens the
// merged docs into aggregate.Rows, then runs the parsed pipeline over
// them. The initial fan-out reuses the same coordinator merge
// path as FT.SEARCH; aggregation's own GROUPBY/SORTBY/LIMIT stages are
// what differ, and those run entirely inside internal/aggregate once the
// rows exist.
func (m *Manager) Aggregate(ctx context.Context, args AggregateArgs) ([]aggregate.Row, error) {
	resolved := m.resolve(args.Index)
	h, err := m.anyHandle(args.Index)
	if err != nil {
		return nil, err
	}
	rows, _, err := m.aggregateWithProfile(ctx, resolved, h, args)
	return rows, err
}

// aggregateWithProfile is the shared implementation behind Aggregate and
// ProfileAggregate; the only difference FT.PROFILE AGGREGATE needs is the
// per-shard profile events the initial fan-out already produces.
func (m *Manager) aggregateWithProfile(
	ctx context.Context, resolved string, h *shard.Handle, args AggregateArgs,
) ([]aggregate.Row, []coordinator.ShardProfile, error) {
	ast, err := query.Parse(args.Query, h.Def, args.Params)
	if err != nil {
		return nil, nil, err
	}

	req := coordinator.SearchRequest{
		Index:      resolved,
		AST:        ast,
		Params:     args.Params,
		Projection: shardexec.Projection{Mode: shardexec.ProjectAll},
		Profile:    args.Profile,
		Loader:     m.getLoader(),
	}

	start := time.Now()
	res := m.coord.Search(m.context(ctx), req)
	metrics.QueryDuration.WithLabelValues("aggregate").Observe(time.Since(start).Seconds())
	if res.Err != nil {
		metrics.ShardErrorsTotal.WithLabelValues("aggregate").Inc()
		return nil, nil, res.Err
	}

	for _, s := range args.Stages {
		if load, ok := s.(*aggregate.LoadStage); ok {
			load.Loader = m.getLoader()
		}
	}

	pipeline := aggregate.Pipeline{Stages: args.Stages}
	rows, err := pipeline.Run(toAggregateRows(res.Docs))
	if err != nil {
		return nil, nil, err
	}
	return rows, res.Profile, nil
}
