package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/ftsearch/internal/aggregate"
	"github.com/kailas-cloud/ftsearch/internal/coordinator"
)

// ProfileReply is FT.PROFILE's reply: the underlying SEARCH/AGGREGATE
// result plus a per-shard profile tree, tagged with a synthetic run ID so
// two FT.PROFILE replies from the same process are distinguishable in
// logs even though nothing in this in-process deployment actually needs
// a plan ID to route a follow-up request — there is no multi-round-trip
// plan handoff over the wire here.
type ProfileReply struct {
	RunID      string
	SearchHits *coordinator.SearchResult
	AggRows    []aggregate.Row
	Shards     []coordinator.ShardProfile
	Limited    bool
}

// ParseProfile parses FT.PROFILE [SEARCH|AGGREGATE] [LIMITED] QUERY
// query_args... and returns the sub-command plus the remaining query_args
// (to be handed to ParseSearch/ParseAggregate).
func ParseProfile(args []string) (isAggregate bool, limited bool, queryArgs []string, err error) {
	c := newCursor(args)
	switch {
	case c.is("SEARCH"):
	case c.is("AGGREGATE"):
		isAggregate = true
	default:
		return false, false, nil, fmt.Errorf("%w: FT.PROFILE requires SEARCH or AGGREGATE", ErrSyntax)
	}
	limited = c.is("LIMITED")
	if !c.is("QUERY") {
		return false, false, nil, fmt.Errorf("%w: FT.PROFILE requires a QUERY clause", ErrSyntax)
	}
	return isAggregate, limited, c.args[c.pos:], nil
}

// ProfileSearch runs FT.PROFILE SEARCH.
func (m *Manager) ProfileSearch(ctx context.Context, args SearchArgs, limited bool) (ProfileReply, error) {
	args.Profile = true
	res, err := m.Search(ctx, args)
	if err != nil {
		return ProfileReply{}, err
	}
	return ProfileReply{RunID: uuid.NewString(), SearchHits: &res, Shards: res.Profile, Limited: limited}, nil
}

// ProfileAggregate runs FT.PROFILE AGGREGATE. Per-shard profiling only
// covers the initial fan-out query, not the aggregation pipeline itself
// (stages run after the merge, on the coordinator, so there is no
// per-shard breakdown to attribute them to).
func (m *Manager) ProfileAggregate(ctx context.Context, args AggregateArgs, limited bool) (ProfileReply, error) {
	args.Profile = true
	resolved := m.resolve(args.Index)
	h, err := m.anyHandle(args.Index)
	if err != nil {
		return ProfileReply{}, err
	}
	rows, profShards, err := m.aggregateWithProfile(ctx, resolved, h, args)
	if err != nil {
		return ProfileReply{}, err
	}
	return ProfileReply{RunID: uuid.NewString(), AggRows: rows, Shards: profShards, Limited: limited}, nil
}
