package coordinator

import (
	"github.com/kailas-cloud/ftsearch/internal/query"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

// LimitSpec is a FT.SEARCH LIMIT offset total clause, applied last in the
// merge ( step 5).
type LimitSpec struct {
	Offset int
	Total  int
}

// SearchRequest is the query plan the coordinator fans out to every
// shard. The AST is parsed once by the caller and shared verbatim across
// shards ( step 1-2): no shard re-parses the query string.
type SearchRequest struct {
	Index      string
	AST        query.Node
	Params     map[string]string
	Projection shardexec.Projection
	SortBy     *shardexec.SortSpec
	Limit      *LimitSpec
	Profile    bool
	Loader     shardexec.Loader
}

// ShardProfile is one shard's FT.PROFILE contribution, carried through
// the merge unmodified so the command layer can render the per-shard
// tree.
type ShardProfile struct {
	ShardID string
	Events  []shardexec.ProfileEvent
}

// SearchResult is the coordinator's merged reply: total hit count summed
// across shards, the merged/sorted/limited doc list, and (optionally)
// one profile tree per shard.
type SearchResult struct {
	TotalHits int
	Docs      []shardexec.SerializedSearchDoc
	Profile   []ShardProfile
	Err       error
}

// shardOutcome is an internal type for collecting fan-out results.
type shardOutcome struct {
	shardID string
	result  shardexec.ShardSearchResult
}
