// Package coordinator fans a single-hop query out across every shard
// that owns a slice of an index's key space and merges the per-shard
// results into one reply. It performs no query execution itself
// — all postings retrieval, filtering, and KNN happen inside
// internal/shardexec on each shard; this package only schedules the
// fan-out and merges what comes back.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/query"
	"github.com/kailas-cloud/ftsearch/internal/shard"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

var (
	ErrNoShards     = errors.New("coordinator: no shards configured")
	ErrUnknownIndex = errors.New("coordinator: unknown index name")
)

// Coordinator fans out SearchRequests to every registered shard and
// merges their ShardSearchResults. It holds no query state of its own —
// every Search call is independent — so one Coordinator is shared across
// concurrent callers without locking.
type Coordinator struct {
	config Config
	shards map[string]*shard.Shard // shardID → shard
	logger *zap.Logger
}

// New creates a Coordinator over shards, keyed by a caller-chosen shard
// ID used only for logging and FT.PROFILE's per-shard breakdown.
func New(config Config, shards map[string]*shard.Shard, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{config: config, shards: shards, logger: logger}
}

// Search runs req against every shard and merges the results.
//
//  1. RECEIVE & PARSE — already done by the caller; req.AST is shared
//     verbatim across every shard.
//  2. LOOKUP — every shard must have req.Index, or the whole query fails
//     with ErrUnknownIndex: a partially-present index has no defined
//     semantics here.
//  3. FAN-OUT — dispatch to every shard concurrently.
//  4. COLLECT — any shard-local error aborts the query; the first one
//     (by shard ID, for determinism) is returned.
//  5. MERGE — sum total_hits, concatenate docs, then order them: KNN
//     queries stable-sort ascending by knn_score and truncate to the
//     clause's K; everything else stable-sorts by sort_score per
//     req.SortBy (nulls always sort last).
//  6. LIMIT — slice to req.Limit.Offset/.Total.
func (c *Coordinator) Search(ctx context.Context, req SearchRequest) SearchResult {
	if len(c.shards) == 0 {
		return SearchResult{Err: ErrNoShards}
	}

	handles := make(map[string]*shard.Handle, len(c.shards))
	for id, sh := range c.shards {
		h, err := sh.Lookup(req.Index)
		if err != nil {
			return SearchResult{Err: fmt.Errorf("%w: %q", ErrUnknownIndex, req.Index)}
		}
		handles[id] = h
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.config.PerShardTimeout)
	defer cancel()

	outcomes := c.fanOut(queryCtx, req, handles)

	// Deterministic ordering before error/merge so the "first" error and
	// doc concatenation order don't depend on goroutine scheduling.
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].shardID < outcomes[j].shardID })

	for _, o := range outcomes {
		if o.result.Err != nil {
			c.logger.Warn("shard query failed", zap.String("shard", o.shardID), zap.Error(o.result.Err))
			return SearchResult{Err: o.result.Err}
		}
	}

	var (
		totalHits int
		docs      []shardexec.SerializedSearchDoc
		profiles  []ShardProfile
	)
	for _, o := range outcomes {
		totalHits += o.result.TotalHits
		docs = append(docs, o.result.Docs...)
		if req.Profile {
			profiles = append(profiles, ShardProfile{ShardID: o.shardID, Events: o.result.Profile})
		}
	}

	if knn, ok := req.AST.(*query.KnnWrap); ok {
		sort.SliceStable(docs, func(i, j int) bool { return lessByKNNScore(docs[i], docs[j]) })
		if knn.K >= 0 && len(docs) > knn.K {
			docs = docs[:knn.K]
		}
		if knn.K >= 0 && totalHits > knn.K {
			totalHits = knn.K
		}
	} else if req.SortBy != nil {
		desc := req.SortBy.Desc
		sort.SliceStable(docs, func(i, j int) bool { return lessBySortScore(docs[i].SortScore, docs[j].SortScore, desc) })
	}

	if req.Limit != nil {
		docs = applyLimit(docs, req.Limit.Offset, req.Limit.Total)
	}

	return SearchResult{TotalHits: totalHits, Docs: docs, Profile: profiles}
}

// fanOut runs one shardexec.Execute per shard concurrently. Each shard's
// index is single-threaded internally, but nothing stops different
// shards from being queried in parallel.
func (c *Coordinator) fanOut(ctx context.Context, req SearchRequest, handles map[string]*shard.Handle) []shardOutcome {
	outcomes := make([]shardOutcome, 0, len(handles))
	var mu sync.Mutex
	var wg sync.WaitGroup

	execReq := shardexec.Request{
		AST:        req.AST,
		Params:     req.Params,
		Projection: req.Projection,
		SortBy:     req.SortBy,
		Profile:    req.Profile,
		Loader:     req.Loader,
	}

	for id, h := range handles {
		wg.Add(1)
		go func(id string, h *shard.Handle) {
			defer wg.Done()
			res := shardexec.New(h).Execute(execReq)
			if ctx.Err() != nil {
				res = shardexec.ShardSearchResult{Err: fmt.Errorf("coordinator: shard %q: %w", id, ctx.Err())}
			}
			mu.Lock()
			outcomes = append(outcomes, shardOutcome{shardID: id, result: res})
			mu.Unlock()
		}(id, h)
	}

	wg.Wait()
	return outcomes
}

func applyLimit(docs []shardexec.SerializedSearchDoc, offset, total int) []shardexec.SerializedSearchDoc {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return nil
	}
	end := offset + total
	if total < 0 || end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}
