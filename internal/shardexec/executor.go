// Package shardexec is the shard-local query executor: given a
// parsed query.Node and a shard.Handle, it evaluates the expression
// recursively against the handle's field.Set, materializing a doc-id set
// at every node using internal/engine's conjunction/disjunction postings
// iterators, driven by this package's query AST.
package shardexec

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/ftsearch/internal/engine"
	"github.com/kailas-cloud/ftsearch/internal/fieldindex"
	"github.com/kailas-cloud/ftsearch/internal/indexer"
	"github.com/kailas-cloud/ftsearch/internal/query"
	"github.com/kailas-cloud/ftsearch/internal/schema"
	"github.com/kailas-cloud/ftsearch/internal/shard"
)

// DocID is re-exported for callers that only import shardexec.
type DocID = fieldindex.DocID

// Executor evaluates one query against one shard's current Handle. A new
// Executor is cheap to build — it holds no state beyond the handle — so
// callers construct one per request rather than sharing.
type Executor struct {
	handle *shard.Handle
}

// New binds an Executor to a shard's current index handle.
func New(handle *shard.Handle) *Executor {
	return &Executor{handle: handle}
}

// Execute runs req's query against the bound handle and returns the full
// match set projected per req.Projection. Sorting, LIMIT, and cross-shard
// merging are the fan-out coordinator's job; this shard only
// reports everything it matched.
func (e *Executor) Execute(req Request) ShardSearchResult {
	prof := &profiler{enabled: req.Profile}

	var (
		ids        []DocID
		knnScores  map[DocID]float32
		scoreAlias string
		err        error
	)
	if knn, ok := req.AST.(*query.KnnWrap); ok {
		ids, knnScores, err = e.evalKNN(knn, req.Params, 0, prof)
		scoreAlias = knn.ScoreAlias
	} else {
		ids, err = e.eval(req.AST, 0, prof)
	}
	if err != nil {
		return ShardSearchResult{Err: err}
	}

	docs := make([]SerializedSearchDoc, 0, len(ids))
	for _, id := range ids {
		key, ok := e.handle.Indexer.DocKey(id)
		if !ok {
			continue
		}
		doc := SerializedSearchDoc{Key: key}
		if req.Projection.Mode != ProjectNoContent {
			doc.Fields = e.projectFields(id, req)
		}
		if knnScores != nil {
			if dist, ok := knnScores[id]; ok {
				v := dist
				doc.KNNScore = &v
				injectKNNScore(doc.Fields, req, scoreAlias, dist)
			}
		}
		doc.SortScore = e.sortScore(id, req.SortBy)
		docs = append(docs, doc)
	}

	return ShardSearchResult{Docs: docs, TotalHits: len(docs), Profile: prof.events}
}

// eval materializes the doc-id set matched by n, recording one
// ProfileEvent per node when profiling is enabled.
func (e *Executor) eval(n query.Node, depth int, prof *profiler) ([]DocID, error) {
	start := time.Now()
	switch v := n.(type) {
	case *query.MatchAll:
		ids := e.handle.Indexer.AllDocIDs()
		prof.record(depth, "MATCHALL *", start, len(ids))
		return ids, nil

	case *query.And:
		sets := make([][]DocID, 0, len(v.Children))
		for _, c := range v.Children {
			ids, err := e.eval(c, depth+1, prof)
			if err != nil {
				return nil, err
			}
			sets = append(sets, ids)
		}
		result := intersectAll(sets)
		prof.record(depth, "INTERSECT", start, len(result))
		return result, nil

	case *query.Or:
		sets := make([][]DocID, 0, len(v.Children))
		for _, c := range v.Children {
			ids, err := e.eval(c, depth+1, prof)
			if err != nil {
				return nil, err
			}
			sets = append(sets, ids)
		}
		result := unionAll(sets)
		prof.record(depth, "UNION", start, len(result))
		return result, nil

	case *query.Not:
		childIDs, err := e.eval(v.Child, depth+1, prof)
		if err != nil {
			return nil, err
		}
		result := subtract(e.handle.Indexer.AllDocIDs(), childIDs)
		prof.record(depth, "NOT", start, len(result))
		return result, nil

	case *query.TagMatch:
		idx := e.handle.Set.Tag(v.Field)
		if idx == nil {
			prof.record(depth, fmt.Sprintf("TAG @%s: no such field", v.Field), start, 0)
			return nil, nil
		}
		var it engine.PostingsIterator
		descr := fmt.Sprintf("TAG @%s", v.Field)
		if v.Suffix != "" {
			it = idx.MatchSuffix(v.Suffix)
			descr = fmt.Sprintf("TAG @%s:{*%s}", v.Field, v.Suffix)
		} else {
			it = idx.MatchExact(v.Values...)
			descr = fmt.Sprintf("TAG @%s:{%v}", v.Field, v.Values)
		}
		ids := materialize(it)
		prof.record(depth, descr, start, len(ids))
		return ids, nil

	case *query.NumericRange:
		idx := e.handle.Set.Numeric(v.Field)
		if idx == nil {
			prof.record(depth, fmt.Sprintf("NUMERIC @%s: no such field", v.Field), start, 0)
			return nil, nil
		}
		it := idx.MatchRange(fieldindex.Range{
			Lo: v.Lo, Hi: v.Hi, LoExclusive: v.LoExclusive, HiExclusive: v.HiExclusive,
		})
		ids := materialize(it)
		prof.record(depth, fmt.Sprintf("NUMERIC @%s:[%v %v]", v.Field, v.Lo, v.Hi), start, len(ids))
		return ids, nil

	case *query.TextTerm:
		it := e.evalTextTerm(v.Field, v.Term)
		ids := materialize(it)
		descr := fmt.Sprintf("TEXT %s", v.Term)
		if v.Field != "" {
			descr = fmt.Sprintf("TEXT @%s:%s", v.Field, v.Term)
		}
		prof.record(depth, descr, start, len(ids))
		return ids, nil

	case *query.PhraseMatch:
		it := e.evalPhrase(v.Field, v.Terms)
		ids := materialize(it)
		descr := fmt.Sprintf("PHRASE %q", v.Terms)
		if v.Field != "" {
			descr = fmt.Sprintf("PHRASE @%s:%q", v.Field, v.Terms)
		}
		prof.record(depth, descr, start, len(ids))
		return ids, nil

	case *query.KnnWrap:
		return nil, fmt.Errorf("shardexec: KNN clause is only valid as the top-level query expression")

	default:
		return nil, fmt.Errorf("shardexec: unsupported query node %T", n)
	}
}

func (e *Executor) evalTextTerm(field, term string) engine.PostingsIterator {
	if field != "" {
		idx := e.handle.Set.Text(field)
		if idx == nil {
			return engine.NewSlicePostingsIterator(nil, nil)
		}
		return idx.MatchTerm(term)
	}
	var iters []engine.PostingsIterator
	for _, f := range e.handle.Set.AllTextFields() {
		iters = append(iters, e.handle.Set.Text(f).MatchTerm(term))
	}
	return mergeDisjoint(iters)
}

func (e *Executor) evalPhrase(field string, terms []string) engine.PostingsIterator {
	if field != "" {
		idx := e.handle.Set.Text(field)
		if idx == nil {
			return engine.NewSlicePostingsIterator(nil, nil)
		}
		return idx.MatchPhrase(terms)
	}
	var iters []engine.PostingsIterator
	for _, f := range e.handle.Set.AllTextFields() {
		iters = append(iters, e.handle.Set.Text(f).MatchPhrase(terms))
	}
	return mergeDisjoint(iters)
}

// evalKNN evaluates a top-level KNN clause: materialize the filter
// subtree as the candidate set, decode the $param query vector, and ask
// the vector index for the top-K within that candidate set.
func (e *Executor) evalKNN(knn *query.KnnWrap, params map[string]string, depth int, prof *profiler) ([]DocID, map[DocID]float32, error) {
	start := time.Now()

	filterIDs, err := e.eval(knn.Filter, depth+1, prof)
	if err != nil {
		return nil, nil, err
	}

	vecIdx := e.handle.Set.Vector(knn.Field)
	if vecIdx == nil {
		return nil, nil, fmt.Errorf("shardexec: %q is not a VECTOR field", knn.Field)
	}
	spec, ok := e.handle.Def.ByAlias(knn.Field)
	if !ok || spec.Type != schema.FieldVector {
		return nil, nil, fmt.Errorf("shardexec: %q is not a VECTOR field", knn.Field)
	}

	raw, ok := params[knn.ParamName]
	if !ok {
		return nil, nil, fmt.Errorf("shardexec: missing $%s for KNN clause", knn.ParamName)
	}
	queryVec, err := indexer.ParseVector(raw, spec.Vector.Dim)
	if err != nil {
		return nil, nil, fmt.Errorf("shardexec: invalid KNN query vector: %w", err)
	}

	candidates := toSet(filterIDs)
	scored, err := vecIdx.KNN(queryVec, knn.K, candidates)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]DocID, len(scored))
	scores := make(map[DocID]float32, len(scored))
	for i, sd := range scored {
		ids[i] = sd.Doc
		scores[sd.Doc] = sd.Distance
	}
	prof.record(depth, fmt.Sprintf("KNN %d @%s AS %s", knn.K, knn.Field, knn.ScoreAlias), start, len(ids))
	return ids, scores, nil
}
