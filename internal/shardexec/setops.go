package shardexec

import "github.com/kailas-cloud/ftsearch/internal/engine"

// materialize drains a PostingsIterator into a sorted slice. Every typed
// index's matcher already yields doc ids in ascending order, so no
// further sort is needed here.
func materialize(it engine.PostingsIterator) []DocID {
	var out []DocID
	for it.Next() {
		out = append(out, it.DocID())
	}
	return out
}

// mergeDisjoint unions zero or more PostingsIterators via
// engine.DisjunctionIterator, used when a bare word or phrase searches
// across every TEXT field at once.
func mergeDisjoint(iters []engine.PostingsIterator) engine.PostingsIterator {
	switch len(iters) {
	case 0:
		return engine.NewSlicePostingsIterator(nil, nil)
	case 1:
		return iters[0]
	default:
		return engine.NewDisjunctionIterator(iters)
	}
}

// intersectAll composes query.And's children sets via
// engine.ConjunctionIterator.
func intersectAll(sets [][]DocID) []DocID {
	switch len(sets) {
	case 0:
		return nil
	case 1:
		return sets[0]
	default:
		iters := make([]engine.PostingsIterator, len(sets))
		for i, s := range sets {
			iters[i] = engine.NewSlicePostingsIterator(s, nil)
		}
		return materialize(engine.NewConjunctionIterator(iters))
	}
}

// unionAll composes query.Or's children sets via
// engine.DisjunctionIterator.
func unionAll(sets [][]DocID) []DocID {
	iters := make([]engine.PostingsIterator, 0, len(sets))
	for _, s := range sets {
		if len(s) > 0 {
			iters = append(iters, engine.NewSlicePostingsIterator(s, nil))
		}
	}
	return materialize(mergeDisjoint(iters))
}

// subtract returns all minus exclude, preserving all's ascending order.
// all is assumed sorted, which every caller in this package guarantees.
func subtract(all, exclude []DocID) []DocID {
	excl := toSet(exclude)
	out := make([]DocID, 0, len(all))
	for _, id := range all {
		if !excl[id] {
			out = append(out, id)
		}
	}
	return out
}

func toSet(ids []DocID) map[DocID]bool {
	set := make(map[DocID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
