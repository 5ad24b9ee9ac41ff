package coordinator

import "github.com/kailas-cloud/ftsearch/internal/shardexec"

// lessByKNNScore orders ascending by distance (closer first); a doc
// somehow missing its KNN score (shouldn't happen — every doc a KNN
// clause returns carries one) sorts last.
func lessByKNNScore(a, b shardexec.SerializedSearchDoc) bool {
	if a.KNNScore == nil {
		return false
	}
	if b.KNNScore == nil {
		return true
	}
	return *a.KNNScore < *b.KNNScore
}

// lessBySortScore orders by SORTBY's comparable value: float64 for a
// NUMERIC field, string otherwise. A nil score (field unset on that doc)
// always sorts last, regardless of ASC/DESC.
func lessBySortScore(a, b any, desc bool) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		if desc {
			return av > bv
		}
		return av < bv
	case string:
		bv, ok := b.(string)
		if !ok {
			return false
		}
		if desc {
			return av > bv
		}
		return av < bv
	default:
		return false
	}
}
