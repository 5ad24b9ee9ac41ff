package fieldindex

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// VectorIndex is either FLAT (linear scan) or HNSW, selected by
// schema.VectorAlgo. KNN query returns the K doc-ids of smallest
// distance together with their scores.
type VectorIndex interface {
	Add(doc DocID, vec []float32) error
	Remove(doc DocID)
	// KNN returns up to k (doc, distance) pairs ordered ascending by
	// distance. If candidates is non-nil, only documents present in it
	// are eligible (the filter-subtree restriction used by the shard
	// executor's KNN clause).
	KNN(query []float32, k int, candidates map[DocID]bool) ([]ScoredDoc, error)
}

// ScoredDoc pairs a document with its similarity distance/score.
type ScoredDoc struct {
	Doc      DocID
	Distance float32
}

func distanceFunc(metric schema.VectorMetric) func(a, b []float32) float32 {
	switch metric {
	case schema.MetricIP:
		return negativeInnerProduct
	case schema.MetricCosine:
		return cosineDistance
	default:
		return l2Distance
	}
}

func l2Distance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func negativeInnerProduct(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return -dot
}

func cosineDistance(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}

// --- FLAT ---

// FlatIndex is a linear scan over all stored vectors.
type FlatIndex struct {
	dim    int
	dist   func(a, b []float32) float32
	vecs   map[DocID][]float32
}

// NewFlatIndex creates an empty flat vector index.
func NewFlatIndex(dim int, metric schema.VectorMetric) *FlatIndex {
	return &FlatIndex{dim: dim, dist: distanceFunc(metric), vecs: make(map[DocID][]float32)}
}

func (f *FlatIndex) Add(doc DocID, vec []float32) error {
	if len(vec) != f.dim {
		return fmt.Errorf("fieldindex: vector dim %d does not match field dim %d", len(vec), f.dim)
	}
	f.vecs[doc] = vec
	return nil
}

func (f *FlatIndex) Remove(doc DocID) { delete(f.vecs, doc) }

func (f *FlatIndex) KNN(query []float32, k int, candidates map[DocID]bool) ([]ScoredDoc, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("fieldindex: query dim %d does not match field dim %d", len(query), f.dim)
	}
	col := newVecTopK(k)
	for doc, vec := range f.vecs {
		if candidates != nil && !candidates[doc] {
			continue
		}
		col.collect(doc, f.dist(query, vec))
	}
	return col.results(), nil
}

// --- topK collector, ascending by distance (smaller is better) ---

type vecTopK struct {
	k int
	h scoredHeap
}

func newVecTopK(k int) *vecTopK {
	if k <= 0 {
		k = 10
	}
	return &vecTopK{k: k, h: make(scoredHeap, 0, k)}
}

func (c *vecTopK) collect(doc DocID, dist float32) {
	if c.h.Len() < c.k {
		heap.Push(&c.h, ScoredDoc{Doc: doc, Distance: dist})
		return
	}
	if dist < c.h[0].Distance {
		c.h[0] = ScoredDoc{Doc: doc, Distance: dist}
		heap.Fix(&c.h, 0)
	}
}

func (c *vecTopK) results() []ScoredDoc {
	out := make([]ScoredDoc, c.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&c.h).(ScoredDoc)
	}
	return out
}

// scoredHeap is a max-heap by Distance (worst candidate at the root so it
// can be evicted in O(log k) as better candidates arrive).
type scoredHeap []ScoredDoc

func (h scoredHeap) Len() int            { return len(h) }
func (h scoredHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x any)         { *h = append(*h, x.(ScoredDoc)) }
func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
