package fieldindex

import (
	"container/heap"
	"fmt"
	"math"
	"math/bits"

	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// HNSWIndex is a hierarchical navigable small-world graph built with
// parameters M and efConstruction. Layer assignment and entry
// point selection follow the standard HNSW construction: a new node's top
// layer is drawn from an exponential distribution with mean 1/ln(M), and
// greedy search at each layer narrows toward the query before descending.
type HNSWIndex struct {
	dim  int
	dist func(a, b []float32) float32

	m              int
	mMax0          int
	efConstruction int
	levelMult      float64

	nodes      map[DocID]*hnswNode
	entryPoint DocID
	hasEntry   bool
	maxLevel   int

	rng *lcg
}

type hnswNode struct {
	vec    []float32
	level  int
	// neighbors[level] is the adjacency list at that layer.
	neighbors [][]DocID
}

// NewHNSWIndex creates an empty HNSW index with the given construction
// parameters.
func NewHNSWIndex(dim, m, efConstruction int, metric schema.VectorMetric) *HNSWIndex {
	if m <= 0 {
		m = 16
	}
	if efConstruction <= 0 {
		efConstruction = 200
	}
	return &HNSWIndex{
		dim:            dim,
		dist:           distanceFunc(metric),
		m:              m,
		mMax0:          m * 2,
		efConstruction: efConstruction,
		levelMult:      1 / math.Log(float64(m)),
		nodes:          make(map[DocID]*hnswNode),
		rng:            newLCG(uint64(dim)*2654435761 + 1),
	}
}

func (h *HNSWIndex) Add(doc DocID, vec []float32) error {
	if len(vec) != h.dim {
		return fmt.Errorf("fieldindex: vector dim %d does not match field dim %d", len(vec), h.dim)
	}
	level := h.randomLevel()
	node := &hnswNode{
		vec:       vec,
		level:     level,
		neighbors: make([][]DocID, level+1),
	}
	h.nodes[doc] = node

	if !h.hasEntry {
		h.entryPoint = doc
		h.hasEntry = true
		h.maxLevel = level
		return nil
	}

	entry := h.entryPoint
	for lc := h.maxLevel; lc > level; lc-- {
		entry = h.greedyClosest(entry, vec, lc)
	}

	for lc := min(level, h.maxLevel); lc >= 0; lc-- {
		candidates := h.searchLayer(vec, entry, h.efConstruction, lc)
		neighbors := selectNeighbors(candidates, h.maxNeighbors(lc))
		node.neighbors[lc] = neighbors
		for _, nb := range neighbors {
			h.connect(nb, doc, lc)
		}
		if len(candidates) > 0 {
			entry = candidates[0].Doc
		}
	}

	if level > h.maxLevel {
		h.maxLevel = level
		h.entryPoint = doc
	}
	return nil
}

func (h *HNSWIndex) maxNeighbors(level int) int {
	if level == 0 {
		return h.mMax0
	}
	return h.m
}

func (h *HNSWIndex) connect(from, to DocID, level int) {
	node := h.nodes[from]
	if node == nil || level >= len(node.neighbors) {
		return
	}
	node.neighbors[level] = append(node.neighbors[level], to)
	if max := h.maxNeighbors(level); len(node.neighbors[level]) > max {
		scored := make([]ScoredDoc, 0, len(node.neighbors[level]))
		for _, nb := range node.neighbors[level] {
			if other := h.nodes[nb]; other != nil {
				scored = append(scored, ScoredDoc{Doc: nb, Distance: h.dist(node.vec, other.vec)})
			}
		}
		node.neighbors[level] = selectNeighbors(scored, max)
	}
}

func (h *HNSWIndex) Remove(doc DocID) {
	node := h.nodes[doc]
	if node == nil {
		return
	}
	delete(h.nodes, doc)
	for _, other := range h.nodes {
		for lc := range other.neighbors {
			other.neighbors[lc] = removeDoc(other.neighbors[lc], doc)
		}
	}
	if h.entryPoint == doc {
		h.hasEntry = false
		h.maxLevel = 0
		for id := range h.nodes {
			h.entryPoint = id
			h.hasEntry = true
			h.maxLevel = h.nodes[id].level
			break
		}
	}
}

func removeDoc(ids []DocID, target DocID) []DocID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func (h *HNSWIndex) KNN(query []float32, k int, candidates map[DocID]bool) ([]ScoredDoc, error) {
	if !h.hasEntry {
		return nil, nil
	}
	ef := h.efConstruction
	if k > ef {
		ef = k
	}

	entry := h.entryPoint
	for lc := h.maxLevel; lc > 0; lc-- {
		entry = h.greedyClosest(entry, query, lc)
	}

	results := h.searchLayer(query, entry, ef, 0)
	if candidates != nil {
		filtered := results[:0]
		for _, r := range results {
			if candidates[r.Doc] {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// greedyClosest walks from entry toward the closest neighbor to query at
// the given layer, stopping when no neighbor improves on the current
// node (standard single-layer greedy descent used between layers).
func (h *HNSWIndex) greedyClosest(entry DocID, query []float32, layer int) DocID {
	current := entry
	currentDist := h.dist(query, h.nodes[current].vec)
	for {
		improved := false
		node := h.nodes[current]
		if layer >= len(node.neighbors) {
			break
		}
		for _, nb := range node.neighbors[layer] {
			other := h.nodes[nb]
			if other == nil {
				continue
			}
			d := h.dist(query, other.vec)
			if d < currentDist {
				current = nb
				currentDist = d
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return current
}

// searchLayer performs the standard HNSW best-first search at one layer,
// returning up to ef candidates sorted ascending by distance.
func (h *HNSWIndex) searchLayer(query []float32, entry DocID, ef, layer int) []ScoredDoc {
	visited := map[DocID]bool{entry: true}
	entryDist := h.dist(query, h.nodes[entry].vec)

	candidates := &minDistHeap{{Doc: entry, Distance: entryDist}}
	results := &maxDistHeap{{Doc: entry, Distance: entryDist}}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(ScoredDoc)
		worst := (*results)[0]
		if c.Distance > worst.Distance && results.Len() >= ef {
			break
		}

		node := h.nodes[c.Doc]
		if layer >= len(node.neighbors) {
			continue
		}
		for _, nb := range node.neighbors[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			other := h.nodes[nb]
			if other == nil {
				continue
			}
			d := h.dist(query, other.vec)
			worst = (*results)[0]
			if results.Len() < ef || d < worst.Distance {
				heap.Push(candidates, ScoredDoc{Doc: nb, Distance: d})
				heap.Push(results, ScoredDoc{Doc: nb, Distance: d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]ScoredDoc, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(ScoredDoc)
	}
	return out
}

// selectNeighbors keeps the closest `max` candidates by distance (a
// simplified heuristic compared to HNSW's full diversity-aware selection,
// adequate at this scale). candidates is assumed pre-sorted ascending.
func selectNeighbors(candidates []ScoredDoc, max int) []DocID {
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]DocID, len(candidates))
	for i, c := range candidates {
		out[i] = c.Doc
	}
	return out
}

func (h *HNSWIndex) randomLevel() int {
	r := h.rng.float64()
	level := int(math.Floor(-math.Log(r) * h.levelMult))
	if level > 31 {
		level = 31
	}
	return level
}

// --- heaps ---

type minDistHeap []ScoredDoc

func (h minDistHeap) Len() int            { return len(h) }
func (h minDistHeap) Less(i, j int) bool  { return h[i].Distance < h[j].Distance }
func (h minDistHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minDistHeap) Push(x any)         { *h = append(*h, x.(ScoredDoc)) }
func (h *minDistHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type maxDistHeap []ScoredDoc

func (h maxDistHeap) Len() int            { return len(h) }
func (h maxDistHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h maxDistHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxDistHeap) Push(x any)         { *h = append(*h, x.(ScoredDoc)) }
func (h *maxDistHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// lcg is a minimal deterministic PRNG so index construction is
// reproducible across runs with the same insertion order, avoiding a
// dependency on math/rand's global state.
type lcg struct{ state uint64 }

func newLCG(seed uint64) *lcg { return &lcg{state: seed | 1} }

func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return bits.RotateLeft64(l.state, 31)
}

func (l *lcg) float64() float64 {
	v := l.next() >> 11
	f := float64(v) / float64(1<<53)
	if f <= 0 {
		f = 1e-12
	}
	if f >= 1 {
		f = 1 - 1e-12
	}
	return f
}
