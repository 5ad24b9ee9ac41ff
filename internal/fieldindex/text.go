package fieldindex

import (
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/engine"
)

// TextIndex tokenizes with the analyzer it is built with, lowercases each
// token, and drops stopwords, maintaining inverted lists term →
// set<doc_id>. The split rule is the analyzer's: text is cut on
// whitespace alone only when that analyzer is the whitespace analyzer
// (cmd/ftserver's shards use the standard analyzer). Intersection and
// union of these lists is the basis for boolean text queries; phrase
// matching additionally consults per-doc term positions.
type TextIndex struct {
	analyzer  analysis.Analyzer
	stopwords map[string]bool

	postings map[string]*termPostings
	// synonyms maps a term to every other term in its group, so that a
	// query for either matches documents containing either.
	synonyms map[string]map[string]bool
}

type termPostings struct {
	docs *sortedDocSet
	// positions is keyed the same way as docs.ids, used for phrase matching.
	positions map[DocID][]int
}

func newTermPostings() *termPostings {
	return &termPostings{
		docs:      &sortedDocSet{},
		positions: make(map[DocID][]int),
	}
}

// NewTextIndex creates an empty TextIndex using the given analyzer and
// per-index stopword set.
func NewTextIndex(analyzer analysis.Analyzer, stopwords map[string]bool) *TextIndex {
	return &TextIndex{
		analyzer:  analyzer,
		stopwords: stopwords,
		postings:  make(map[string]*termPostings),
		synonyms:  make(map[string]map[string]bool),
	}
}

// Add tokenizes and indexes a document's TEXT field value.
func (t *TextIndex) Add(doc DocID, field, value string) {
	tokens := t.analyzer.Analyze(field, value)
	pos := 0
	for _, tok := range tokens {
		term := strings.ToLower(tok.Term)
		if t.stopwords[term] {
			continue
		}
		tp, ok := t.postings[term]
		if !ok {
			tp = newTermPostings()
			t.postings[term] = tp
		}
		tp.docs.add(doc)
		tp.positions[doc] = append(tp.positions[doc], pos)
		pos++
	}
}

// Remove removes all postings for a document.
func (t *TextIndex) Remove(doc DocID) {
	for term, tp := range t.postings {
		if tp.docs.contains(doc) {
			tp.docs.remove(doc)
			delete(tp.positions, doc)
			if tp.docs.len() == 0 {
				delete(t.postings, term)
			}
		}
	}
}

// AddSynonymGroup makes every term in terms match interchangeably.
func (t *TextIndex) AddSynonymGroup(terms []string) {
	for _, a := range terms {
		a = strings.ToLower(a)
		if t.synonyms[a] == nil {
			t.synonyms[a] = make(map[string]bool)
		}
		for _, b := range terms {
			b = strings.ToLower(b)
			if a == b {
				continue
			}
			t.synonyms[a][b] = true
		}
	}
}

// expand returns term plus every term in its synonym groups.
func (t *TextIndex) expand(term string) []string {
	term = strings.ToLower(term)
	out := []string{term}
	for syn := range t.synonyms[term] {
		out = append(out, syn)
	}
	return out
}

// MatchTerm returns the posting iterator for term, including synonyms.
func (t *TextIndex) MatchTerm(term string) engine.PostingsIterator {
	terms := t.expand(term)
	var iters []engine.PostingsIterator
	for _, tm := range terms {
		if tp, ok := t.postings[tm]; ok && tp.docs.len() > 0 {
			iters = append(iters, engine.NewSlicePostingsIterator(tp.docs.ids, nil))
		}
	}
	if len(iters) == 0 {
		return engine.NewSlicePostingsIterator(nil, nil)
	}
	if len(iters) == 1 {
		return iters[0]
	}
	return engine.NewDisjunctionIterator(iters)
}

// MatchPhrase returns documents where terms appear as adjacent tokens, in
// order, with no gap (Slop 0). Candidates are the conjunction of each
// term's postings; positions are then checked per candidate document.
func (t *TextIndex) MatchPhrase(terms []string) engine.PostingsIterator {
	if len(terms) == 0 {
		return engine.NewSlicePostingsIterator(nil, nil)
	}
	if len(terms) == 1 {
		return t.MatchTerm(terms[0])
	}

	var children []engine.PostingsIterator
	for _, term := range terms {
		it := t.MatchTerm(term)
		if it.Cost() == 0 {
			return engine.NewSlicePostingsIterator(nil, nil)
		}
		children = append(children, it)
	}
	candidates := engine.NewConjunctionIterator(children)

	var matched []uint32
	for candidates.Next() {
		doc := candidates.DocID()
		if t.hasPhraseAt(doc, terms) {
			matched = append(matched, doc)
		}
	}
	return engine.NewSlicePostingsIterator(matched, nil)
}

func (t *TextIndex) hasPhraseAt(doc DocID, terms []string) bool {
	first := t.postings[strings.ToLower(terms[0])]
	if first == nil {
		return false
	}
	for _, start := range first.positions[doc] {
		ok := true
		for i := 1; i < len(terms); i++ {
			tp := t.postings[strings.ToLower(terms[i])]
			if tp == nil || !containsPosition(tp.positions[doc], start+i) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func containsPosition(positions []int, target int) bool {
	for _, p := range positions {
		if p == target {
			return true
		}
	}
	return false
}
