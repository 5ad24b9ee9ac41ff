package fieldindex

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/engine"
)

// TagIndex splits an input string by a separator and lowercases each tag
// unless case_sensitive is set, maintaining posting lists tag → set<doc_id>
//. With WithSuffixTrie it also maintains a suffix trie so that
// "*suffix" wildcards run in time proportional to the number of matches
// rather than the number of distinct tags.
type TagIndex struct {
	separator      byte
	caseSensitive  bool
	withSuffixTrie bool

	postings map[string]*sortedDocSet
	// docTags lets Remove() find which postings to clean up for a doc
	// without a reverse scan.
	docTags map[DocID][]string

	suffix *suffixTrie
}

// NewTagIndex creates an empty TagIndex with the given TAG field params.
func NewTagIndex(separator byte, caseSensitive, withSuffixTrie bool) *TagIndex {
	t := &TagIndex{
		separator:      separator,
		caseSensitive:  caseSensitive,
		withSuffixTrie: withSuffixTrie,
		postings:       make(map[string]*sortedDocSet),
		docTags:        make(map[DocID][]string),
	}
	if withSuffixTrie {
		t.suffix = newSuffixTrie()
	}
	return t
}

// SplitTags splits a raw field value into its normalized tag components.
func (t *TagIndex) SplitTags(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, string(t.separator))
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !t.caseSensitive {
			p = strings.ToLower(p)
		}
		tags = append(tags, p)
	}
	return tags
}

// Add indexes a document's TAG field value.
func (t *TagIndex) Add(doc DocID, value string) {
	tags := t.SplitTags(value)
	if len(tags) == 0 {
		return
	}
	for _, tag := range tags {
		set, ok := t.postings[tag]
		if !ok {
			set = &sortedDocSet{}
			t.postings[tag] = set
			if t.suffix != nil {
				t.suffix.insert(tag)
			}
		}
		set.add(doc)
	}
	t.docTags[doc] = append(t.docTags[doc], tags...)
}

// Remove removes all postings for a document.
func (t *TagIndex) Remove(doc DocID) {
	for _, tag := range t.docTags[doc] {
		if set, ok := t.postings[tag]; ok {
			set.remove(doc)
			if set.len() == 0 {
				delete(t.postings, tag)
			}
		}
	}
	delete(t.docTags, doc)
}

// MatchExact returns the posting iterator for tags equal to any of vals
// (the `{t1|t2|...}` alternative form).
func (t *TagIndex) MatchExact(vals ...string) engine.PostingsIterator {
	norm := make([]string, len(vals))
	for i, v := range vals {
		if t.caseSensitive {
			norm[i] = v
		} else {
			norm[i] = strings.ToLower(v)
		}
	}

	var iters []engine.PostingsIterator
	for _, v := range norm {
		if set, ok := t.postings[v]; ok && set.len() > 0 {
			iters = append(iters, engine.NewSlicePostingsIterator(set.ids, nil))
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

// MatchSuffix returns documents whose tag ends with suffix ("*suffix").
// Uses the suffix trie when available; otherwise falls back to a linear
// scan over all distinct tags.
func (t *TagIndex) MatchSuffix(suffix string) engine.PostingsIterator {
	if !t.caseSensitive {
		suffix = strings.ToLower(suffix)
	}

	var matchingTags []string
	if t.suffix != nil {
		matchingTags = t.suffix.bySuffix(suffix)
	} else {
		for tag := range t.postings {
			if strings.HasSuffix(tag, suffix) {
				matchingTags = append(matchingTags, tag)
			}
		}
	}
	return t.MatchExact(matchingTags...)
}

// Values returns the distinct tag values currently posted, for
// FT.TAGVALS.
func (t *TagIndex) Values() []string {
	vals := make([]string, 0, len(t.postings))
	for tag := range t.postings {
		vals = append(vals, tag)
	}
	sort.Strings(vals)
	return vals
}

// suffixTrie indexes tags by their reversed characters so that a suffix
// query becomes a prefix lookup, serving TAG {*suffix} matching. Only
// TAG fields use it; TEXT fields have no suffix trie.
type suffixTrie struct {
	root *trieNode
}

type trieNode struct {
	children map[byte]*trieNode
	terms    []string // terms whose reversal passes through this node and ends here
}

func newSuffixTrie() *suffixTrie {
	return &suffixTrie{root: &trieNode{children: make(map[byte]*trieNode)}}
}

func (s *suffixTrie) insert(term string) {
	n := s.root
	rev := reverseString(term)
	for i := 0; i < len(rev); i++ {
		b := rev[i]
		child, ok := n.children[b]
		if !ok {
			child = &trieNode{children: make(map[byte]*trieNode)}
			n.children[b] = child
		}
		n = child
	}
	n.terms = append(n.terms, term)
}

func (s *suffixTrie) bySuffix(suffix string) []string {
	n := s.root
	revSuffix := reverseString(suffix)
	for i := 0; i < len(revSuffix); i++ {
		child, ok := n.children[revSuffix[i]]
		if !ok {
			return nil
		}
		n = child
	}
	var out []string
	collectTerms(n, &out)
	return out
}

func collectTerms(n *trieNode, out *[]string) {
	*out = append(*out, n.terms...)
	for _, child := range n.children {
		collectTerms(child, out)
	}
}

func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
