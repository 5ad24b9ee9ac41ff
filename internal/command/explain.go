package command

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/query"
)

// Explain runs FT.EXPLAIN name query: parses query
// against name's schema, exactly as FT.SEARCH would, and renders the
// parsed-and-rewritten tree as an indented string — reusing the same
// query.Parse/query.Node the executor runs against, so FT.EXPLAIN's
// output always matches what FT.SEARCH actually evaluates.
func (m *Manager) Explain(name, queryStr string) (string, error) {
	h, err := m.anyHandle(name)
	if err != nil {
		return "", err
	}
	ast, err := query.Parse(queryStr, h.Def, nil)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	explainNode(&b, ast, 0)
	return b.String(), nil
}

func explainNode(b *strings.Builder, n query.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *query.MatchAll:
		fmt.Fprintf(b, "%sMATCHALL\n", indent)
	case *query.And:
		fmt.Fprintf(b, "%sINTERSECT {\n", indent)
		for _, c := range v.Children {
			explainNode(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case *query.Or:
		fmt.Fprintf(b, "%sUNION {\n", indent)
		for _, c := range v.Children {
			explainNode(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case *query.Not:
		fmt.Fprintf(b, "%sNOT {\n", indent)
		explainNode(b, v.Child, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	case *query.TagMatch:
		if v.Suffix != "" {
			fmt.Fprintf(b, "%sTAG{@%s:*%s}\n", indent, v.Field, v.Suffix)
		} else {
			fmt.Fprintf(b, "%sTAG{@%s:%s}\n", indent, v.Field, strings.Join(v.Values, "|"))
		}
	case *query.NumericRange:
		lo, hi := "[", "]"
		if v.LoExclusive {
			lo = "("
		}
		if v.HiExclusive {
			hi = ")"
		}
		fmt.Fprintf(b, "%sNUMERIC{@%s:%s%v %v%s}\n", indent, v.Field, lo, v.Lo, v.Hi, hi)
	case *query.TextTerm:
		fmt.Fprintf(b, "%sTERM{@%s:%s}\n", indent, v.Field, v.Term)
	case *query.PhraseMatch:
		fmt.Fprintf(b, "%sPHRASE{@%s:\"%s\"}\n", indent, v.Field, strings.Join(v.Terms, " "))
	case *query.KnnWrap:
		fmt.Fprintf(b, "%sKNN{@%s k=%d param=$%s as=%s} {\n", indent, v.Field, v.K, v.ParamName, v.ScoreAlias)
		explainNode(b, v.Filter, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	default:
		fmt.Fprintf(b, "%s<unknown node>\n", indent)
	}
}
