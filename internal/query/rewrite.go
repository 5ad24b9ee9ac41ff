package query

// Rewrite applies optimization rules to an expression tree until a fixed
// point is reached. Rules: flatten nested And/Or of the same kind, drop
// MatchAll from And, collapse an And/Or with a single remaining child,
// and simplify Not(Not(x)) → x.
func Rewrite(n Node) Node {
	for {
		rewritten := rewriteOnce(n)
		if queryEqual(rewritten, n) {
			return rewritten
		}
		n = rewritten
	}
}

func rewriteOnce(n Node) Node {
	switch v := n.(type) {
	case *And:
		return rewriteAnd(v)
	case *Or:
		return rewriteOr(v)
	case *Not:
		return rewriteNot(v)
	case *KnnWrap:
		return &KnnWrap{
			Filter:     rewriteOnce(v.Filter),
			Field:      v.Field,
			K:          v.K,
			ParamName:  v.ParamName,
			ScoreAlias: v.ScoreAlias,
		}
	default:
		return n
	}
}

func rewriteAnd(v *And) Node {
	children := make([]Node, 0, len(v.Children))
	for _, c := range v.Children {
		rewritten := rewriteOnce(c)
		if inner, ok := rewritten.(*And); ok && canFlatten(inner) {
			children = append(children, inner.Children...)
			continue
		}
		children = append(children, rewritten)
	}

	filtered := make([]Node, 0, len(children))
	for _, c := range children {
		if _, ok := c.(*MatchAll); ok {
			continue
		}
		filtered = append(filtered, c)
	}

	if len(filtered) == 0 {
		return &MatchAll{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &And{Children: filtered}
}

func rewriteOr(v *Or) Node {
	children := make([]Node, 0, len(v.Children))
	for _, c := range v.Children {
		rewritten := rewriteOnce(c)
		if inner, ok := rewritten.(*Or); ok && canFlatten(inner) {
			children = append(children, inner.Children...)
			continue
		}
		children = append(children, rewritten)
	}

	for _, c := range children {
		if _, ok := c.(*MatchAll); ok {
			return &MatchAll{}
		}
	}

	if len(children) == 1 {
		return children[0]
	}
	return &Or{Children: children}
}

func rewriteNot(v *Not) Node {
	child := rewriteOnce(v.Child)
	if inner, ok := child.(*Not); ok {
		return inner.Child
	}
	return &Not{Child: child}
}

// canFlatten reports whether inner's children can be spliced directly
// into its parent (AND(AND(a,b),c) -> AND(a,b,c), same for OR).
func canFlatten(inner Node) bool {
	switch inner.(type) {
	case *And, *Or:
		return true
	default:
		return false
	}
}

// queryEqual checks structural equality for fixed-point detection.
func queryEqual(a, b Node) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case *And:
		bv := b.(*And)
		return nodeListEqual(av.Children, bv.Children)
	case *Or:
		bv := b.(*Or)
		return nodeListEqual(av.Children, bv.Children)
	case *Not:
		bv := b.(*Not)
		return queryEqual(av.Child, bv.Child)
	case *KnnWrap:
		bv := b.(*KnnWrap)
		return av.Field == bv.Field && av.K == bv.K && av.ParamName == bv.ParamName &&
			av.ScoreAlias == bv.ScoreAlias && queryEqual(av.Filter, bv.Filter)
	default:
		// Leaf predicate nodes and MatchAll: pointer identity is sufficient
		// once a rewrite pass stops allocating new nodes for them.
		return a == b
	}
}

func nodeListEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !queryEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
