package aggregate

import (
	"fmt"
	"strings"
)

// ReduceFunc is one REDUCE clause's function, named supported
// set.
type ReduceFunc string

const (
	ReduceCount         ReduceFunc = "COUNT"
	ReduceCountDistinct ReduceFunc = "COUNT_DISTINCT"
	ReduceSum           ReduceFunc = "SUM"
	ReduceAvg           ReduceFunc = "AVG"
	ReduceMax           ReduceFunc = "MAX"
	ReduceMin           ReduceFunc = "MIN"
)

// Reducer is one REDUCE clause: {func, source_field, result_field}.
// Source is ignored for COUNT.
type Reducer struct {
	Func   ReduceFunc
	Source string
	As     string
}

// GroupBy groups rows by the tuple of Fields' values and computes each
// Reducer over every group. The output row per group holds the
// group-key fields plus one entry per reducer's As.
type GroupBy struct {
	Fields   []string
	Reducers []Reducer
}

type groupAccum struct {
	key     Row // group-key field values, for building the output row
	count   int
	sums    map[string]float64
	counts  map[string]int // non-nil numeric samples, per reducer (for AVG)
	seen    map[string]map[string]struct{} // distinct values seen, per COUNT_DISTINCT reducer
	minmax  map[string]float64
	hasMM   map[string]bool
}

func newAccum(key Row) *groupAccum {
	return &groupAccum{
		key:    key,
		sums:   make(map[string]float64),
		counts: make(map[string]int),
		seen:   make(map[string]map[string]struct{}),
		minmax: make(map[string]float64),
		hasMM:  make(map[string]bool),
	}
}

func (a *groupAccum) add(row Row, reducers []Reducer) {
	a.count++
	for _, r := range reducers {
		switch r.Func {
		case ReduceCount:
			// Handled globally via a.count below.
		case ReduceCountDistinct:
			set, ok := a.seen[r.As]
			if !ok {
				set = make(map[string]struct{})
				a.seen[r.As] = set
			}
			set[stringify(row[r.Source])] = struct{}{}
		case ReduceSum, ReduceAvg:
			if v, ok := coerceNumber(row[r.Source]); ok {
				a.sums[r.As] += v
				a.counts[r.As]++
			}
		case ReduceMax:
			if v, ok := coerceNumber(row[r.Source]); ok {
				if !a.hasMM[r.As] || v > a.minmax[r.As] {
					a.minmax[r.As] = v
				}
				a.hasMM[r.As] = true
			}
		case ReduceMin:
			if v, ok := coerceNumber(row[r.Source]); ok {
				if !a.hasMM[r.As] || v < a.minmax[r.As] {
					a.minmax[r.As] = v
				}
				a.hasMM[r.As] = true
			}
		}
	}
}

func (a *groupAccum) result(reducers []Reducer) Row {
	out := make(Row, len(a.key)+len(reducers))
	for k, v := range a.key {
		out[k] = v
	}
	for _, r := range reducers {
		switch r.Func {
		case ReduceCount:
			out[r.As] = float64(a.count)
		case ReduceCountDistinct:
			out[r.As] = float64(len(a.seen[r.As]))
		case ReduceSum:
			out[r.As] = a.sums[r.As]
		case ReduceAvg:
			if n := a.counts[r.As]; n > 0 {
				out[r.As] = a.sums[r.As] / float64(n)
			} else {
				out[r.As] = nil
			}
		case ReduceMax, ReduceMin:
			if a.hasMM[r.As] {
				out[r.As] = a.minmax[r.As]
			} else {
				out[r.As] = nil
			}
		}
	}
	return out
}

// Apply groups rows, preserving the order in which each distinct group
// key is first seen.
func (g GroupBy) Apply(rows []Row) ([]Row, error) {
	for _, r := range g.Reducers {
		if r.As == "" {
			return nil, fmt.Errorf("aggregate: REDUCE %s is missing a result field", r.Func)
		}
	}

	order := make([]string, 0)
	accums := make(map[string]*groupAccum)

	for _, row := range rows {
		parts := make([]string, len(g.Fields))
		key := make(Row, len(g.Fields))
		for i, f := range g.Fields {
			parts[i] = stringify(row[f])
			key[f] = row[f]
		}
		k := strings.Join(parts, "\x1f")

		acc, ok := accums[k]
		if !ok {
			acc = newAccum(key)
			accums[k] = acc
			order = append(order, k)
		}
		acc.add(row, g.Reducers)
	}

	out := make([]Row, 0, len(order))
	for _, k := range order {
		out = append(out, accums[k].result(g.Reducers))
	}
	return out, nil
}
