// Package aggregate implements FT.AGGREGATE's row pipeline: once
// the coordinator has concatenated every shard's matched rows into one
// buffer, a Pipeline applies GROUPBY/REDUCE, SORTBY, LIMIT, and LOAD
// stages over it in command-line order.
//
// Small composable stages, the same "materialize a slice and hand it to
// the next step" pattern internal/shardexec uses for query evaluation.
package aggregate

import "fmt"

// Row is one aggregation row: a field name to its projected/computed
// value. GROUPBY output rows only ever carry the group-key fields and
// the reducers' result fields; ungrouped rows carry whatever the shard
// projected plus anything a LOAD stage pulled in.
type Row map[string]any

// KeyField is the reserved row field a LoadStage uses to look the
// underlying document back up; shardexec-sourced rows set it from
// SerializedSearchDoc.Key.
const KeyField = "__key"

// Stage is one pipeline step. Stages are applied strictly in the order
// they appear in a Pipeline, mirroring the command line's left-to-right
// clause order.
type Stage interface {
	Apply(rows []Row) ([]Row, error)
}

// Pipeline is an ordered sequence of stages.
type Pipeline struct {
	Stages []Stage
}

// Run applies every stage in order, feeding each stage's output rows
// into the next.
func (p Pipeline) Run(rows []Row) ([]Row, error) {
	var err error
	for _, s := range p.Stages {
		rows, err = s.Apply(rows)
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// ValidateOrder enforces "LOAD clauses appear before any transforming
// step": a *LoadStage after the first *GroupBy or *SortBy is a
// syntax error, reported synchronously by the command layer before the
// query is ever dispatched (, argument errors).
func ValidateOrder(stages []Stage) error {
	transformed := false
	for _, s := range stages {
		switch s.(type) {
		case *LoadStage:
			if transformed {
				return fmt.Errorf("aggregate: LOAD must appear before any GROUPBY or SORTBY")
			}
		case *GroupBy, *SortBy:
			transformed = true
		}
	}
	return nil
}
