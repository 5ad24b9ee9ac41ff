package command

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/aggregate"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

// AggregateArgs is FT.AGGREGATE's parsed argument list ().
type AggregateArgs struct {
	Index   string
	Query   string
	Stages  []aggregate.Stage
	Params  map[string]string
	Profile bool
}

// ParseAggregate parses FT.AGGREGATE index query [LOAD n field...]
// [GROUPBY n field... [REDUCE func nargs arg... AS name]...]... [SORTBY n
// field [ASC|DESC]... [MAX n]] [LIMIT offset num] [PARAMS n name
// value...] [DIALECT n]. Clauses apply in command-line order;
// GROUPBY/SORTBY/LIMIT/LOAD may each repeat to build a multi-stage
// pipeline. reject-legacy-field-names (field names must start with "@"
// for GROUPBY/SORTBY) is enforced here, the toggle calls out as a
// command-layer concern rather than internal/aggregate's.
func ParseAggregate(args []string, rejectLegacyFieldNames bool) (AggregateArgs, error) {
	c := newCursor(args)
	out := AggregateArgs{Params: make(map[string]string)}

	var err error
	if out.Index, err = c.next(); err != nil {
		return out, fmt.Errorf("%w: FT.AGGREGATE requires an index name", ErrSyntax)
	}
	if out.Query, err = c.next(); err != nil {
		return out, fmt.Errorf("%w: FT.AGGREGATE requires a query string", ErrSyntax)
	}

	transformed := false
	for !c.done() {
		switch {
		case c.is("LOAD"):
			if transformed {
				return out, fmt.Errorf("%w: LOAD must appear before GROUPBY or SORTBY", ErrSyntax)
			}
			fields, err := parseReturnFields(c)
			if err != nil {
				return out, err
			}
			out.Stages = append(out.Stages, &aggregate.LoadStage{Fields: toProjectFields(fields)})

		case c.is("GROUPBY"):
			stage, err := parseGroupBy(c, rejectLegacyFieldNames)
			if err != nil {
				return out, err
			}
			out.Stages = append(out.Stages, stage)
			transformed = true

		case c.is("SORTBY"):
			stage, err := parseAggSortBy(c, rejectLegacyFieldNames)
			if err != nil {
				return out, err
			}
			out.Stages = append(out.Stages, stage)
			transformed = true

		case c.is("LIMIT"):
			offset, err := c.nextInt()
			if err != nil {
				return out, fmt.Errorf("%w: LIMIT requires an offset", ErrSyntax)
			}
			total, err := c.nextInt()
			if err != nil {
				return out, fmt.Errorf("%w: LIMIT requires a count", ErrSyntax)
			}
			out.Stages = append(out.Stages, aggregate.Limit{Offset: offset, Total: total})

		case c.is("PARAMS"):
			n, err := c.nextInt()
			if err != nil {
				return out, fmt.Errorf("%w: PARAMS requires a count", ErrSyntax)
			}
			if n%2 != 0 {
				return out, fmt.Errorf("%w: PARAMS count must be even", ErrSyntax)
			}
			for i := 0; i < n/2; i++ {
				k, err := c.next()
				if err != nil {
					return out, err
				}
				v, err := c.next()
				if err != nil {
					return out, err
				}
				out.Params[k] = v
			}

		case c.is("DIALECT"):
			if _, err := c.nextInt(); err != nil {
				return out, fmt.Errorf("%w: DIALECT requires a version number", ErrSyntax)
			}

		default:
			tok, _ := c.peek()
			return out, fmt.Errorf("%w: unexpected option %q", ErrSyntax, tok)
		}
	}

	if err := aggregate.ValidateOrder(out.Stages); err != nil {
		return out, err
	}
	return out, nil
}

func fieldName(tok string, rejectLegacy bool) (string, error) {
	if strings.HasPrefix(tok, "@") {
		return tok[1:], nil
	}
	if rejectLegacy {
		return "", fmt.Errorf("%w: field name %q must start with '@'", ErrSyntax, tok)
	}
	return tok, nil
}

func parseGroupBy(c *cursor, rejectLegacy bool) (*aggregate.GroupBy, error) {
	n, err := c.nextInt()
	if err != nil {
		return nil, fmt.Errorf("%w: GROUPBY requires a field count", ErrSyntax)
	}
	fields := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tok, err := c.next()
		if err != nil {
			return nil, err
		}
		f, err := fieldName(tok, rejectLegacy)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	g := &aggregate.GroupBy{Fields: fields}
	for c.is("REDUCE") {
		r, err := parseReduce(c)
		if err != nil {
			return nil, err
		}
		g.Reducers = append(g.Reducers, r)
	}
	return g, nil
}

func parseReduce(c *cursor) (aggregate.Reducer, error) {
	funcTok, err := c.next()
	if err != nil {
		return aggregate.Reducer{}, fmt.Errorf("%w: REDUCE requires a function name", ErrSyntax)
	}
	fn := aggregate.ReduceFunc(strings.ToUpper(funcTok))
	switch fn {
	case aggregate.ReduceCount, aggregate.ReduceCountDistinct,
		aggregate.ReduceSum, aggregate.ReduceAvg, aggregate.ReduceMax, aggregate.ReduceMin:
	default:
		return aggregate.Reducer{}, fmt.Errorf("%w: unsupported REDUCE function %q", ErrSyntax, funcTok)
	}

	n, err := c.nextInt()
	if err != nil {
		return aggregate.Reducer{}, fmt.Errorf("%w: REDUCE requires an argument count", ErrSyntax)
	}
	r := aggregate.Reducer{Func: fn}
	if fn != aggregate.ReduceCount {
		if n < 1 {
			return aggregate.Reducer{}, fmt.Errorf("%w: REDUCE %s requires a source field", ErrSyntax, fn)
		}
		src, err := c.next()
		if err != nil {
			return aggregate.Reducer{}, err
		}
		r.Source = strings.TrimPrefix(src, "@")
		for i := 1; i < n; i++ {
			if _, err := c.next(); err != nil {
				return aggregate.Reducer{}, err
			}
		}
	}

	if c.is("AS") {
		as, err := c.next()
		if err != nil {
			return aggregate.Reducer{}, err
		}
		r.As = as
	} else {
		return aggregate.Reducer{}, fmt.Errorf("%w: REDUCE %s requires an AS result field", ErrSyntax, fn)
	}
	return r, nil
}

func parseAggSortBy(c *cursor, rejectLegacy bool) (*aggregate.SortBy, error) {
	n, err := c.nextInt()
	if err != nil {
		return nil, fmt.Errorf("%w: SORTBY requires an argument count", ErrSyntax)
	}
	s := &aggregate.SortBy{}
	consumed := 0
	for consumed < n {
		tok, err := c.next()
		if err != nil {
			return nil, err
		}
		consumed++
		f, err := fieldName(tok, rejectLegacy)
		if err != nil {
			return nil, err
		}
		order := aggregate.SortOrder{Field: f}
		if consumed < n {
			if next, ok := c.peek(); ok && (strings.EqualFold(next, "ASC") || strings.EqualFold(next, "DESC")) {
				order.Desc = strings.EqualFold(next, "DESC")
				c.pos++
				consumed++
			}
		}
		s.Orders = append(s.Orders, order)
	}
	if c.is("MAX") {
		max, err := c.nextInt()
		if err != nil {
			return nil, fmt.Errorf("%w: SORTBY MAX requires a count", ErrSyntax)
		}
		s.Max = max
	}
	return s, nil
}

// toAggregateRows flattens every shard's matched docs into aggregate rows
// before the pipeline runs; field values come straight from the default
// (ProjectAll) projection, same as a plain FT.SEARCH hit.
func toAggregateRows(docs []shardexec.SerializedSearchDoc) []aggregate.Row {
	rows := make([]aggregate.Row, len(docs))
	for i, d := range docs {
		row := make(aggregate.Row, len(d.Fields)+1)
		row[aggregate.KeyField] = d.Key
		for k, v := range d.Fields {
			row[k] = v
		}
		rows[i] = row
	}
	return rows
}
