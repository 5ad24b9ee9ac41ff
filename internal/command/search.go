package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/ftsearch/internal/coordinator"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
	"github.com/kailas-cloud/ftsearch/internal/query"
	"github.com/kailas-cloud/ftsearch/internal/shardexec"
)

// ReturnField names one RETURN/LOAD clause field, with an optional "AS
// alias" rename — the command-layer counterpart of shardexec.ProjectField,
// kept as its own type here since FT.SEARCH's argument grammar, not
// shardexec's Go API, is what constrains its shape.
type ReturnField struct {
	Identifier string
	As         string
}

// SearchArgs is FT.SEARCH's parsed argument list.
type SearchArgs struct {
	Index       string
	Query       string
	NoContent   bool
	Return      []ReturnField
	Load        []ReturnField
	SortBy      *shardexec.SortSpec
	HasLimit    bool
	LimitOffset int
	LimitTotal  int
	Params      map[string]string
	Profile     bool
}

// ParseSearch parses FT.SEARCH index query [NOCONTENT] [RETURN n field [AS
// alias]...] [LOAD n field [AS alias]...] [SORTBY field [ASC|DESC]]
// [LIMIT offset num] [PARAMS n name value...] [DIALECT n]. RETURN
// and LOAD are mutually exclusive projection clauses, each rejected if
// the other already appeared.
func ParseSearch(args []string) (SearchArgs, error) {
	c := newCursor(args)
	out := SearchArgs{Params: make(map[string]string)}

	var err error
	if out.Index, err = c.next(); err != nil {
		return out, fmt.Errorf("%w: FT.SEARCH requires an index name", ErrSyntax)
	}
	if out.Query, err = c.next(); err != nil {
		return out, fmt.Errorf("%w: FT.SEARCH requires a query string", ErrSyntax)
	}

	returnSeen, loadSeen := false, false
	for !c.done() {
		switch {
		case c.is("NOCONTENT"):
			out.NoContent = true

		case c.is("RETURN"):
			if loadSeen {
				return out, fmt.Errorf("%w: RETURN cannot be combined with LOAD", ErrSyntax)
			}
			returnSeen = true
			fields, err := parseReturnFields(c)
			if err != nil {
				return out, err
			}
			out.Return = fields

		case c.is("LOAD"):
			if returnSeen {
				return out, fmt.Errorf("%w: LOAD cannot be combined with RETURN", ErrSyntax)
			}
			loadSeen = true
			fields, err := parseReturnFields(c)
			if err != nil {
				return out, err
			}
			out.Load = fields

		case c.is("SORTBY"):
			field, err := c.next()
			if err != nil {
				return out, fmt.Errorf("%w: SORTBY requires a field", ErrSyntax)
			}
			field = strings.TrimPrefix(field, "@")
			spec := &shardexec.SortSpec{Field: field}
			if c.is("DESC") {
				spec.Desc = true
			} else {
				c.is("ASC")
			}
			out.SortBy = spec

		case c.is("LIMIT"):
			offset, err := c.nextInt()
			if err != nil {
				return out, fmt.Errorf("%w: LIMIT requires an offset", ErrSyntax)
			}
			total, err := c.nextInt()
			if err != nil {
				return out, fmt.Errorf("%w: LIMIT requires a count", ErrSyntax)
			}
			out.HasLimit = true
			out.LimitOffset = offset
			out.LimitTotal = total

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
	return out, nil
}

func parseReturnFields(c *cursor) ([]ReturnField, error) {
	n, err := c.nextInt()
	if err != nil {
		return nil, fmt.Errorf("%w: expected a field count", ErrSyntax)
	}
	var out []ReturnField
	for !c.done() && len(out) < n {
		ident, err := c.next()
		if err != nil {
			return nil, err
		}
		f := ReturnField{Identifier: ident}
		if c.is("AS") {
			alias, err := c.next()
			if err != nil {
				return nil, err
			}
			f.As = alias
		}
		out = append(out, f)
	}
	return out, nil
}

func toProjectFields(fs []ReturnField) []shardexec.ProjectField {
	out := make([]shardexec.ProjectField, len(fs))
	for i, f := range fs {
		out[i] = shardexec.ProjectField{Identifier: f.Identifier, As: f.As}
	}
	return out
}

// Search runs FT.SEARCH: parses args.Query once against the resolved
// index's schema and fans the shared AST out across every shard via the
// coordinator.
func (m *Manager) Search(ctx context.Context, args SearchArgs) (coordinator.SearchResult, error) {
	resolved := m.resolve(args.Index)
	h, err := m.anyHandle(args.Index)
	if err != nil {
		return coordinator.SearchResult{}, err
	}

	ast, err := query.Parse(args.Query, h.Def, args.Params)
	if err != nil {
		return coordinator.SearchResult{}, err
	}

	projection := shardexec.Projection{Mode: shardexec.ProjectAll}
	switch {
	case args.NoContent:
		projection.Mode = shardexec.ProjectNoContent
	case len(args.Return) > 0:
		projection.Mode = shardexec.ProjectReturn
		projection.Fields = toProjectFields(args.Return)
	case len(args.Load) > 0:
		projection.Mode = shardexec.ProjectLoad
		projection.Fields = toProjectFields(args.Load)
	}

	req := coordinator.SearchRequest{
		Index:      resolved,
		AST:        ast,
		Params:     args.Params,
		Projection: projection,
		SortBy:     args.SortBy,
		Profile:    args.Profile,
		Loader:     m.getLoader(),
	}
	if args.HasLimit {
		req.Limit = &coordinator.LimitSpec{Offset: args.LimitOffset, Total: args.LimitTotal}
	}

	start := time.Now()
	res := m.coord.Search(m.context(ctx), req)
	metrics.QueryDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if res.Err != nil {
		metrics.ShardErrorsTotal.WithLabelValues("search").Inc()
		return res, res.Err
	}
	return res, nil
}
