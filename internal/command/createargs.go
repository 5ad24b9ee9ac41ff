package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// ParseCreate parses FT.CREATE name [ON HASH|JSON] [PREFIX 1 pfx]
// [STOPWORDS n w1..wn] SCHEMA field [AS alias] TYPE [options]....
// args excludes the command name itself. Only a single PREFIX is
// accepted; multiple prefixes are out of scope. DB_INDEX is rejected
// outright if given with anything other than 0.
func ParseCreate(args []string) (*schema.Definition, error) {
	c := newCursor(args)
	name, err := c.next()
	if err != nil {
		return nil, fmt.Errorf("%w: FT.CREATE requires an index name", ErrSyntax)
	}

	kind := schema.DocHash
	prefix := ""
	var stopwords []string
	prefixSeen := false

	for !c.done() {
		switch {
		case c.is("ON"):
			kindTok, err := c.next()
			if err != nil {
				return nil, err
			}
			switch strings.ToUpper(kindTok) {
			case "HASH":
				kind = schema.DocHash
			case "JSON":
				kind = schema.DocJSON
			default:
				return nil, fmt.Errorf("%w: ON must be HASH or JSON, got %q", ErrSyntax, kindTok)
			}

		case c.is("PREFIX"):
			if prefixSeen {
				return nil, fmt.Errorf("%w: only one PREFIX clause is supported", ErrSyntax)
			}
			n, err := c.nextInt()
			if err != nil {
				return nil, err
			}
			if n != 1 {
				return nil, fmt.Errorf("%w: only PREFIX 1 is supported, got PREFIX %d", ErrSyntax, n)
			}
			p, err := c.next()
			if err != nil {
				return nil, err
			}
			prefix = p
			prefixSeen = true

		case c.is("DB_INDEX"):
			n, err := c.nextInt()
			if err != nil {
				return nil, err
			}
			if n != 0 {
				return nil, fmt.Errorf("%w: DB_INDEX must be 0", ErrSyntax)
			}

		case c.is("STOPWORDS"):
			n, err := c.nextInt()
			if err != nil {
				return nil, err
			}
			stopwords = make([]string, 0, n)
			for i := 0; i < n; i++ {
				w, err := c.next()
				if err != nil {
					return nil, err
				}
				stopwords = append(stopwords, w)
			}

		case c.is("SCHEMA"):
			fields, err := parseSchemaFields(c)
			if err != nil {
				return nil, err
			}
			return schema.New(name, kind, prefix, stopwords, fields)

		default:
			tok, _ := c.peek()
			return nil, fmt.Errorf("%w: unexpected option %q", ErrSyntax, tok)
		}
	}
	return nil, fmt.Errorf("%w: missing SCHEMA clause", ErrSyntax)
}

// ParseAlterAdd parses FT.ALTER name SCHEMA ADD field [AS alias] TYPE
// [options]... into the extra FieldSpecs to merge.
func ParseAlterAdd(args []string) (name string, extra []schema.FieldSpec, err error) {
	c := newCursor(args)
	name, err = c.next()
	if err != nil {
		return "", nil, fmt.Errorf("%w: FT.ALTER requires an index name", ErrSyntax)
	}
	if !c.is("SCHEMA") {
		return "", nil, fmt.Errorf("%w: FT.ALTER requires a SCHEMA clause", ErrSyntax)
	}
	if !c.is("ADD") {
		return "", nil, fmt.Errorf("%w: FT.ALTER SCHEMA requires ADD", ErrSyntax)
	}
	fields, err := parseSchemaFields(c)
	if err != nil {
		return "", nil, err
	}
	return name, fields, nil
}

func parseSchemaFields(c *cursor) ([]schema.FieldSpec, error) {
	var fields []schema.FieldSpec
	for !c.done() {
		identifier, err := c.next()
		if err != nil {
			return nil, err
		}
		spec := schema.FieldSpec{Identifier: identifier}
		if c.is("AS") {
			alias, err := c.next()
			if err != nil {
				return nil, err
			}
			spec.Alias = alias
		}

		typeTok, err := c.next()
		if err != nil {
			return nil, fmt.Errorf("%w: field %q missing TYPE", ErrSyntax, identifier)
		}
		if err := parseFieldType(c, typeTok, &spec); err != nil {
			return nil, err
		}

	fieldOptions:
		for !c.done() {
			switch {
			case c.is("SORTABLE"):
				spec.Flags |= schema.FlagSortable
				// UNF ("un-normalized form") may trail SORTABLE; tolerated.
				c.is("UNF")
			case c.is("NOINDEX"):
				spec.Flags |= schema.FlagNoIndex
			default:
				tok, ok := c.peek()
				if !ok || !isIgnoredOption(tok) {
					break fieldOptions
				}
				// Silently-tolerated per-field option: consume it and,
				// if it takes a value, consume that too.
				c.pos++
				if takesValue(tok) {
					c.pos++
				}
			}
		}
		fields = append(fields, spec)
	}
	return fields, nil
}

func parseFieldType(c *cursor, typeTok string, spec *schema.FieldSpec) error {
	switch strings.ToUpper(typeTok) {
	case "TAG":
		spec.Type = schema.FieldTag
		spec.Tag = schema.DefaultTagParams()
		for {
			switch {
			case c.is("SEPARATOR"):
				sep, err := c.next()
				if err != nil {
					return err
				}
				if len(sep) != 1 {
					return fmt.Errorf("%w: TAG SEPARATOR must be exactly one character", ErrSyntax)
				}
				spec.Tag.Separator = sep[0]
			case c.is("CASESENSITIVE"):
				spec.Tag.CaseSensitive = true
			case c.is("WITHSUFFIXTRIE"):
				spec.Tag.WithSuffixTrie = true
			default:
				return nil
			}
		}

	case "TEXT":
		spec.Type = schema.FieldText
		for {
			switch {
			case c.is("WEIGHT"):
				if _, err := c.next(); err != nil {
					return err
				}
			case c.is("PHONETIC"):
				// Silently tolerated; its matcher value is consumed too.
				if _, err := c.next(); err != nil {
					return err
				}
			case c.is("NOSTEM", "INDEXMISSING", "INDEXEMPTY", "WITHSUFFIXTRIE"):
				// Silently tolerated.
			default:
				return nil
			}
		}

	case "NUMERIC":
		spec.Type = schema.FieldNumeric
		spec.Numeric = schema.DefaultNumericParams()
		for c.is("INDEXMISSING") {
		}
		return nil

	case "VECTOR":
		spec.Type = schema.FieldVector
		return parseVectorParams(c, &spec.Vector)

	default:
		return fmt.Errorf("%w: unsupported field type %q", ErrSyntax, typeTok)
	}
}

// parseVectorParams parses RediSearch's VECTOR algo nargs ATTR val...
// shape: `VECTOR FLAT 6 TYPE FLOAT32 DIM 128 DISTANCE_METRIC L2` or the
// HNSW equivalent with optional M/EF_CONSTRUCTION.
func parseVectorParams(c *cursor, p *schema.VectorParams) error {
	algoTok, err := c.next()
	if err != nil {
		return fmt.Errorf("%w: VECTOR requires an algorithm (FLAT or HNSW)", ErrSyntax)
	}
	switch strings.ToUpper(algoTok) {
	case "FLAT":
		p.Algo = schema.VectorFlat
	case "HNSW":
		p.Algo = schema.VectorHNSW
		p.HNSWM = 16
		p.HNSWEFConstruction = 200
	default:
		return fmt.Errorf("%w: VECTOR algorithm must be FLAT or HNSW, got %q", ErrSyntax, algoTok)
	}

	n, err := c.nextInt()
	if err != nil {
		return fmt.Errorf("%w: VECTOR requires an attribute count", ErrSyntax)
	}
	if n%2 != 0 {
		return fmt.Errorf("%w: VECTOR attribute count must be even (key/value pairs)", ErrSyntax)
	}

	for i := 0; i < n/2; i++ {
		key, err := c.next()
		if err != nil {
			return err
		}
		val, err := c.next()
		if err != nil {
			return err
		}
		switch strings.ToUpper(key) {
		case "TYPE":
			if strings.ToUpper(val) != "FLOAT32" {
				return fmt.Errorf("%w: VECTOR TYPE must be FLOAT32", ErrSyntax)
			}
		case "DIM":
			dim, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%w: VECTOR DIM must be an integer", ErrSyntax)
			}
			p.Dim = dim
		case "DISTANCE_METRIC":
			switch strings.ToUpper(val) {
			case "L2":
				p.Metric = schema.MetricL2
			case "IP":
				p.Metric = schema.MetricIP
			case "COSINE":
				p.Metric = schema.MetricCosine
			default:
				return fmt.Errorf("%w: unknown DISTANCE_METRIC %q", ErrSyntax, val)
			}
		case "INITIAL_CAP":
			cap, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%w: INITIAL_CAP must be an integer", ErrSyntax)
			}
			p.Capacity = cap
		case "M":
			m, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%w: M must be an integer", ErrSyntax)
			}
			p.HNSWM = m
		case "EF_CONSTRUCTION", "EF_RUNTIME", "EPSILON":
			// EF_CONSTRUCTION is accepted and applied for HNSW when it's the
			// construction parameter; EF_RUNTIME/EPSILON are query-time-only
			// knobs silently tolerated here.
			if strings.ToUpper(key) == "EF_CONSTRUCTION" {
				ef, err := strconv.Atoi(val)
				if err != nil {
					return fmt.Errorf("%w: EF_CONSTRUCTION must be an integer", ErrSyntax)
				}
				p.HNSWEFConstruction = ef
			}
		default:
			return fmt.Errorf("%w: unknown VECTOR attribute %q", ErrSyntax, key)
		}
	}
	if p.Dim <= 0 {
		return fmt.Errorf("%w: VECTOR requires DIM > 0", ErrSyntax)
	}
	return nil
}

func isIgnoredOption(tok string) bool {
	return schema.KnownIgnoredFlags[strings.ToUpper(tok)]
}

func takesValue(tok string) bool {
	switch strings.ToUpper(tok) {
	case "WEIGHT", "PHONETIC", "EF_RUNTIME", "EPSILON":
		return true
	default:
		return false
	}
}
