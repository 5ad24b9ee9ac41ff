package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/schema"
)

// ErrSyntax is wrapped by every syntax error the parser returns, so
// callers (FT.SEARCH/FT.AGGREGATE argument parsing) can distinguish a
// malformed query from an internal failure. A predicate naming an absent
// or wrongly typed field wraps ErrUnknownField instead.
var ErrSyntax = errors.New("query: syntax error")

// ErrUnknownField is returned when a predicate names a field absent from
// the index's schema.
var ErrUnknownField = errors.New("query: unknown field")

// Parse compiles a query string against def, substituting any $name
// references against params, and returns the optimized expression tree.
// This is the "warm-started once" entry point: parsing never touches the
// index data, only the schema, so a syntax error is detected before any
// shard work begins.
func Parse(src string, def *schema.Definition, params map[string]string) (Node, error) {
	p := &parser{lex: newLexer(src), def: def, params: params}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected trailing input at position %d", ErrSyntax, p.cur.pos)
	}
	return Rewrite(n), nil
}

type parser struct {
	lex    *lexer
	cur    token
	def    *schema.Definition
	params map[string]string
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	p.cur = tok
	return nil
}

// parseOr := parseAnd ('|' parseAnd)*
func (p *parser) parseOr() (Node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	for p.cur.kind == tokPipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return p.maybeKnnWrap(children[0])
	}
	return p.maybeKnnWrap(&Or{Children: children})
}

// parseAnd := atom+ (implicit AND over adjacent atoms)
func (p *parser) parseAnd() (Node, error) {
	var children []Node
	for p.startsAtom() {
		a, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		children = append(children, a)
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: expected a query atom at position %d", ErrSyntax, p.cur.pos)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &And{Children: children}, nil
}

func (p *parser) startsAtom() bool {
	switch p.cur.kind {
	case tokMinus, tokLParen, tokStar, tokAt, tokString, tokWord:
		return true
	default:
		return false
	}
}

// maybeKnnWrap checks for a trailing "=>[KNN ...]" clause and wraps the
// filter subtree already parsed, "*=>[KNN k @vec $param AS
// score_alias]" grammar.
func (p *parser) maybeKnnWrap(filter Node) (Node, error) {
	if p.cur.kind != tokArrow {
		return filter, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokLBracket {
		return nil, fmt.Errorf("%w: expected '[' after '=>' at position %d", ErrSyntax, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokWord || !strings.EqualFold(p.cur.text, "KNN") {
		return nil, fmt.Errorf("%w: expected KNN clause at position %d", ErrSyntax, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokWord {
		return nil, fmt.Errorf("%w: expected KNN k at position %d", ErrSyntax, p.cur.pos)
	}
	k, err := strconv.Atoi(p.cur.text)
	if err != nil || k <= 0 {
		return nil, fmt.Errorf("%w: invalid KNN k %q at position %d", ErrSyntax, p.cur.text, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokAt {
		return nil, fmt.Errorf("%w: expected '@field' in KNN clause at position %d", ErrSyntax, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokWord {
		return nil, fmt.Errorf("%w: expected field name at position %d", ErrSyntax, p.cur.pos)
	}
	field := p.cur.text
	spec, ok := p.def.ByAlias(field)
	if !ok || spec.Type != schema.FieldVector {
		return nil, fmt.Errorf("%w: %q is not a VECTOR field", ErrUnknownField, field)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokDollar {
		return nil, fmt.Errorf("%w: expected '$param' in KNN clause at position %d", ErrSyntax, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokWord {
		return nil, fmt.Errorf("%w: expected parameter name at position %d", ErrSyntax, p.cur.pos)
	}
	paramName := p.cur.text
	if _, ok := p.params[paramName]; !ok {
		return nil, fmt.Errorf("%w: undefined parameter %q", ErrSyntax, paramName)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	alias := "__score"
	if p.cur.kind == tokWord && strings.EqualFold(p.cur.text, "AS") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokWord {
			return nil, fmt.Errorf("%w: expected score alias after AS at position %d", ErrSyntax, p.cur.pos)
		}
		alias = p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.kind != tokRBracket {
		return nil, fmt.Errorf("%w: expected ']' to close KNN clause at position %d", ErrSyntax, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &KnnWrap{Filter: filter, Field: field, K: k, ParamName: paramName, ScoreAlias: alias}, nil
}

func (p *parser) parseAtom() (Node, error) {
	switch p.cur.kind {
	case tokMinus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		child, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at position %d", ErrSyntax, p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	case tokStar:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &MatchAll{}, nil

	case tokAt:
		return p.parseFieldPredicate()

	case tokString:
		terms := strings.Fields(p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &PhraseMatch{Terms: terms}, nil

	case tokWord:
		term := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &TextTerm{Term: term}, nil

	default:
		return nil, fmt.Errorf("%w: unexpected token at position %d", ErrSyntax, p.cur.pos)
	}
}

// parseFieldPredicate handles "@field:" followed by a range, a tag set,
// a bare word, or a quoted phrase.
func (p *parser) parseFieldPredicate() (Node, error) {
	if err := p.advance(); err != nil { // consume '@'
		return nil, err
	}
	if p.cur.kind != tokWord {
		return nil, fmt.Errorf("%w: expected field name after '@' at position %d", ErrSyntax, p.cur.pos)
	}
	field := p.cur.text
	spec, ok := p.def.ByAlias(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokColon {
		return nil, fmt.Errorf("%w: expected ':' after field %q at position %d", ErrSyntax, field, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch p.cur.kind {
	case tokLBracket:
		if spec.Type != schema.FieldNumeric {
			return nil, fmt.Errorf("%w: field %q is not NUMERIC", ErrUnknownField, field)
		}
		return p.parseNumericRange(field)

	case tokLBrace:
		if spec.Type != schema.FieldTag {
			return nil, fmt.Errorf("%w: field %q is not TAG", ErrUnknownField, field)
		}
		return p.parseTagSet(field)

	case tokString:
		if spec.Type != schema.FieldText {
			return nil, fmt.Errorf("%w: field %q is not TEXT", ErrUnknownField, field)
		}
		terms := strings.Fields(p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &PhraseMatch{Field: field, Terms: terms}, nil

	case tokWord:
		if spec.Type != schema.FieldText {
			return nil, fmt.Errorf("%w: field %q is not TEXT", ErrUnknownField, field)
		}
		term := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &TextTerm{Field: field, Term: term}, nil

	default:
		return nil, fmt.Errorf("%w: expected a predicate value for field %q at position %d", ErrSyntax, field, p.cur.pos)
	}
}

// parseNumericRange reads "[lo hi]" with optional "(" exclusivity
// markers and "-inf"/"+inf" bound literals.
func (p *parser) parseNumericRange(field string) (Node, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	lo, loExcl, err := p.parseBound()
	if err != nil {
		return nil, err
	}
	hi, hiExcl, err := p.parseBound()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokRBracket {
		return nil, fmt.Errorf("%w: expected ']' to close numeric range at position %d", ErrSyntax, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &NumericRange{Field: field, Lo: lo, Hi: hi, LoExclusive: loExcl, HiExclusive: hiExcl}, nil
}

func (p *parser) parseBound() (float64, bool, error) {
	exclusive := false
	if p.cur.kind == tokLParen {
		exclusive = true
		if err := p.advance(); err != nil {
			return 0, false, err
		}
	}
	negative := false
	if p.cur.kind == tokMinus {
		negative = true
		if err := p.advance(); err != nil {
			return 0, false, err
		}
	}
	if p.cur.kind != tokWord {
		return 0, false, fmt.Errorf("%w: expected numeric bound at position %d", ErrSyntax, p.cur.pos)
	}
	text := p.cur.text
	var v float64
	switch text {
	case "inf", "+inf":
		v = infinity
	default:
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: invalid numeric bound %q at position %d", ErrSyntax, text, p.cur.pos)
		}
		v = parsed
	}
	if negative {
		v = -v
	}
	if err := p.advance(); err != nil {
		return 0, false, err
	}
	return v, exclusive, nil
}

const infinity = 1e308

// parseTagSet reads "{t1|t2|...}" or the suffix-wildcard shorthand
// "{*suffix}".
func (p *parser) parseTagSet(field string) (Node, error) {
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	var values []string
	for {
		if p.cur.kind == tokStar {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokWord {
				return nil, fmt.Errorf("%w: expected suffix after '*' at position %d", ErrSyntax, p.cur.pos)
			}
			suffix := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokRBrace {
				return nil, fmt.Errorf("%w: expected '}' to close tag set at position %d", ErrSyntax, p.cur.pos)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &TagMatch{Field: field, Suffix: suffix}, nil
		}
		if p.cur.kind != tokWord {
			return nil, fmt.Errorf("%w: expected tag value at position %d", ErrSyntax, p.cur.pos)
		}
		values = append(values, p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokPipe {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.cur.kind != tokRBrace {
		return nil, fmt.Errorf("%w: expected '}' to close tag set at position %d", ErrSyntax, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &TagMatch{Field: field, Values: values}, nil
}
