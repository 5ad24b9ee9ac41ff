package schema

import "fmt"

// FieldType identifies the kind of typed field index a FieldSpec feeds.
type FieldType int

const (
	FieldTag FieldType = iota
	FieldText
	FieldNumeric
	FieldVector
)

func (t FieldType) String() string {
	switch t {
	case FieldTag:
		return "TAG"
	case FieldText:
		return "TEXT"
	case FieldNumeric:
		return "NUMERIC"
	case FieldVector:
		return "VECTOR"
	default:
		return "UNKNOWN"
	}
}

// Flags is a bitset of per-field modifiers.
type Flags uint8

const (
	FlagSortable Flags = 1 << iota
	FlagNoIndex
)

func (f Flags) Sortable() bool { return f&FlagSortable != 0 }
func (f Flags) NoIndex() bool  { return f&FlagNoIndex != 0 }

// VectorAlgo selects the vector index implementation.
type VectorAlgo int

const (
	VectorFlat VectorAlgo = iota
	VectorHNSW
)

// VectorMetric selects the distance function for KNN.
type VectorMetric int

const (
	MetricL2 VectorMetric = iota
	MetricIP
	MetricCosine
)

// TagParams holds TAG-typed field parameters.
type TagParams struct {
	Separator      byte
	CaseSensitive  bool
	WithSuffixTrie bool
}

// DefaultTagParams returns the RediSearch-compatible TAG defaults.
func DefaultTagParams() TagParams {
	return TagParams{Separator: ',', CaseSensitive: false}
}

// TextParams holds TEXT-typed field parameters.
type TextParams struct{}

// NumericParams holds NUMERIC-typed field parameters.
type NumericParams struct {
	BlockSize int
}

// DefaultNumericParams returns the default numeric block size.
func DefaultNumericParams() NumericParams {
	return NumericParams{BlockSize: 128}
}

// VectorParams holds VECTOR-typed field parameters.
type VectorParams struct {
	Algo               VectorAlgo
	Dim                int
	Metric             VectorMetric
	Capacity           int
	HNSWM              int
	HNSWEFConstruction int
}

// FieldSpec describes a single indexed field of a Schema.
type FieldSpec struct {
	Identifier string
	Alias      string
	Type       FieldType
	Flags      Flags

	Tag     TagParams
	Text    TextParams
	Numeric NumericParams
	Vector  VectorParams
}

// Validate checks a single FieldSpec for internal consistency.
// It does not check cross-field invariants (duplicate aliases); the
// owning Schema does that.
func (f *FieldSpec) Validate() error {
	if f.Identifier == "" {
		return fmt.Errorf("schema: field identifier must not be empty")
	}
	if f.Alias == "" {
		return fmt.Errorf("schema: field %q: alias must not be empty", f.Identifier)
	}
	switch f.Type {
	case FieldTag:
		if f.Tag.Separator == 0 {
			return fmt.Errorf("schema: field %q: TAG separator must be exactly one character", f.Alias)
		}
	case FieldText:
		// no required params
	case FieldNumeric:
		if f.Numeric.BlockSize <= 0 {
			return fmt.Errorf("schema: field %q: NUMERIC block_size must be positive", f.Alias)
		}
	case FieldVector:
		if f.Vector.Dim <= 0 {
			return fmt.Errorf("schema: field %q: VECTOR dim must be > 0", f.Alias)
		}
	default:
		return fmt.Errorf("schema: field %q: unsupported field type %v", f.Alias, f.Type)
	}
	if f.Flags.NoIndex() && f.Flags.Sortable() {
		// Allowed by RediSearch: NOINDEX fields may still be SORTABLE
		// (cached for projection, never match). Nothing to reject here.
		_ = 0
	}
	return nil
}

// KnownIgnoredFlags are per-field options the core silently tolerates for
// compatibility with scripts targeting a more complete implementation.
// The schema parser (command surface) consumes each one, and its value
// where it takes one, without logging it; nothing in the module logs
// these options.
var KnownIgnoredFlags = map[string]bool{
	"NOSTEM":        true,
	"INDEXMISSING":  true,
	"INDEXEMPTY":    true,
	"UNF":           true,
	"WEIGHT":        true,
	"PHONETIC":      true,
	"EF_RUNTIME":    true,
	"EPSILON":       true,
}
