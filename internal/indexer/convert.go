package indexer

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// parseVector decodes a VECTOR field's raw string. It accepts either the
// RediSearch wire form (dim*4 little-endian float32 bytes, base64
// encoded when carried as a HASH string) or a comma-separated literal
// ("0.1,0.2,0.3"), the latter convenient for tests and hand-built
// fixtures.
// ParseVector exposes the VECTOR wire-format decoder to other packages
// (internal/shardexec uses it to decode a KNN clause's $param value with
// the same rules used at ingest time).
func ParseVector(raw string, dim int) ([]float32, error) {
	return parseVector(raw, dim)
}

func parseVector(raw string, dim int) ([]float32, error) {
	if vec, err := parseVectorLiteral(raw); err == nil {
		if len(vec) != dim {
			return nil, fmt.Errorf("indexer: vector has %d components, field declares dim %d", len(vec), dim)
		}
		return vec, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("indexer: vector value is neither a float literal list nor base64-encoded bytes")
	}
	if len(decoded) != dim*4 {
		return nil, fmt.Errorf("indexer: decoded vector is %d bytes, field declares dim %d (want %d bytes)", len(decoded), dim, dim*4)
	}
	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		bits := binary.LittleEndian.Uint32(decoded[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

func parseVectorLiteral(raw string) ([]float32, error) {
	parts := strings.Split(raw, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		vec[i] = float32(v)
	}
	return vec, nil
}

// jsonValueToString renders a decoded JSON scalar as the string form the
// typed field indices expect. An array of scalars (used for VECTOR and
// TAG-multi literals) is joined with commas; objects, nulls, and arrays
// holding either are rejected as malformed.
func jsonValueToString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := jsonValueToString(item)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true
	default:
		return "", false
	}
}
