package indexer

import (
	"encoding/json"
	"strconv"
)

// LoadField resolves identifier's raw stored value for a LOAD projection
//: hashFields[identifier] for a HASH document, or the decoded
// JSON value at the identifier's path for a JSON document. Exactly one
// of hashFields/jsonDoc is expected to be non-nil, matching a shard's
// single DocKind. Returns ok=false if the field isn't present, which the
// caller projects as null.
func LoadField(identifier string, hashFields map[string]string, jsonDoc []byte) (any, bool) {
	if hashFields != nil {
		v, ok := hashFields[identifier]
		if !ok {
			return nil, false
		}
		return v, true
	}
	if jsonDoc == nil {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal(jsonDoc, &parsed); err != nil {
		return nil, false
	}
	return resolveJSONPath(parsed, identifier)
}

// resolveJSONPath walks a decoded JSON document along path, a string
// already validated syntactically by schema.ValidateJSONPath ("$",
// "$.foo.bar", "$.tags[0]"). It returns false if any segment is absent
// or the wrong shape — the caller treats that the same as a missing
// HASH field ( Failure: fields simply aren't indexed, not an error).
func resolveJSONPath(doc any, path string) (any, bool) {
	if path == "$" {
		return doc, true
	}

	cur := doc
	rest := path[1:] // drop leading "$"
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := len(rest)
			for i := 0; i < len(rest); i++ {
				if rest[i] == '.' || rest[i] == '[' {
					end = i
					break
				}
			}
			segment := rest[:end]
			rest = rest[end:]

			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = obj[segment]
			if !ok {
				return nil, false
			}

		case '[':
			close := 1
			for close < len(rest) && rest[close] != ']' {
				close++
			}
			if close >= len(rest) {
				return nil, false
			}
			inner := rest[1:close]
			rest = rest[close+1:]

			arr, ok := cur.([]any)
			if !ok {
				return nil, false
			}
			if inner == "*" {
				// Whole-array selection: caller (jsonValueToString) joins
				// the elements; only meaningful as the final segment.
				cur = arr
				continue
			}
			idx, err := strconv.Atoi(inner)
			if err != nil || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]

		default:
			return nil, false
		}
	}
	return cur, true
}
