package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateJSONPath checks that identifier is a syntactically valid JSON
// pointer-style path of the form accepted by FT.CREATE ... ON JSON, e.g.
// "$.user.name" or "$.tags[0]". Only the syntax is checked here; whether
// the path resolves against any given document is a runtime concern of
// internal/indexer.
func ValidateJSONPath(identifier string) error {
	if identifier == "$" {
		return nil
	}
	if !strings.HasPrefix(identifier, "$.") && !strings.HasPrefix(identifier, "$[") {
		return fmt.Errorf("path must start with \"$.\" or \"$[\"")
	}

	rest := identifier[1:]
	for len(rest) > 0 {
		switch {
		case strings.HasPrefix(rest, "."):
			rest = rest[1:]
			end := indexOfAny(rest, ".[")
			if end == 0 {
				return fmt.Errorf("empty path segment")
			}
			if end < 0 {
				end = len(rest)
			}
			segment := rest[:end]
			if !isValidIdentifierSegment(segment) {
				return fmt.Errorf("invalid path segment %q", segment)
			}
			rest = rest[end:]
		case strings.HasPrefix(rest, "["):
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return fmt.Errorf("unterminated \"[\"")
			}
			inner := rest[1:close]
			if inner != "*" {
				if _, err := strconv.Atoi(inner); err != nil {
					return fmt.Errorf("invalid array index %q", inner)
				}
			}
			rest = rest[close+1:]
		default:
			return fmt.Errorf("unexpected character %q", rest[:1])
		}
	}
	return nil
}

func indexOfAny(s, chars string) int {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(chars, s[i]) >= 0 {
			return i
		}
	}
	return -1
}

func isValidIdentifierSegment(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}
