package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Column resolution errors.
var (
	ErrMissingColumns  = errors.New("required columns not found")
	ErrAmbiguousColumn = errors.New("ambiguous column")
)

// ColumnSpec declares a canonical key and the header spellings accepted for it.
type ColumnSpec struct {
	Key      string
	Variants []string
	Required bool
}

// NormalizeHeader folds a header for matching: composed Unicode, trimmed,
// lowercased, whitespace, hyphens and slashes turned into underscores and
// trailing colons removed. It is idempotent.
func NormalizeHeader(h string) string {
	h = norm.NFC.String(strings.ToLower(strings.TrimSpace(norm.NFC.String(h))))

	h = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '/' {
			return '_'
		}

		return r
	}, h)

	return strings.TrimRight(h, ":")
}

// Resolution is the outcome of matching table headers to canonical keys.
type Resolution struct {
	// Keys maps header index to canonical key for every matched header.
	Keys map[int]string
	// Renamed maps original header to canonical key where the two differ.
	Renamed map[string]string
	// Shadowed lists, per optional key, the extra matching headers that were
	// left as passthrough columns because an earlier header took the key.
	Shadowed map[string][]string
	Missing  []string
	Found   []string
}

// OK reports whether every required key was resolved.
func (r *Resolution) OK() bool {
	return len(r.Missing) == 0
}

// Resolver maps loosely spelled headers to canonical keys.
type Resolver struct {
	specs []ColumnSpec
}

// NewResolver creates a resolver; variants are normalized up front.
func NewResolver(specs []ColumnSpec) *Resolver {
	normalized := make([]ColumnSpec, 0, len(specs))

	for _, spec := range specs {
		variants := make([]string, 0, len(spec.Variants)+1)
		variants = append(variants, NormalizeHeader(spec.Key))

		for _, v := range spec.Variants {
			variants = append(variants, NormalizeHeader(v))
		}

		normalized = append(normalized, ColumnSpec{
			Key:      spec.Key,
			Variants: variants,
			Required: spec.Required,
		})
	}

	return &Resolver{specs: normalized}
}

// Resolve matches headers against the canonical keys. Two headers matching
// the same required key fail with ErrAmbiguousColumn; for optional keys the
// first header wins and the rest are recorded in Shadowed. Unresolved
// required keys fail with ErrMissingColumns. The resolution is returned in both cases so callers
// can report what was found.
func (r *Resolver) Resolve(headers []string) (*Resolution, error) {
	res := &Resolution{
		Keys:     make(map[int]string),
		Renamed:  make(map[string]string),
		Shadowed: make(map[string][]string),
		Found:    append([]string(nil), headers...),
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	claimed := make(map[int]bool, len(headers))

	for _, spec := range r.specs {
		var matches []int

		for i, n := range normalized {
			if claimed[i] || n == "" {
				continue
			}

			if containsString(spec.Variants, n) {
				matches = append(matches, i)
			}
		}

		switch len(matches) {
		case 0:
			if spec.Required {
				res.Missing = append(res.Missing, spec.Key)
			}
		case 1:
			res.bind(headers, matches[0], spec.Key)
			claimed[matches[0]] = true
		default:
			names := make([]string, len(matches))
			for i, idx := range matches {
				names[i] = headers[idx]
			}

			if spec.Required {
				return res, fmt.Errorf("%w: %q matched by headers %s", ErrAmbiguousColumn, spec.Key, strings.Join(quoteAll(names), ", "))
			}

			res.bind(headers, matches[0], spec.Key)
			claimed[matches[0]] = true
			res.Shadowed[spec.Key] = names[1:]
		}
	}

	if !res.OK() {
		return res, fmt.Errorf("%w: %s (found: %s)", ErrMissingColumns,
			strings.Join(res.Missing, ", "), strings.Join(quoteAll(headers), ", "))
	}

	return res, nil
}

func (r *Resolution) bind(headers []string, idx int, key string) {
	r.Keys[idx] = key

	if headers[idx] != key {
		r.Renamed[headers[idx]] = key
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}

	return quoted
}
