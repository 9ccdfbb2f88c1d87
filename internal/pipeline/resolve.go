package pipeline

import (
	"fmt"
	"strings"

	"stocklens/internal"
)

// SchemaError reports required canonical fields that could not be resolved
// to any actual column. It is fatal for the upload: nothing downstream runs.
type SchemaError struct {
	Role    internal.SheetRole
	Missing []internal.Field
	Headers []string
}

func (e *SchemaError) Error() string {
	missing := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		missing = append(missing, string(f))
	}
	return fmt.Sprintf("%s sheet: missing required columns: %s (available: %s)",
		e.Role, strings.Join(missing, ", "), strings.Join(e.Headers, ", "))
}

// Resolution maps canonical fields to the actual columns of one sheet.
type Resolution struct {
	Role    internal.SheetRole
	Headers []string
	Columns map[internal.Field]int
	Names   map[internal.Field]string
	Missing []internal.Field
}

// Has reports whether the canonical field resolved to a column.
func (r Resolution) Has(f internal.Field) bool {
	_, ok := r.Columns[f]
	return ok
}

// Resolve matches each spec against the sheet headers: case-insensitive,
// whitespace-trimmed, first alias wins. A header claimed by one field is
// never handed to another. Missing lists the required fields that did not
// resolve; the caller decides whether that is fatal.
func Resolve(role internal.SheetRole, headers []string, specs []FieldSpec) Resolution {
	byKey := map[string]int{}
	for i, h := range headers {
		key := headerKey(h)
		if key == "" {
			continue
		}
		if _, exists := byKey[key]; !exists {
			byKey[key] = i
		}
	}

	res := Resolution{
		Role:    role,
		Headers: trimmedHeaders(headers),
		Columns: map[internal.Field]int{},
		Names:   map[internal.Field]string{},
	}

	claimed := map[int]bool{}
	for _, spec := range specs {
		found := -1
		for _, alias := range spec.Aliases {
			idx, ok := byKey[headerKey(alias)]
			if ok && !claimed[idx] {
				found = idx
				break
			}
		}
		if found < 0 {
			if spec.Required {
				res.Missing = append(res.Missing, spec.Field)
			}
			continue
		}
		claimed[found] = true
		res.Columns[spec.Field] = found
		res.Names[spec.Field] = strings.TrimSpace(headers[found])
	}

	return res
}

// SchemaErr converts unresolved required fields into the structured error,
// or nil when the resolution is complete.
func (r Resolution) SchemaErr() error {
	if len(r.Missing) == 0 {
		return nil
	}
	return &SchemaError{Role: r.Role, Missing: r.Missing, Headers: r.Headers}
}

func headerKey(h string) string {
	return strings.ToUpper(strings.TrimSpace(h))
}

func trimmedHeaders(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		out = append(out, strings.TrimSpace(h))
	}
	return out
}
