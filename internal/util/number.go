package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reDotGroups   = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+$`)
	reCommaGroups = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+$`)
)

// ParseNumber parses a spreadsheet cell as a float. It tolerates surrounding
// whitespace, non-breaking spaces, thousands separators and a decimal comma.
// The second return is false when the cell is empty or not numeric.
func ParseNumber(input string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(input, " ", " "))
	if s == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(normalizeNumericToken(s), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ParseInt parses a cell as an integer, accepting float spellings like
// "2024.0" that spreadsheet exports produce for numeric cells.
func ParseInt(input string) (int, bool) {
	f, ok := ParseNumber(input)
	if !ok {
		return 0, false
	}
	n := int(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if reDotGroups.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if reCommaGroups.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return strings.ReplaceAll(compact, ",", "")
}

func IntPtr(v int) *int { return &v }
