package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts the text typed in the amount field to a number.
//
// Both dot (12.50) and comma (12,50) decimal separators are accepted. Sign
// and magnitude are not restricted, but the text must be a finite decimal
// number: "abc", "NaN" and "Inf" are rejected with ErrInvalidAmount. A comma
// followed by exactly three digits ("1,000") reads as a thousands separator
// and is rejected too.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if i := strings.LastIndex(s, ","); i >= 0 && isDigits(s[i+1:]) && len(s)-i-1 == 3 {
		return 0, fmt.Errorf("%w: ambiguous separator in %q", ErrInvalidAmount, s)
	}
	normalized := strings.ReplaceAll(s, ",", ".")
	if strings.Count(normalized, ".") > 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for _, r := range normalized {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatAmount renders an amount for the table, always with two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
