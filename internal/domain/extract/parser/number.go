package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts an Argentine-formatted number to a decimal value.
// "1.234.567,89" becomes 1234567.89; a leading minus is honored and may be
// separated from the digits by a space.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")  // thousands separator
	s = strings.ReplaceAll(s, ",", ".") // decimal separator

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
