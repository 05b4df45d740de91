package textutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCentavos renders an amount of centavos as Brazilian currency,
// e.g. 123456789 -> "R$ 1.234.567,89".
func FormatCentavos(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	reais := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(reais, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	return fmt.Sprintf("%sR$ %s,%02d", sign, strings.Join(groups, "."), frac)
}

// FormatPlace converts a numeric place (1, 2, 3, ...) to the Portuguese
// ordinal ("1º", "2º", ...).
func FormatPlace(place int) string {
	return fmt.Sprintf("%dº", place)
}

// JoinInts concatenates the elements of an int slice with a separator.
func JoinInts(elems []int, sep string) string {
	strs := make([]string, len(elems))
	for i, v := range elems {
		strs[i] = strconv.Itoa(v)
	}
	return strings.Join(strs, sep)
}

// ParseInts parses a comma- or space-separated list of integers, the format
// draw results and pick sets arrive in from forms and the command line.
func ParseInts(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("can't parse number %q: %w", f, err)
		}
		out = append(out, n)
	}
	return out, nil
}
