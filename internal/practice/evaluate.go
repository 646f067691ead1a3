package practice

import (
	"strconv"
	"strings"
	"unicode"
)

// Equivalent decides whether a submitted value matches the canonical
// answer. Pure; both operands go through the same normalization, so
// the relation is symmetric.
//
// Rules, first match wins:
//  1. both parse as integer fractions -> cross-multiplication equality
//  2. both parse as plain decimals    -> numeric equality
//  3. otherwise                       -> normalized string equality
func Equivalent(submitted, canonical string) bool {
	a := normalizeAnswer(submitted)
	b := normalizeAnswer(canonical)

	if an, ad, ok := parseFraction(a); ok {
		if bn, bd, ok2 := parseFraction(b); ok2 {
			return an*bd == bn*ad
		}
	}
	if av, ok := parseDecimal(a); ok {
		if bv, ok2 := parseDecimal(b); ok2 {
			return av == bv
		}
	}
	return a == b
}

// normalizeAnswer strips whitespace, lower-cases, folds equivalent
// operator glyphs onto ASCII, and drops thousands separators between
// digits.
func normalizeAnswer(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '×' || r == '*':
			b.WriteRune('x')
		case r == '÷':
			b.WriteRune('/')
		case r == '−' || r == '–' || r == '—' || r == '‒' || r == '－':
			b.WriteRune('-')
		case r == '＋':
			b.WriteRune('+')
		case r == ',':
			// keep commas that are not digit separators
			if !digitAdjacent(runes, i) {
				b.WriteRune(',')
			}
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func digitAdjacent(runes []rune, i int) bool {
	prev := i - 1
	for prev >= 0 && unicode.IsSpace(runes[prev]) {
		prev--
	}
	next := i + 1
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	return prev >= 0 && next < len(runes) &&
		unicode.IsDigit(runes[prev]) && unicode.IsDigit(runes[next])
}

// parseFraction accepts "int/int" with optional signs and a non-zero
// denominator. A zero denominator is not a fraction and falls through
// to the later rules.
func parseFraction(s string) (num, den int64, ok bool) {
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return 0, 0, false
	}
	num, err := strconv.ParseInt(s[:slash], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	den, err = strconv.ParseInt(s[slash+1:], 10, 64)
	if err != nil || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}

// parseDecimal accepts an optional sign, digits, and at most one
// decimal point. Stricter than strconv alone: no exponents, no hex,
// no "inf".
func parseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" || body == "." {
		return 0, false
	}
	dots := 0
	for _, r := range body {
		switch {
		case r == '.':
			dots++
			if dots > 1 {
				return 0, false
			}
		case r < '0' || r > '9':
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
