package practice

import "testing"

func TestEquivalentFractions(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"3/4", "6/8", true},
		{"3/4", "4/5", false},
		{"-1/2", "1/-2", true},
		{"2/4", "1/2", true},
		{"5/0", "5/0", true},        // invalid fraction, identical strings
		{"5/0", "anything", false},  // invalid fraction falls through
		{"5/0", "5", false},         // not a decimal either
		{"10/5", "2", false},        // mixed shapes compare as strings
	}
	for _, c := range cases {
		if got := Equivalent(c.a, c.b); got != c.want {
			t.Errorf("Equivalent(%q,%q)=%v want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestEquivalentNumbers(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"12", "12.0", true},
		{"1,200", "1200", true},
		{"  42 ", "42", true},
		{"+5", "5", true},
		{"-3.50", "-3.5", true},
		{"12", "13", false},
		{"0.1", ".1", true},
	}
	for _, c := range cases {
		if got := Equivalent(c.a, c.b); got != c.want {
			t.Errorf("Equivalent(%q,%q)=%v want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestEquivalentStrings(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Seven", "seven", true},
		{"a b c", "abc", true},
		{"2 × 3", "2x3", true},
		{"6 ÷ 2", "6/2", true},
		{"5 − 2", "5-2", true},
		{"red, green", "red,green", true}, // comma kept: not a digit separator
		{"cat", "dog", false},
		{"", "", true},
	}
	for _, c := range cases {
		if got := Equivalent(c.a, c.b); got != c.want {
			t.Errorf("Equivalent(%q,%q)=%v want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestEquivalentCommutative(t *testing.T) {
	vals := []string{"3/4", "6/8", "12", "12.0", "1,200", "abc", "", "5/0", "2x3", "-1/2"}
	for _, a := range vals {
		for _, b := range vals {
			if Equivalent(a, b) != Equivalent(b, a) {
				t.Errorf("not commutative for %q, %q", a, b)
			}
		}
	}
}
