package util

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain", input: "100", want: 100},
		{name: "decimal dot", input: "1.5", want: 1.5},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "thousand space", input: "1 000", want: 1000},
		{name: "thousand comma", input: "1,000", want: 1000},
		{name: "thousand dot", input: "1.000", want: 1000},
		{name: "padded", input: "  42  ", want: 42},
		{name: "negative", input: "-7", want: -7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseNumber(tc.input)
			if !ok {
				t.Fatalf("not numeric")
			}
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestParseNumberRejects(t *testing.T) {
	for _, input := range []string{"", "  ", "N/A", "abc", "12x"} {
		if _, ok := ParseNumber(input); ok {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
}

func TestParseInt(t *testing.T) {
	if got, ok := ParseInt("2024.0"); !ok || got != 2024 {
		t.Fatalf("got %v ok=%v", got, ok)
	}
	if _, ok := ParseInt("2024.5"); ok {
		t.Fatal("fractional value should not parse as int")
	}
}
