package pipeline

import "testing"

func TestPctSold(t *testing.T) {
	cases := []struct {
		name string
		num  float64
		den  float64
		want float64
	}{
		{name: "half", num: 50, den: 100, want: 50},
		{name: "oversold", num: 150, den: 100, want: 150},
		{name: "zero denominator", num: 10, den: 0, want: 0},
		{name: "negative denominator", num: 10, den: -5, want: 0},
		{name: "nothing sold", num: 0, den: 40, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PctSold(tc.num, tc.den); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	th := EfficiencyThresholds{LowMax: 30, MediumMax: 60, HighMax: 100}

	cases := []struct {
		name string
		pct  float64
		den  float64
		want string
	}{
		{name: "no baseline", pct: 0, den: 0, want: EffNoBaseline},
		{name: "low boundary", pct: 30, den: 10, want: EffLow},
		{name: "medium", pct: 45, den: 10, want: EffMedium},
		{name: "high boundary", pct: 100, den: 10, want: EffHigh},
		{name: "very high", pct: 120, den: 10, want: EffVeryHigh},
		{name: "zero sold with baseline", pct: 0, den: 10, want: EffLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := th.Classify(tc.pct, tc.den); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
