package mtext_test

import (
	"reflect"
	"testing"

	"github.com/ByLCY/dxfglyph/mtext"
)

func TestLinesSplitsParagraphs(t *testing.T) {
	got := mtext.Lines(`Line1\PLine2`)
	want := []string{"Line1", "Line2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLinesDropsFormatting(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"font and height", `{\fArial|b1|i0|c0|p34;\H2.5x;Title}`, []string{"Title"}},
		{"colour and width", `\C1;\W0.8;red`, []string{"red"}},
		{"underline toggles", `\Lunder\l line`, []string{"under line"}},
		{"nested groups", `a{b{\Oc\o}d}e`, []string{"abcde"}},
		{"escaped braces", `\{x\}\\`, []string{`{x}\`}},
		{"non breaking space", `a\~b`, []string{"a b"}},
		{"unicode escape", `\U+00B0C`, []string{"°C"}},
		{"specials", `%%c50 %%p1 90%%d 5%`, []string{"⌀50 ±1 90° 5%"}},
		{"stacked fraction", `1\S1^2;"`, []string{`11/2"`}},
		{"caret controls", `a^Ib^Jc`, []string{"a b", "c"}},
		{"newline", "a\r\nb", []string{"a", "b"}},
		{"empty", "", []string{""}},
		{"trailing break", `x\P`, []string{"x", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mtext.Lines(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Lines(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLinesFallsBackOnUnbalancedBraces(t *testing.T) {
	got := mtext.Lines(`a}b\Pc`)
	want := []string{"a}b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected fallback %q, got %q", want, got)
	}
}

func TestPlainTextJoinsLines(t *testing.T) {
	if got := mtext.PlainText(`0\P0.0`); got != "0\n0.0" {
		t.Fatalf("unexpected plain text %q", got)
	}
	if got := mtext.PlainText(`{\H1.5x;0}`); got != "0" {
		t.Fatalf("formatting should vanish, got %q", got)
	}
}

func TestDecodeText(t *testing.T) {
	cases := map[string]string{
		"AB":             "AB",
		"%%uUnder%%u":    "Under",
		"45%%d":          "45°",
		`\U+2300 20`:     "⌀ 20",
		`C:\path`:        `C:\path`,
		"100%%%":         "100%",
		"e\u0301":        "é",
	}
	for in, want := range cases {
		if got := mtext.DecodeText(in); got != want {
			t.Fatalf("DecodeText(%q) = %q, want %q", in, got, want)
		}
	}
}
