package pdfs

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// runeWidth measures every rune as 1 unit.
func runeWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s))
}

func TestWrap(t *testing.T) {
	type testCase struct {
		in    string
		width float64
		out   []string
	}
	cases := []testCase{
		{"", 10, []string{""}},
		{"   \t ", 10, []string{""}},
		{"hello", 10, []string{"hello"}},
		{"hello world", 11, []string{"hello world"}},
		{"hello world", 10, []string{"hello", "world"}},
		{"a b c d e f", 5, []string{"a b c", "d e f"}},
		{"  spaced   out  ", 20, []string{"spaced out"}},
		{"supercalifragilistic", 5, []string{"supercalifragilistic"}},
		{"a supercalifragilistic b", 5, []string{"a", "supercalifragilistic", "b"}},
		{"ab cd supercalifragilistic", 5, []string{"ab cd", "supercalifragilistic"}},
	}
	for i, c := range cases {
		got := Wrap(c.in, c.width, runeWidth)
		if d := cmp.Diff(c.out, got); d != "" {
			t.Errorf("%d: %q (-want +got):\n%s", i, c.in, d)
		}
	}
}

func TestWrapIsPure(t *testing.T) {
	p := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	first := Wrap(p, 50, runeWidth)
	second := Wrap(p, 50, runeWidth)
	if d := cmp.Diff(first, second); d != "" {
		t.Fatalf("wrap differs between calls:\n%s", d)
	}
	for _, line := range first {
		if runeWidth(line) > 50 {
			t.Errorf("line too wide: %q", line)
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	type testCase struct {
		in  string
		out Document
	}
	cases := []testCase{
		{"", Document{}},
		{"\n", Document{""}},
		{"a", Document{"a"}},
		{"a\n", Document{"a"}},
		{"a\nb", Document{"a", "b"}},
		{"a\r\nb\rc", Document{"a", "b", "c"}},
		{"a\n\n\nb", Document{"a", "", "", "b"}},
		{"a\n\n", Document{"a", ""}},
	}
	for i, c := range cases {
		got := SplitParagraphs(c.in)
		if d := cmp.Diff(c.out, got); d != "" {
			t.Errorf("%d: %q (-want +got):\n%s", i, c.in, d)
		}
	}
}

func TestPaginate(t *testing.T) {
	type testCase struct {
		n, first, next int
		out            [][2]int
	}
	cases := []testCase{
		{0, 5, 5, [][2]int{{0, 0}}},
		{3, 5, 5, [][2]int{{0, 3}}},
		{5, 5, 5, [][2]int{{0, 5}}},
		{6, 5, 5, [][2]int{{0, 5}, {5, 6}}},
		{7, 2, 3, [][2]int{{0, 2}, {2, 5}, {5, 7}}},
		{200, 40, 40, [][2]int{{0, 40}, {40, 80}, {80, 120}, {120, 160}, {160, 200}}},
	}
	for i, c := range cases {
		got := Paginate(c.n, c.first, c.next)
		if d := cmp.Diff(c.out, got); d != "" {
			t.Errorf("%d: (-want +got):\n%s", i, d)
		}
	}
}

func TestMeasureKeepsEveryLine(t *testing.T) {
	g := DefaultGeometry()
	doc := SplitParagraphs(strings.Repeat("word ", 500) + "\n\n" + strings.Repeat("x", 900) + "\nshort")
	layout, err := Measure(doc, g, 0, "Contrato", runeWidth)
	if err != nil {
		t.Fatal(err)
	}
	want := 0
	for _, p := range doc {
		want += len(Wrap(p, g.UsableWidth(), runeWidth))
	}
	got := 0
	for n := 1; n <= layout.TotalPages(); n++ {
		got += len(layout.PageLines(n))
	}
	if got != want || len(layout.Lines) != want {
		t.Errorf("lines on pages = %d, wrapped = %d, want %d", got, len(layout.Lines), want)
	}
}

func TestCapacities(t *testing.T) {
	g := DefaultGeometry()
	// A4: (841.89 - 50 - 50) / 15 = 49.4
	first, next := g.Capacities(0, false)
	if first != 49 || next != 49 {
		t.Errorf("no header: got %d/%d", first, next)
	}
	first, next = g.Capacities(0, true)
	if first != 47 || next != 49 {
		t.Errorf("title: got %d/%d", first, next)
	}
	first, _ = g.Capacities(126, true)
	if first != 37 { // (791.89 - 50 - 146 - 30) / 15 = 37.7
		t.Errorf("logo and title: got %d", first)
	}
}
