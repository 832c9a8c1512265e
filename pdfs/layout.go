package pdfs

import (
	"strings"
)

// Document is an ordered list of paragraphs. An empty paragraph is a blank line.
type Document []string

// SplitParagraphs breaks content at line breaks (\n, \r\n, \r).
// A trailing line break does not start another paragraph, so "" has none.
func SplitParagraphs(content string) Document {
	if content == "" {
		return Document{}
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimSuffix(content, "\n")
	return Document(strings.Split(content, "\n"))
}

// Wrap greedily fills lines with the words of one paragraph.
// A word is accepted while measure(line+" "+word) <= maxWidth.
// A word wider than maxWidth sits alone on its own line.
// An empty (or blank) paragraph is exactly one "" line.
func Wrap(paragraph string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if measure(candidate) <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	return append(lines, line)
}

// Paginate splits n lines into [start, end) ranges, firstCap lines on page 1
// and nextCap on every later page. Zero lines still make one page.
func Paginate(n, firstCap, nextCap int) [][2]int {
	if n == 0 {
		return [][2]int{{0, 0}}
	}
	var pages [][2]int
	limit := firstCap
	for start := 0; start < n; {
		end := min(start+limit, n)
		pages = append(pages, [2]int{start, end})
		start = end
		limit = nextCap
	}
	return pages
}

// Layout is the outcome of the measurement pass.
type Layout struct {
	Lines         []string
	Pages         [][2]int
	FirstCapacity int
	NextCapacity  int
}

func (l *Layout) TotalPages() int {
	return len(l.Pages)
}

// PageLines returns the body lines of the 1-based page n.
func (l *Layout) PageLines(n int) []string {
	r := l.Pages[n-1]
	return l.Lines[r[0]:r[1]]
}

// Measure wraps every paragraph with the body font metrics and simulates page breaks.
func Measure(doc Document, g Geometry, logoHeight float64, title string, measure func(string) float64) (*Layout, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	first, next := g.Capacities(logoHeight, title != "")
	maxWidth := g.UsableWidth()
	var lines []string
	for _, p := range doc {
		lines = append(lines, Wrap(p, maxWidth, measure)...)
	}
	// a header and footer page needs no body room
	if len(lines) > 0 && (first < 1 || next < 1) {
		return nil, &RenderError{Op: "layout", Err: ErrNoCapacity}
	}
	return &Layout{
		Lines:         lines,
		Pages:         Paginate(len(lines), first, next),
		FirstCapacity: first,
		NextCapacity:  next,
	}, nil
}
