package report

import (
	"strings"

	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/standard"
)

// fontSet holds the two faces used throughout the document. All width
// measurements go through the font itself rather than a page, so the
// planning pass and the rendering pass see identical metrics.
type fontSet struct {
	regular font.Layouter
	bold    font.Layouter
}

func newFontSet() *fontSet {
	return &fontSet{
		regular: standard.Helvetica.New(),
		bold:    standard.HelveticaBold.New(),
	}
}

func (fs *fontSet) width(F font.Layouter, size float64, s string) float64 {
	if s == "" {
		return 0
	}
	return F.Layout(nil, size, s).TotalWidth()
}

// wrap splits text into lines no wider than width, breaking greedily at
// spaces. A single word wider than the full line gets a line of its own.
func (fs *fontSet) wrap(F font.Layouter, size float64, text string, width float64) []string {
	return fs.wrapFirst(F, size, text, width, width)
}

// wrapFirst is wrap with a separate width budget for the first line,
// used for paragraphs whose first line carries an indent.
func (fs *fontSet) wrapFirst(F font.Layouter, size float64, text string, firstWidth, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	spaceWidth := fs.width(F, size, " ")

	var lines []string
	var line []string
	var lineWidth float64
	budget := firstWidth
	for _, word := range words {
		w := fs.width(F, size, word)
		switch {
		case len(line) == 0:
			line = append(line, word)
			lineWidth = w
		case lineWidth+spaceWidth+w <= budget:
			line = append(line, word)
			lineWidth += spaceWidth + w
		default:
			lines = append(lines, strings.Join(line, " "))
			budget = width
			line = []string{word}
			lineWidth = w
		}
	}
	lines = append(lines, strings.Join(line, " "))
	return lines
}
