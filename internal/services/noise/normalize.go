package noise

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Normalize reduces raw collected text to plain text. Markup is stripped,
// runs of spaces collapse to one and blank lines are dropped. Newlines
// survive because they delimit sentences.
func Normalize(text string) string {
	if strings.ContainsAny(text, "<&") {
		text = stripMarkup(text)
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func stripMarkup(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	// Block-level breaks become sentence breaks
	doc.Find("br, p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return doc.Text()
}
