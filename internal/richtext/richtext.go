// ABOUTME: Converts the HTML body of a post to terminal-friendly plain text
// ABOUTME: Block elements become line breaks; inline markup is dropped

package richtext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Ul: true, atom.Ol: true, atom.Tr: true,
}

// PlainText returns the readable text of an HTML fragment. Paragraphs are
// separated by blank lines and list items are prefixed with a bullet.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var (
		paragraphs []string
		current    strings.Builder
		skip       int
	)
	flush := func() {
		if text := strings.Join(strings.Fields(current.String()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
		current.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return strings.TrimSpace(fragment)
			}
			flush()
			return strings.Join(paragraphs, "\n\n")

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if tt == html.StartTagToken {
					skip++
				}
			case tok.DataAtom == atom.Li:
				flush()
				current.WriteString("• ")
			case blockElements[tok.DataAtom]:
				flush()
			}

		case html.EndTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if skip > 0 {
					skip--
				}
			case blockElements[tok.DataAtom]:
				flush()
			}

		case html.TextToken:
			if skip == 0 {
				current.WriteString(" ")
				current.Write(z.Text())
			}
		}
	}
}

// Excerpt returns the first max runes of the plain text on a single line
func Excerpt(fragment string, max int) string {
	text := strings.Join(strings.Fields(PlainText(fragment)), " ")
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	cut := string(r[:max])
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
