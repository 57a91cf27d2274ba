// ABOUTME: Tests for HTML to plain text conversion
// ABOUTME: Covers paragraphs, lists, entities, scripts, and excerpts

package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "just text", "just text"},
		{"paragraphs", "<p>First <b>bold</b> line.</p><p>Second.</p>", "First bold line.\n\nSecond."},
		{"line break", "one<br>two", "one\n\ntwo"},
		{"list", "<ul><li>a</li><li>b</li></ul>", "• a\n\n• b"},
		{"entities", "<p>Fish &amp; chips</p>", "Fish & chips"},
		{"script dropped", "<p>keep</p><script>alert(1)</script>", "keep"},
		{"whitespace collapsed", "<p>  lots\n\n of   space </p>", "lots of space"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("<p>short</p>", 20))
	assert.Equal(t, "First para Second", Excerpt("<p>First para</p><p>Second</p>", 40))
	assert.Equal(t, "The quick brown…", Excerpt("<p>The quick brown fox jumps</p>", 18))
}
