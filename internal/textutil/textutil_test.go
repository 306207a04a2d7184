package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanStripsMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"simple tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"adjacent blocks keep word boundary", "<p>first</p><p>second</p>", "first second"},
		{"entities decoded", "Fish &amp; Chips", "Fish & Chips"},
		{"whitespace collapsed", "a\n\n\tb   c", "a b c"},
		{"script dropped", "<p>keep</p><script>var x = 1;</script>", "keep"},
		{"style dropped", "<style>p{color:red}</style>text", "text"},
		{"empty", "", ""},
		{"blank", "  \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"<div><p>Some <i>rich</i> text.</p><p>More.</p></div>",
		"tabs\tand\nnewlines  everywhere",
		"5 &lt; 6 &amp; 7 &gt; 2",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "Clean not idempotent for %q", in)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One. Two! Three? Four")
	require.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)

	got = SplitSentences("No terminator at all")
	require.Equal(t, []string{"No terminator at all"}, got)

	// A dot not followed by whitespace is not a boundary.
	got = SplitSentences("v1.2 released. Done.")
	require.Equal(t, []string{"v1.2 released.", "Done."}, got)
}

func TestExcerptBudget(t *testing.T) {
	text := "First sentence here. Second sentence follows along. Third one is also present. Fourth closes it out."
	for _, max := range []int{20, 25, 50, 80, 320} {
		got := Excerpt(text, max)
		assert.LessOrEqual(t, len([]rune(got)), max, "budget %d exceeded: %q", max, got)
	}
}

func TestExcerptKeepsWholeSentences(t *testing.T) {
	text := "Aaa bbb ccc. Ddd eee fff. Ggg hhh."
	got := Excerpt(text, 27)
	// 12 + 1 + 12 + 1 = 26 fits; the third sentence would overflow.
	assert.Equal(t, "Aaa bbb ccc. Ddd eee fff.", got)
}

func TestExcerptRunOnFallsBackToHardCut(t *testing.T) {
	text := strings.Repeat("a", 400)
	got := Excerpt(text, 320)
	assert.Equal(t, text[:320], got)
	assert.Len(t, got, 320)
}

func TestExcerptShortInput(t *testing.T) {
	assert.Equal(t, "Short one.", Excerpt("Short one.", 320))
	assert.Equal(t, "", Excerpt("", 320))
	assert.Equal(t, "", Excerpt("anything", 0))
}

func TestExcerptUnicodeBudgetIsRuneBased(t *testing.T) {
	text := strings.Repeat("ø", 100)
	got := Excerpt(text, 40)
	assert.Equal(t, 40, len([]rune(got)))
}
