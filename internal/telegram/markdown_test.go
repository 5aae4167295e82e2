package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessageShort(t *testing.T) {
	parts := SplitMessage("hello", 100)
	assert.Equal(t, []string{"hello"}, parts)
}

func TestSplitMessagePreservesContent(t *testing.T) {
	text := strings.Repeat("line one\nline two\n", 400)
	parts := SplitMessage(text, 4096)

	assert.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 4096)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestFixMarkdownClosesCodeBlock(t *testing.T) {
	fixed := FixMarkdown("```go\nfunc main() {}")
	assert.Equal(t, strings.Count(fixed, "```")%2, 0)
}

func TestFixMarkdownClosesInlineCode(t *testing.T) {
	fixed := FixMarkdown("use `fmt.Println to print")
	assert.Equal(t, strings.Count(fixed, "`")%2, 0)
}

func TestFixMarkdownLeavesBalancedTextAlone(t *testing.T) {
	text := "some `code` and a ```block``` here"
	assert.Equal(t, text, FixMarkdown(text))
}
