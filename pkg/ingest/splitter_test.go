package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText_ShortTextIsOneChunk(t *testing.T) {
	assert.Equal(t, []string{"sea ice"}, SplitText("sea ice", 100, 10))
	assert.Nil(t, SplitText("", 100, 10))
}

func TestSplitText_BreaksOnWhitespaceWithOverlap(t *testing.T) {
	text := strings.Repeat("carbon ", 40) // 280 runes
	chunks := SplitText(text, 100, 20)

	assert.Greater(t, len(chunks), 2)
	for _, c := range chunks[:len(chunks)-1] {
		assert.LessOrEqual(t, len([]rune(c)), 100)
		assert.True(t, strings.HasSuffix(c, "carbon"), "chunk %q should end on a word", c)
	}
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

func TestSplitText_NoWhitespaceCutsHard(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := SplitText(text, 100, 0)

	assert.Equal(t, []int{100, 100, 50}, []int{len(chunks[0]), len(chunks[1]), len(chunks[2])})
}

func TestSplitText_OverlapLargerThanChunkIsIgnored(t *testing.T) {
	chunks := SplitText(strings.Repeat("y", 30), 10, 50)
	assert.Len(t, chunks, 3)
}
