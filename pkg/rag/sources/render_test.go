package sources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "ü...", Truncate("üü", 1))
}

func TestBlocks_Placeholders(t *testing.T) {
	assert.Equal(t, "<websources>\nNo web sources available.\n</websources>", WebBlock(nil))
	assert.Equal(t, "<imagesources>\nNo image sources available.\n</imagesources>", ImageBlock(nil))
	assert.Equal(t, "<vectorsources>\nNo vector sources available.\n</vectorsources>", VectorBlock(nil, true))
}

func TestBlocks_SkipPlaceholdersWithoutURL(t *testing.T) {
	web := []WebSource{
		{Index: 1, Title: "NOAA", URL: "https://noaa.gov"},
		{Index: 2, Title: "Untitled Source"},
	}
	assert.Equal(t, "<websources>\n[1] NOAA - https://noaa.gov\n</websources>", WebBlock(web))
	assert.Equal(t, "<websources>\nNo web sources available.\n</websources>", WebBlock(web[1:]))
	assert.Equal(t, "<imagesources>\nNo image sources available.\n</imagesources>",
		ImageBlock([]ImageSource{{Index: 1, Description: "Image related to query"}}))
}

func TestLines(t *testing.T) {
	assert.Equal(t, "[2] Carbon Brief - https://carbonbrief.org/x", WebLine(WebSource{Index: 2, Title: "Carbon Brief", URL: "https://carbonbrief.org/x"}))
	assert.Equal(t, "[I1] Glacier - https://img/g.png", ImageLine(ImageSource{Index: 1, Description: "Glacier", URL: "https://img/g.png"}))
	assert.Equal(t, `[V3] AR6 - Chunk 7 - data\AR6.pdf`, VectorLine(VectorSource{Index: 3, SourceName: "AR6", ChunkIndex: 7, FilePath: `data\AR6.pdf`}))
}

func TestVectorEntry_ExcerptIsBounded(t *testing.T) {
	entry := VectorEntry(VectorSource{Index: 1, SourceName: "AR6", Text: strings.Repeat("a", 400)})
	assert.Contains(t, entry, "Text excerpt: \""+strings.Repeat("a", ExcerptLength)+"...\"")
}
