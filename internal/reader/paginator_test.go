package reader

import (
	"fmt"
	"strings"
	"testing"

	"english-tales/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPaginator fits 40 chars per line, 10 lines per page.
func testPaginator() *Paginator {
	return NewPaginator(
		Viewport{Width: 320, Height: 240},
		FontSettings{FontSize: 16, AvgCharWidth: 8, LineHeight: 24},
	)
}

func textBlock(key string, chars int) models.Block {
	return models.Block{
		Key:  key,
		Type: models.BlockText,
		Text: strings.Repeat("a", chars),
	}
}

func TestPaginatorCapacity(t *testing.T) {
	p := testPaginator()
	assert.Equal(t, 40, p.CharsPerLine())
	assert.Equal(t, 10, p.LinesPerPage())

	// Degenerate viewports still give a usable paginator.
	tiny := NewPaginator(Viewport{Width: 2, Height: 3}, FontSettings{AvgCharWidth: 8, LineHeight: 24})
	assert.Equal(t, 1, tiny.CharsPerLine())
	assert.Equal(t, 1, tiny.LinesPerPage())
}

func TestEstimateBlockLines(t *testing.T) {
	p := testPaginator()

	assert.Equal(t, 1, p.EstimateBlockLines(textBlock("b1", 40)), "exactly one line")
	assert.Equal(t, 2, p.EstimateBlockLines(textBlock("b2", 41)), "one char over wraps")
	assert.Equal(t, 1, p.EstimateBlockLines(models.Block{Type: models.BlockText}), "empty text is a blank line")

	heading := models.Block{Type: models.BlockHeading, Text: strings.Repeat("h", 40)}
	assert.Equal(t, 2, p.EstimateBlockLines(heading), "headings cost more per line")

	image := models.Block{Type: models.BlockImage, ImageURL: "https://cdn/img.png"}
	assert.Equal(t, p.LinesPerPage(), p.EstimateBlockLines(image))
}

func TestBuildPagesConservesAllBlocks(t *testing.T) {
	p := testPaginator()

	var blocks []models.Block
	for i := 0; i < 57; i++ {
		blocks = append(blocks, textBlock(fmt.Sprintf("block-%d", i), 30+i%200))
	}
	blocks[10].Type = models.BlockImage
	blocks[30].Type = models.BlockCheckpoint

	pages := p.BuildPages(blocks)

	var got []string
	for i, page := range pages {
		assert.Equal(t, i, page.Index, "page indices are contiguous")
		for _, block := range page.Blocks {
			got = append(got, block.Key)
		}
	}

	require.Len(t, got, len(blocks), "every block lands on exactly one page")
	for i, block := range blocks {
		assert.Equal(t, block.Key, got[i], "blocks keep story order")
	}
}

func TestImageAndCheckpointGetDedicatedPages(t *testing.T) {
	p := testPaginator()

	blocks := []models.Block{
		textBlock("t1", 20),
		{Key: "img", Type: models.BlockImage, ImageURL: "https://cdn/img.png"},
		textBlock("t2", 20),
		{Key: "cp", Type: models.BlockCheckpoint},
		textBlock("t3", 20),
	}

	pages := p.BuildPages(blocks)
	require.Len(t, pages, 5)

	for _, page := range pages {
		for _, block := range page.Blocks {
			if block.Type == models.BlockImage || block.Type == models.BlockCheckpoint {
				assert.Len(t, page.Blocks, 1, "%s shares its page", block.Key)
			}
		}
	}
}

func TestOversizedTextBlockStillPlaced(t *testing.T) {
	p := testPaginator()

	// 1000 chars is 25 lines against a 10-line page.
	pages := p.BuildPages([]models.Block{
		textBlock("small", 20),
		textBlock("huge", 1000),
		textBlock("after", 20),
	})

	var keys []string
	for _, page := range pages {
		for _, block := range page.Blocks {
			keys = append(keys, block.Key)
		}
	}
	assert.Equal(t, []string{"small", "huge", "after"}, keys)
}

func TestBuildPagesEmptyInput(t *testing.T) {
	p := testPaginator()
	pages := p.BuildPages(nil)
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Blocks)
}
