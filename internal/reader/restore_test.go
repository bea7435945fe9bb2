package reader

import (
	"fmt"
	"testing"

	"english-tales/internal/models"

	"github.com/stretchr/testify/assert"
)

func fixedPages(count int) []Page {
	pages := make([]Page, count)
	for i := range pages {
		pages[i] = Page{
			Index: i,
			Blocks: []models.Block{
				{Key: fmt.Sprintf("page-%d-first", i), Type: models.BlockText},
				{Key: fmt.Sprintf("page-%d-second", i), Type: models.BlockText},
			},
		}
	}
	return pages
}

func TestFindPageByBlockKeyExactMatch(t *testing.T) {
	pages := fixedPages(10)

	// The saved percentage disagrees with the block key; the key wins.
	assert.Equal(t, 7, FindPageByBlockKey(pages, "page-7-second", 10))
	assert.Equal(t, 0, FindPageByBlockKey(pages, "page-0-first", 90))
}

func TestFindPageByBlockKeyPercentageFallback(t *testing.T) {
	pages := fixedPages(10)

	// Key gone after a content edit: fall back to percentage.
	assert.Equal(t, 5, FindPageByBlockKey(pages, "deleted-block", 50))
	assert.Equal(t, 0, FindPageByBlockKey(pages, "deleted-block", 0))
	assert.Equal(t, 9, FindPageByBlockKey(pages, "deleted-block", 100))

	// No key saved at all.
	assert.Equal(t, 2, FindPageByBlockKey(pages, "", 25))
}

func TestFindPageByBlockKeyClamping(t *testing.T) {
	pages := fixedPages(4)

	assert.Equal(t, 0, FindPageByBlockKey(pages, "", -10))
	assert.Equal(t, 3, FindPageByBlockKey(pages, "", 150))
	assert.Equal(t, 0, FindPageByBlockKey(nil, "page-1-first", 50))
}

func TestPercentageRoundTrip(t *testing.T) {
	pages := fixedPages(5)

	assert.Equal(t, float64(0), Percentage(pages, 0))
	assert.Equal(t, float64(100), Percentage(pages, 4))
	assert.Equal(t, float64(50), Percentage(pages, 2))
	assert.Equal(t, float64(100), Percentage(fixedPages(1), 0), "a single page is always fully read")

	// A saved percentage restores to the page it came from.
	for i := range pages {
		pct := Percentage(pages, i)
		restored := FindPageByBlockKey(pages, "", pct)
		if pct == 100 {
			assert.Equal(t, len(pages)-1, restored)
		} else {
			assert.LessOrEqual(t, restored, i)
		}
	}
}

func TestAnchorKey(t *testing.T) {
	pages := fixedPages(3)

	assert.Equal(t, "page-1-first", AnchorKey(pages, 1))
	assert.Equal(t, "", AnchorKey(pages, -1))
	assert.Equal(t, "", AnchorKey(pages, 3))
	assert.Equal(t, "", AnchorKey([]Page{{Index: 0}}, 0))
}
