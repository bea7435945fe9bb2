package reader

import "math"

// FindPageByBlockKey locates the page holding the block the reader last
// saw. If the key is gone (content edited, layout changed) it falls back
// to the saved percentage, clamped to the page range. Returns 0 for an
// empty layout or a position that was never saved.
func FindPageByBlockKey(pages []Page, blockKey string, percentage float64) int {
	if len(pages) == 0 {
		return 0
	}

	if blockKey != "" {
		for _, page := range pages {
			for _, block := range page.Blocks {
				if block.Key == blockKey {
					return page.Index
				}
			}
		}
	}

	return pageFromPercentage(len(pages), percentage)
}

func pageFromPercentage(pageCount int, percentage float64) int {
	if percentage <= 0 {
		return 0
	}
	if percentage >= 100 {
		return pageCount - 1
	}
	index := int(math.Floor(percentage / 100 * float64(pageCount)))
	if index >= pageCount {
		index = pageCount - 1
	}
	return index
}

// Percentage reports how far through the layout a page index is, for
// progress saves. The last page counts as 100.
func Percentage(pages []Page, pageIndex int) float64 {
	if len(pages) <= 1 {
		return 100
	}
	if pageIndex <= 0 {
		return 0
	}
	if pageIndex >= len(pages)-1 {
		return 100
	}
	return float64(pageIndex) / float64(len(pages)-1) * 100
}

// AnchorKey returns the block key to persist for a page, the first
// block's key, or empty for a blank page.
func AnchorKey(pages []Page, pageIndex int) string {
	if pageIndex < 0 || pageIndex >= len(pages) {
		return ""
	}
	blocks := pages[pageIndex].Blocks
	if len(blocks) == 0 {
		return ""
	}
	return blocks[0].Key
}
