// Package reader turns a story's block list into fixed pages for a given
// viewport and font, and restores a saved reading position.
package reader

import (
	"math"

	"english-tales/internal/models"
)

// Viewport is the usable text area in pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// FontSettings drive the line-capacity estimate. AvgCharWidth is the
// average glyph advance for the face at FontSize; LineHeight includes
// leading.
type FontSettings struct {
	FontSize     float64
	AvgCharWidth float64
	LineHeight   float64
}

// Page is one screenful of blocks. Blocks keep their story order.
type Page struct {
	Index  int
	Blocks []models.Block
}

// Paginator computes page layout for one viewport/font combination.
// Recreate it when either changes; pages are only comparable within one
// configuration.
type Paginator struct {
	charsPerLine int
	linesPerPage int
}

const headingLineFactor = 1.75

func NewPaginator(viewport Viewport, font FontSettings) *Paginator {
	charsPerLine := int(viewport.Width / font.AvgCharWidth)
	if charsPerLine < 1 {
		charsPerLine = 1
	}
	linesPerPage := int(viewport.Height / font.LineHeight)
	if linesPerPage < 1 {
		linesPerPage = 1
	}
	return &Paginator{charsPerLine: charsPerLine, linesPerPage: linesPerPage}
}

func (p *Paginator) CharsPerLine() int { return p.charsPerLine }
func (p *Paginator) LinesPerPage() int { return p.linesPerPage }

// EstimateBlockLines returns how many lines a block occupies. Headings
// render larger so each wrapped line costs more. Images and checkpoints
// take a full dedicated page.
func (p *Paginator) EstimateBlockLines(block models.Block) int {
	switch block.Type {
	case models.BlockImage, models.BlockCheckpoint:
		return p.linesPerPage
	case models.BlockHeading:
		wrapped := wrappedLines(block.Text, p.charsPerLine)
		return int(math.Ceil(float64(wrapped) * headingLineFactor))
	default:
		return wrappedLines(block.Text, p.charsPerLine)
	}
}

func wrappedLines(text string, charsPerLine int) int {
	runes := len([]rune(text))
	if runes == 0 {
		return 1
	}
	return int(math.Ceil(float64(runes) / float64(charsPerLine)))
}

// BuildPages lays the blocks out into pages. Every input block appears on
// exactly one page, in order. Image and checkpoint blocks always get a
// page of their own; an oversized text block still gets placed rather
// than dropped.
func (p *Paginator) BuildPages(blocks []models.Block) []Page {
	if len(blocks) == 0 {
		return []Page{{Index: 0}}
	}

	var pages []Page
	var current []models.Block
	used := 0

	flush := func() {
		if len(current) > 0 {
			pages = append(pages, Page{Index: len(pages), Blocks: current})
			current = nil
			used = 0
		}
	}

	for _, block := range blocks {
		if block.Type == models.BlockImage || block.Type == models.BlockCheckpoint {
			flush()
			pages = append(pages, Page{Index: len(pages), Blocks: []models.Block{block}})
			continue
		}

		lines := p.EstimateBlockLines(block)
		if used > 0 && used+lines > p.linesPerPage {
			flush()
		}
		current = append(current, block)
		used += lines
	}
	flush()

	return pages
}
