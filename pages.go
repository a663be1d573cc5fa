package main

import (
	"fmt"

	"github.com/Tkdue/magicsearch/internal/asset"
)

const PageSize int = 25
const MaxPageSize int = 100

// MaxPage bounds how deep a caller can page; Last never exceeds
// MaxPage*MaxPageSize.
const MaxPage int = 40

// PageSrc is one output page over the ranked result list: the search must
// produce at least Last results and the page is [First:Last].
type PageSrc struct {
	Page  int
	First int
	Last  int
}

func GetResPage(page int, pageSize int) PageSrc {
	if pageSize < 1 {
		pageSize = PageSize
	}
	pageSize = min(pageSize, MaxPageSize)
	page = min(max(page, 1), MaxPage)
	return PageSrc{
		Page:  page,
		First: (page - 1) * pageSize,
		Last:  page * pageSize,
	}
}

// Slice cuts the page out of a ranked list, which may be shorter than Last.
func (p PageSrc) Slice(assets []asset.Asset) []asset.Asset {
	first := min(len(assets), p.First)
	last := min(len(assets), p.Last)
	return assets[first:last]
}

func (p *PageSrc) String() string {
	return fmt.Sprintf("#%d [%d:%d]", p.Page, p.First, p.Last)
}
