package main

import (
	"math"
	"testing"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/stretchr/testify/assert"
)

func TestPageOffset(t *testing.T) {
	p := GetResPage(1, 25)
	assert.Equal(t, 1, p.Page, "First Page = 1")
	assert.Equal(t, 0, p.First)
	assert.Equal(t, 25, p.Last)

	p = GetResPage(2, 30)
	assert.Equal(t, 30, p.First)
	assert.Equal(t, 60, p.Last)
	assert.Equal(t, "#2 [30:60]", p.String())
}

func TestPageBounds(t *testing.T) {
	p := GetResPage(0, 0)
	assert.Equal(t, 1, p.Page, "Page clamps to 1")
	assert.Equal(t, PageSize, p.Last)

	p = GetResPage(3, 1000)
	assert.Equal(t, 2*MaxPageSize, p.First)
	assert.Equal(t, 3*MaxPageSize, p.Last)

	p = GetResPage(math.MaxInt, MaxPageSize)
	assert.Equal(t, MaxPage, p.Page, "Page clamps to MaxPage")
	assert.Equal(t, MaxPage*MaxPageSize, p.Last)
	assert.Positive(t, p.First)
}

func TestPageSlice(t *testing.T) {
	list := make([]asset.Asset, 40)
	for i := range list {
		list[i].Id = string(rune('A' + i))
	}
	assert.Len(t, GetResPage(1, 25).Slice(list), 25)
	second := GetResPage(2, 25).Slice(list)
	assert.Len(t, second, 15)
	assert.Equal(t, list[25].Id, second[0].Id)
	assert.Empty(t, GetResPage(3, 25).Slice(list))
}
