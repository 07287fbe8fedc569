package views

import (
	"strconv"
	"strings"
)

// Page describes a window (limit, offset) over a list whose size is
// reported by the server as total.
type Page struct {
	Limit  int
	Offset int
	Total  int
}

func NewPage(limit, offset, total int) Page {
	if limit <= 0 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}
	if total < 0 {
		total = 0
	}
	return Page{Limit: limit, Offset: offset, Total: total}
}

func (p Page) HasPrevious() bool {
	return p.Offset > 0
}

// HasNext is false whenever offset+limit reaches the total, including
// offsets already past the end.
func (p Page) HasNext() bool {
	return p.Offset+p.Limit < p.Total
}

func (p Page) CurrentPage() int {
	return p.Offset/p.Limit + 1
}

// PageCount is never less than one
func (p Page) PageCount() int {
	n := (p.Total + p.Limit - 1) / p.Limit
	if n < 1 {
		return 1
	}
	return n
}

func (p Page) PreviousOffset() int {
	if p.Offset-p.Limit < 0 {
		return 0
	}
	return p.Offset - p.Limit
}

func (p Page) NextOffset() int {
	return p.Offset + p.Limit
}

// Clamp moves an offset at or beyond the total onto the last page
func (p Page) Clamp() Page {
	switch {
	case p.Total == 0:
		p.Offset = 0
	case p.Offset >= p.Total:
		p.Offset = ((p.Total - 1) / p.Limit) * p.Limit
	}
	return p
}

// ParseOffset reads a non-negative offset, treating anything else as 0
func ParseOffset(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
