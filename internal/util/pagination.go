package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Calculate converts a 1-based page and a size into offset and limit.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

type Meta struct {
	Page       int
	Size       int
	Total      int64
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// ParsePage reads the page and size query values. When both are absent the
// caller gets ok=false and should list every row.
func ParsePage(pageParam, sizeParam string) (page, size int, ok bool) {
	if pageParam == "" && sizeParam == "" {
		return 0, 0, false
	}
	page, _ = strconv.Atoi(pageParam)
	size, _ = strconv.Atoi(sizeParam)
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size, true
}

func NewMeta(page, size int, total int64) Meta {
	if size <= 0 {
		return Meta{Page: 1, Total: total, TotalPages: 1}
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages == 0 {
		pages = 1
	}
	return Meta{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    int64(page*size) < total,
	}
}
