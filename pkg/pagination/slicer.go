package pagination

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
)

// Page size bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 1
	MaxPageSize     = 100
)

// PageResult is one output page of the accumulated records.
type PageResult struct {
	PageNumber   int
	PageSize     int
	Records      []swapi.Record
	TotalPages   int
	TotalRecords int
}

// ParsePage parses the requested page number. Unparseable values and values
// below 1 fall back to DefaultPage.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return DefaultPage
	}
	return page
}

// ParsePageSize parses the requested page size. Unparseable values fall back
// to DefaultPageSize, numbers are clamped to [MinPageSize, MaxPageSize].
func ParsePageSize(raw string) int {
	size, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultPageSize
	}
	return clampPageSize(size)
}

func clampPageSize(size int) int {
	if size < MinPageSize {
		return MinPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Paginate returns the half-open slice [(page-1)*size, page*size) of records.
// It never fails: a page past the end yields no records.
func Paginate(records []swapi.Record, page, size int) PageResult {
	if page < 1 {
		page = DefaultPage
	}
	size = clampPageSize(size)

	total := len(records)
	result := PageResult{
		PageNumber:   page,
		PageSize:     size,
		Records:      []swapi.Record{},
		TotalPages:   (total + size - 1) / size,
		TotalRecords: total,
	}

	// Past the last page. Checked before multiplying so (page-1)*size cannot overflow
	if page-1 >= result.TotalPages {
		return result
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	result.Records = records[start:end]
	return result
}
