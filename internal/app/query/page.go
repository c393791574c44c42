package query

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps Offset within int32 for every page size.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
	Sort   []SortField
}

// DefaultPage is the first page with the default size.
func DefaultPage() Page {
	return Page{Number: 1, Size: DefaultPageSize}
}

// Offset is the number of rows skipped before the page.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// ParsePage reads page, size and sort (repeatable, "field,asc|desc") from q.
func ParsePage(q url.Values) (Page, error) {
	p := DefaultPage()
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalid)
		}
		if n > MaxPageNumber {
			return Page{}, fmt.Errorf("%w: page must not exceed %d", ErrInvalid, MaxPageNumber)
		}
		p.Number = n
	}
	if raw := strings.TrimSpace(q.Get("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, fmt.Errorf("%w: size must be a positive integer", ErrInvalid)
		}
		if n > MaxPageSize {
			n = MaxPageSize
		}
		p.Size = n
	}
	for _, raw := range q["sort"] {
		parts := strings.Split(raw, ",")
		field := strings.TrimSpace(parts[0])
		if field == "" {
			continue
		}
		sf := SortField{Field: field}
		if len(parts) > 1 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "desc":
				sf.Desc = true
			case "asc", "":
			default:
				return Page{}, fmt.Errorf("%w: sort direction must be asc or desc", ErrInvalid)
			}
		}
		p.Sort = append(p.Sort, sf)
	}
	return p, nil
}

// OrderSQL compiles the sort fields to an ORDER BY list using the same
// column map as Filter.SQL. Without sort fields it returns fallback.
func (p Page) OrderSQL(columns map[string]string, fallback string) (string, error) {
	if len(p.Sort) == 0 {
		return fallback, nil
	}
	parts := make([]string, 0, len(p.Sort))
	for _, sf := range p.Sort {
		col, ok := columns[strings.ToLower(sf.Field)]
		if !ok {
			return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalid, sf.Field)
		}
		dir := "ASC"
		if sf.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// Meta describes the page returned to clients.
type Meta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Pages    int   `json:"pages"`
	Total    int64 `json:"total"`
}

// Result is a page of items plus its metadata.
type Result[T any] struct {
	Meta   Meta `json:"meta"`
	Result []T  `json:"result"`
}

// NewResult builds a Result for items taken from a collection of total rows.
func NewResult[T any](p Page, total int64, items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Size)))
	}
	return Result[T]{
		Meta:   Meta{Page: p.Number, PageSize: p.Size, Pages: pages, Total: total},
		Result: items,
	}
}

// Map converts the items of r while keeping its metadata.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	out := make([]U, 0, len(r.Result))
	for _, item := range r.Result {
		out = append(out, fn(item))
	}
	return Result[U]{Meta: r.Meta, Result: out}
}

// Apply filters, sorts and slices items in memory. get resolves filter and
// sort fields on one item.
func Apply[T any](items []T, f *Filter, p Page, get func(T) Getter) (Result[T], error) {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := f.Match(get(item))
		if err != nil {
			return Result[T]{}, err
		}
		if ok {
			matched = append(matched, item)
		}
	}

	var zero T
	for _, sf := range p.Sort {
		if _, ok := get(zero)(strings.ToLower(sf.Field)); !ok {
			return Result[T]{}, fmt.Errorf("%w: unknown sort field %q", ErrInvalid, sf.Field)
		}
	}
	if len(p.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			gi, gj := get(matched[i]), get(matched[j])
			for _, sf := range p.Sort {
				field := strings.ToLower(sf.Field)
				a, _ := gi(field)
				b, _ := gj(field)
				c := compareValues(normalize(a), normalize(b))
				if c == 0 {
					continue
				}
				if sf.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	total := int64(len(matched))
	start := p.Offset()
	if start < 0 || start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if p.Size > 0 && p.Size < end-start {
		end = start + p.Size
	}
	return NewResult(p, total, matched[start:end]), nil
}

// compareValues orders two normalised record values; nil sorts first.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c, ok := compare(a, b)
	if !ok {
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	return c
}
