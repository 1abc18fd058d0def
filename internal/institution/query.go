package institution

import (
	"errors"
	"strings"
)

// Pagination defaults and limits for listings.
const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 500
)

// Query errors
var (
	ErrUFRequired      = errors.New("uf is required")
	ErrInvalidPaging   = errors.New("page and per_page must be positive integers")
	ErrPerPageTooLarge = errors.New("per_page exceeds maximum")
)

// ListQuery selects one page of a state's records.
// Year zero means every year; Search filters by name or municipality.
type ListQuery struct {
	UF      string
	Year    int
	Search  string
	Page    int
	PerPage int
}

// Normalize upper-cases the UF, trims the search term and fills paging defaults.
func (q ListQuery) Normalize() ListQuery {
	q.UF = strings.ToUpper(strings.TrimSpace(q.UF))
	q.Search = strings.TrimSpace(q.Search)
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.PerPage == 0 {
		q.PerPage = DefaultPerPage
	}
	return q
}

// Validate checks a normalized query.
func (q ListQuery) Validate() error {
	if q.UF == "" {
		return ErrUFRequired
	}
	if q.Page < 1 || q.PerPage < 1 {
		return ErrInvalidPaging
	}
	if q.PerPage > MaxPerPage {
		return ErrPerPageTooLarge
	}
	return nil
}

// Matches reports whether a record of the query's UF passes the year and
// search filters.
func (q ListQuery) Matches(i Institution) bool {
	if q.Year != 0 && i.Year != q.Year {
		return false
	}
	return i.MatchesSearch(q.Search)
}

// Offset is the index of the first record on the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Page is one slice of a listing plus its pagination metadata.
type Page struct {
	Items      []Institution
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
}

// NewPage builds the page metadata for the given window of items.
func NewPage(q ListQuery, items []Institution, total int) Page {
	if items == nil {
		items = []Institution{}
	}
	return Page{
		Items:      items,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalItems: total,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
	}
}

// Paginate applies the query's filters and window to records already ordered
// by key. It is used by stores that cannot filter natively.
func Paginate(q ListQuery, ordered []Institution) Page {
	start := q.Offset()
	end := start + q.PerPage

	var window []Institution
	total := 0
	for _, inst := range ordered {
		if !q.Matches(inst) {
			continue
		}
		if total >= start && total < end {
			window = append(window, inst)
		}
		total++
	}
	return NewPage(q, window, total)
}

// UFStats aggregates the records of one state.
type UFStats struct {
	UF                   string
	Institutions         int
	BasicEnrollment      int64
	InfantEnrollment     int64
	ElementaryEnrollment int64
}

// Accumulate adds one record to the aggregate.
func (s *UFStats) Accumulate(i Institution) {
	s.Institutions++
	s.BasicEnrollment += int64(valueOrZero(i.Enrollment.Basic))
	s.InfantEnrollment += int64(valueOrZero(i.Enrollment.Infant))
	s.ElementaryEnrollment += int64(valueOrZero(i.Enrollment.Elementary))
}
