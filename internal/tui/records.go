package tui

import (
	"strings"

	"github.com/alorle/censo-escolar/client"
)

// YearFilters are the year choices offered by the list. Zero means every year.
var YearFilters = []int{0, 2023, 2024}

// yearLabel renders a year filter choice.
func yearLabel(year int) string {
	if year == 0 {
		return "Todos"
	}
	return itoa(year)
}

// Records holds the loaded records of the selected state. Writes update it
// in place so the list does not have to be fetched again.
type Records struct {
	items []client.Institution
}

// Set replaces every record.
func (r *Records) Set(items []client.Institution) {
	r.items = append([]client.Institution(nil), items...)
}

// Len returns the number of loaded records.
func (r *Records) Len() int {
	return len(r.items)
}

// Add appends a created record.
func (r *Records) Add(inst client.Institution) {
	r.items = append(r.items, inst)
}

// Replace swaps the record with the given key for inst.
func (r *Records) Replace(id int64, year int, inst client.Institution) {
	for i, cur := range r.items {
		if cur.ID == id && cur.Year == year {
			r.items[i] = inst
		}
	}
}

// Remove drops the record with the given key.
func (r *Records) Remove(id int64, year int) {
	kept := r.items[:0]
	for _, cur := range r.items {
		if cur.ID == id && cur.Year == year {
			continue
		}
		kept = append(kept, cur)
	}
	r.items = kept
}

// Filter returns the records of the given year (zero for all) whose name or
// municipality contains search, ignoring case.
func (r *Records) Filter(year int, search string) []client.Institution {
	term := strings.ToLower(strings.TrimSpace(search))

	var out []client.Institution
	for _, inst := range r.items {
		if year != 0 && inst.Year != year {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(inst.Name), term) &&
			!strings.Contains(strings.ToLower(inst.Municipality), term) {
			continue
		}
		out = append(out, inst)
	}
	return out
}
