package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alorle/censo-escolar/client"
)

func sampleRecords() []client.Institution {
	return []client.Institution{
		{ID: 1, Year: 2023, Name: "EE Campos Salles", Municipality: "Campinas"},
		{ID: 1, Year: 2024, Name: "EE Campos Salles", Municipality: "Campinas"},
		{ID: 2, Year: 2023, Name: "EMEF Jardim", Municipality: "São Paulo"},
		{ID: 3, Year: 2024, Name: "Creche Aurora", Municipality: "Santos"},
	}
}

func ids(items []client.Institution) [][2]int64 {
	out := make([][2]int64, len(items))
	for i, inst := range items {
		out[i] = [2]int64{inst.ID, int64(inst.Year)}
	}
	return out
}

func TestRecordsFilter(t *testing.T) {
	var r Records
	r.Set(sampleRecords())

	tests := []struct {
		name   string
		year   int
		search string
		want   [][2]int64
	}{
		{"all", 0, "", [][2]int64{{1, 2023}, {1, 2024}, {2, 2023}, {3, 2024}}},
		{"year", 2023, "", [][2]int64{{1, 2023}, {2, 2023}}},
		{"name ignores case", 0, "campos", [][2]int64{{1, 2023}, {1, 2024}}},
		{"municipality", 0, "SANTOS", [][2]int64{{3, 2024}}},
		{"year and search", 2024, "c", [][2]int64{{1, 2024}, {3, 2024}}},
		{"blank search", 0, "   ", [][2]int64{{1, 2023}, {1, 2024}, {2, 2023}, {3, 2024}}},
		{"no match", 2023, "aurora", [][2]int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(r.Filter(tt.year, tt.search)))
		})
	}
}

func TestRecordsUpdates(t *testing.T) {
	var r Records
	r.Set(sampleRecords())

	r.Add(client.Institution{ID: 4, Year: 2023, Name: "Nova"})
	assert.Equal(t, 5, r.Len())

	r.Replace(1, 2024, client.Institution{ID: 1, Year: 2024, Name: "Renomeada"})
	got := r.Filter(2024, "renomeada")
	assert.Equal(t, [][2]int64{{1, 2024}}, ids(got))
	assert.Len(t, r.Filter(0, "campos"), 1)

	r.Remove(1, 2023)
	assert.Equal(t, 4, r.Len())
	assert.Empty(t, r.Filter(2023, "campos"))

	r.Remove(99, 2023)
	assert.Equal(t, 4, r.Len())
}

func TestRecordsSetCopies(t *testing.T) {
	items := sampleRecords()
	var r Records
	r.Set(items)

	r.Remove(1, 2023)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, 2023, items[0].Year)
}

func TestYearLabel(t *testing.T) {
	assert.Equal(t, "Todos", yearLabel(0))
	assert.Equal(t, "2024", yearLabel(2024))
}
