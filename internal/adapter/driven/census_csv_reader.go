package driven

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/alorle/censo-escolar/internal/institution"
)

// censusColumns are the microdata columns kept from each census file.
var censusColumns = []string{
	"NO_REGIAO", "CO_REGIAO", "NO_UF", "SG_UF", "CO_UF", "NO_MUNICIPIO",
	"CO_MUNICIPIO", "NO_MESORREGIAO", "NO_MICRORREGIAO", "NO_ENTIDADE",
	"CO_ENTIDADE", "QT_MAT_BAS", "QT_MAT_INF", "QT_MAT_FUND", "QT_MAT_MED",
	"QT_MAT_EJA", "QT_MAT_EJA_FUND", "QT_MAT_ESP", "QT_MAT_BAS_EAD",
	"QT_MAT_FUND_INT", "QT_MAT_MED_INT",
}

// CensusCSVReader reads INEP "microdados_ed_basica" files: semicolon
// separated, ISO-8859-1 encoded, one school per row.
// It implements the driven.CensusReader port.
type CensusCSVReader struct{}

// NewCensusCSVReader creates a census microdata reader.
func NewCensusCSVReader() *CensusCSVReader {
	return &CensusCSVReader{}
}

// Read opens the file and streams its records in batches.
func (r *CensusCSVReader) Read(ctx context.Context, path string, year int, batchSize int, fn func([]institution.Institution) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return r.ReadFrom(ctx, f, year, batchSize, fn)
}

// ReadFrom streams records from an already opened latin1 stream.
func (r *CensusCSVReader) ReadFrom(ctx context.Context, src io.Reader, year int, batchSize int, fn func([]institution.Institution) error) (int, error) {
	if batchSize <= 0 {
		batchSize = 10000
	}

	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(src))
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return 0, err
	}

	batch := make([]institution.Institution, 0, batchSize)
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("reading row: %w", err)
		}

		line, _ := cr.FieldPos(0)
		inst, err := cols.parse(record, year)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}

		batch = append(batch, inst)
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = make([]institution.Institution, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

type censusColumnIndex map[string]int

func columnIndex(header []string) (censusColumnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	idx := make(censusColumnIndex, len(censusColumns))
	var missing []string
	for _, name := range censusColumns {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func (c censusColumnIndex) text(record []string, name string) string {
	i := c[name]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// count parses an enrollment cell; an empty cell is a null count.
func (c censusColumnIndex) count(record []string, name string) (*int, error) {
	s := c.text(record, name)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &n, nil
}

func (c censusColumnIndex) code(record []string, name string) (int64, error) {
	s := c.text(record, name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func (c censusColumnIndex) parse(record []string, year int) (institution.Institution, error) {
	inst := institution.Institution{
		Year:             year,
		Name:             c.text(record, "NO_ENTIDADE"),
		RegionName:       c.text(record, "NO_REGIAO"),
		UFName:           c.text(record, "NO_UF"),
		UFAcronym:        strings.ToUpper(c.text(record, "SG_UF")),
		MunicipalityName: c.text(record, "NO_MUNICIPIO"),
		MesoregionName:   c.text(record, "NO_MESORREGIAO"),
		MicroregionName:  c.text(record, "NO_MICRORREGIAO"),
	}

	var err error
	if inst.ID, err = c.code(record, "CO_ENTIDADE"); err != nil {
		return inst, err
	}
	if inst.ID == 0 {
		return inst, errors.New("CO_ENTIDADE is empty")
	}
	// Listings are keyed by state, so a row without one could never be read back.
	if inst.UFAcronym == "" {
		return inst, errors.New("SG_UF is empty")
	}
	if inst.MunicipalityCode, err = c.code(record, "CO_MUNICIPIO"); err != nil {
		return inst, err
	}
	region, err := c.code(record, "CO_REGIAO")
	if err != nil {
		return inst, err
	}
	inst.RegionCode = int(region)
	uf, err := c.code(record, "CO_UF")
	if err != nil {
		return inst, err
	}
	inst.UFCode = int(uf)

	counts := []struct {
		name string
		dst  **int
	}{
		{"QT_MAT_BAS", &inst.Enrollment.Basic},
		{"QT_MAT_INF", &inst.Enrollment.Infant},
		{"QT_MAT_FUND", &inst.Enrollment.Elementary},
		{"QT_MAT_MED", &inst.Enrollment.HighSchool},
		{"QT_MAT_EJA", &inst.Enrollment.EJA},
		{"QT_MAT_EJA_FUND", &inst.Enrollment.EJAElementary},
		{"QT_MAT_ESP", &inst.Enrollment.Special},
		{"QT_MAT_BAS_EAD", &inst.Enrollment.BasicDistance},
		{"QT_MAT_FUND_INT", &inst.Enrollment.ElementaryFullTime},
		{"QT_MAT_MED_INT", &inst.Enrollment.HighSchoolFullTime},
	}
	for _, ct := range counts {
		if *ct.dst, err = c.count(record, ct.name); err != nil {
			return inst, err
		}
	}
	return inst, nil
}
