package driven

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alorle/censo-escolar/internal/locality"
)

const localitySchema = `
CREATE TABLE IF NOT EXISTS ufs (
	uf_id INTEGER PRIMARY KEY,
	uf_sigla TEXT NOT NULL,
	uf_nome TEXT NOT NULL,
	regiao_id INTEGER NOT NULL,
	regiao_sigla TEXT NOT NULL,
	regiao_nome TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mesorregioes (
	mesorregiao_id INTEGER PRIMARY KEY,
	mesorregiao_nome TEXT NOT NULL,
	uf_id INTEGER NOT NULL,
	uf_sigla TEXT NOT NULL,
	uf_nome TEXT NOT NULL,
	regiao_id INTEGER NOT NULL,
	regiao_sigla TEXT NOT NULL,
	regiao_nome TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS microrregioes (
	microrregiao_id INTEGER PRIMARY KEY,
	microrregiao_nome TEXT NOT NULL,
	mesorregiao_id INTEGER NOT NULL,
	mesorregiao_nome TEXT NOT NULL,
	uf_id INTEGER NOT NULL,
	uf_sigla TEXT NOT NULL,
	uf_nome TEXT NOT NULL,
	regiao_id INTEGER NOT NULL,
	regiao_sigla TEXT NOT NULL,
	regiao_nome TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS municipios (
	municipio_id INTEGER PRIMARY KEY,
	municipio_nome TEXT NOT NULL,
	microrregiao_id INTEGER NOT NULL,
	microrregiao_nome TEXT NOT NULL,
	mesorregiao_id INTEGER NOT NULL,
	mesorregiao_nome TEXT NOT NULL,
	uf_id INTEGER NOT NULL,
	uf_sigla TEXT NOT NULL,
	uf_nome TEXT NOT NULL,
	regiao_id INTEGER NOT NULL,
	regiao_sigla TEXT NOT NULL,
	regiao_nome TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_municipios_uf ON municipios(uf_sigla);
`

const (
	ufColumns           = `uf_id, uf_sigla, uf_nome, regiao_id, regiao_sigla, regiao_nome`
	mesoregionColumns   = `mesorregiao_id, mesorregiao_nome, ` + ufColumns
	microregionColumns  = `microrregiao_id, microrregiao_nome, ` + mesoregionColumns
	municipalityColumns = `municipio_id, municipio_nome, ` + microregionColumns
)

// LocalitySQLiteRepository implements the LocalityRepository port on SQLite,
// one flattened table per dataset.
type LocalitySQLiteRepository struct {
	db *sql.DB
}

// NewLocalitySQLiteRepository creates the repository and its tables.
func NewLocalitySQLiteRepository(db *sql.DB) (*LocalitySQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if _, err := db.Exec(localitySchema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &LocalitySQLiteRepository{db: db}, nil
}

func ufArgs(uf locality.UF) []any {
	return []any{uf.ID, uf.Acronym, uf.Name, uf.Region.ID, uf.Region.Acronym, uf.Region.Name}
}

func mesoregionArgs(m locality.Mesoregion) []any {
	return append([]any{m.ID, m.Name}, ufArgs(m.UF)...)
}

func microregionArgs(m locality.Microregion) []any {
	return append([]any{m.ID, m.Name}, mesoregionArgs(m.Mesoregion)...)
}

func municipalityArgs(m locality.Municipality) []any {
	return append([]any{m.ID, m.Name}, microregionArgs(m.Microregion)...)
}

func ufDest(uf *locality.UF) []any {
	return []any{&uf.ID, &uf.Acronym, &uf.Name, &uf.Region.ID, &uf.Region.Acronym, &uf.Region.Name}
}

func mesoregionDest(m *locality.Mesoregion) []any {
	return append([]any{&m.ID, &m.Name}, ufDest(&m.UF)...)
}

func microregionDest(m *locality.Microregion) []any {
	return append([]any{&m.ID, &m.Name}, mesoregionDest(&m.Mesoregion)...)
}

func municipalityDest(m *locality.Municipality) []any {
	return append([]any{&m.ID, &m.Name}, microregionDest(&m.Microregion)...)
}

func placeholders(n int) string {
	s := make([]byte, 0, 3*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			s = append(s, ", "...)
		}
		s = append(s, '?')
	}
	return string(s)
}

// replaceTable empties a table and inserts every item in one transaction.
func replaceTable[T any](ctx context.Context, db *sql.DB, table, columns string, items []T, args func(T) []any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return err
	}
	if len(items) > 0 {
		n := len(args(items[0]))
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (`+columns+`) VALUES (`+placeholders(n)+`)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, item := range items {
			if _, err := stmt.ExecContext(ctx, args(item)...); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", table, err)
			}
		}
	}
	return tx.Commit()
}

// queryTable reads every row of a query into T values.
func queryTable[T any](ctx context.Context, db *sql.DB, query string, dest func(*T) []any, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var item T
		if err := rows.Scan(dest(&item)...); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceUFs stores the state table.
func (r *LocalitySQLiteRepository) ReplaceUFs(ctx context.Context, ufs []locality.UF) error {
	return replaceTable(ctx, r.db, "ufs", ufColumns, ufs, ufArgs)
}

// ReplaceMesoregions stores the mesoregion table.
func (r *LocalitySQLiteRepository) ReplaceMesoregions(ctx context.Context, regions []locality.Mesoregion) error {
	return replaceTable(ctx, r.db, "mesorregioes", mesoregionColumns, regions, mesoregionArgs)
}

// ReplaceMicroregions stores the microregion table.
func (r *LocalitySQLiteRepository) ReplaceMicroregions(ctx context.Context, regions []locality.Microregion) error {
	return replaceTable(ctx, r.db, "microrregioes", microregionColumns, regions, microregionArgs)
}

// ReplaceMunicipalities stores the municipality table.
func (r *LocalitySQLiteRepository) ReplaceMunicipalities(ctx context.Context, municipalities []locality.Municipality) error {
	return replaceTable(ctx, r.db, "municipios", municipalityColumns, municipalities, municipalityArgs)
}

// FindUFs returns the stored states ordered by name.
func (r *LocalitySQLiteRepository) FindUFs(ctx context.Context) ([]locality.UF, error) {
	ufs, err := queryTable(ctx, r.db, `SELECT `+ufColumns+` FROM ufs`, ufDest)
	if err != nil {
		return nil, err
	}
	locality.SortUFsByName(ufs)
	return ufs, nil
}

// FindMunicipalitiesByUF returns the municipalities of a state ordered by name.
func (r *LocalitySQLiteRepository) FindMunicipalitiesByUF(ctx context.Context, acronym string) ([]locality.Municipality, error) {
	out, err := queryTable(ctx, r.db,
		`SELECT `+municipalityColumns+` FROM municipios WHERE uf_sigla = ?`, municipalityDest,
		locality.NormalizeAcronym(acronym))
	if err != nil {
		return nil, err
	}
	locality.SortByName(out, func(m locality.Municipality) string { return m.Name })
	return out, nil
}

// FindMesoregions returns mesoregions, optionally of one state, ordered by name.
func (r *LocalitySQLiteRepository) FindMesoregions(ctx context.Context, acronym string) ([]locality.Mesoregion, error) {
	acronym = locality.NormalizeAcronym(acronym)
	out, err := queryTable(ctx, r.db,
		`SELECT `+mesoregionColumns+` FROM mesorregioes WHERE ? = '' OR uf_sigla = ?`, mesoregionDest,
		acronym, acronym)
	if err != nil {
		return nil, err
	}
	locality.SortByName(out, func(m locality.Mesoregion) string { return m.Name })
	return out, nil
}

// FindMicroregions returns microregions, optionally of one state, ordered by name.
func (r *LocalitySQLiteRepository) FindMicroregions(ctx context.Context, acronym string) ([]locality.Microregion, error) {
	acronym = locality.NormalizeAcronym(acronym)
	out, err := queryTable(ctx, r.db,
		`SELECT `+microregionColumns+` FROM microrregioes WHERE ? = '' OR uf_sigla = ?`, microregionDest,
		acronym, acronym)
	if err != nil {
		return nil, err
	}
	locality.SortByName(out, func(m locality.Microregion) string { return m.Name })
	return out, nil
}

// Ping checks that the database answers.
func (r *LocalitySQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
