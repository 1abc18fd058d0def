package driven

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alorle/censo-escolar/internal/institution"
)

const institutionSchema = `
CREATE TABLE IF NOT EXISTS instituicoes (
	CO_ENTIDADE INTEGER NOT NULL,
	ano INTEGER NOT NULL,
	NO_ENTIDADE TEXT NOT NULL,
	NO_REGIAO TEXT NOT NULL DEFAULT '',
	CO_REGIAO INTEGER NOT NULL DEFAULT 0,
	NO_UF TEXT NOT NULL,
	SG_UF TEXT NOT NULL,
	CO_UF INTEGER NOT NULL,
	NO_MUNICIPIO TEXT NOT NULL,
	CO_MUNICIPIO INTEGER NOT NULL DEFAULT 0,
	NO_MESORREGIAO TEXT NOT NULL DEFAULT '',
	NO_MICRORREGIAO TEXT NOT NULL DEFAULT '',
	QT_MAT_BAS INTEGER,
	QT_MAT_INF INTEGER,
	QT_MAT_FUND INTEGER,
	QT_MAT_MED INTEGER,
	QT_MAT_EJA INTEGER,
	QT_MAT_EJA_FUND INTEGER,
	QT_MAT_ESP INTEGER,
	QT_MAT_BAS_EAD INTEGER,
	QT_MAT_FUND_INT INTEGER,
	QT_MAT_MED_INT INTEGER,
	nome_busca TEXT NOT NULL,
	municipio_busca TEXT NOT NULL,
	PRIMARY KEY (CO_ENTIDADE, ano)
);
CREATE INDEX IF NOT EXISTS idx_instituicoes_uf ON instituicoes(SG_UF, ano, CO_ENTIDADE);
`

const institutionColumns = `CO_ENTIDADE, ano, NO_ENTIDADE, NO_REGIAO, CO_REGIAO, NO_UF, SG_UF, CO_UF,
	NO_MUNICIPIO, CO_MUNICIPIO, NO_MESORREGIAO, NO_MICRORREGIAO,
	QT_MAT_BAS, QT_MAT_INF, QT_MAT_FUND, QT_MAT_MED, QT_MAT_EJA, QT_MAT_EJA_FUND,
	QT_MAT_ESP, QT_MAT_BAS_EAD, QT_MAT_FUND_INT, QT_MAT_MED_INT`

const institutionWriteColumns = institutionColumns + `, nome_busca, municipio_busca`

var institutionPlaceholders = strings.TrimSuffix(strings.Repeat("?, ", 24), ", ")

// InstitutionSQLiteRepository implements the InstitutionRepository port on SQLite.
// Search terms are matched against lower-cased copies of the name and
// municipality, since SQLite's lower() only folds ASCII.
type InstitutionSQLiteRepository struct {
	db *sql.DB
}

// NewInstitutionSQLiteRepository creates the repository and its table.
func NewInstitutionSQLiteRepository(db *sql.DB) (*InstitutionSQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if _, err := db.Exec(institutionSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &InstitutionSQLiteRepository{db: db}, nil
}

func institutionArgs(i institution.Institution) []any {
	e := i.Enrollment
	return []any{
		i.ID, i.Year, i.Name, i.RegionName, i.RegionCode, i.UFName, i.UFAcronym, i.UFCode,
		i.MunicipalityName, i.MunicipalityCode, i.MesoregionName, i.MicroregionName,
		nullableInt(e.Basic), nullableInt(e.Infant), nullableInt(e.Elementary), nullableInt(e.HighSchool),
		nullableInt(e.EJA), nullableInt(e.EJAElementary), nullableInt(e.Special), nullableInt(e.BasicDistance),
		nullableInt(e.ElementaryFullTime), nullableInt(e.HighSchoolFullTime),
		strings.ToLower(i.Name), strings.ToLower(i.MunicipalityName),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row rowScanner) (institution.Institution, error) {
	var (
		i      institution.Institution
		counts [10]sql.NullInt64
	)
	err := row.Scan(
		&i.ID, &i.Year, &i.Name, &i.RegionName, &i.RegionCode, &i.UFName, &i.UFAcronym, &i.UFCode,
		&i.MunicipalityName, &i.MunicipalityCode, &i.MesoregionName, &i.MicroregionName,
		&counts[0], &counts[1], &counts[2], &counts[3], &counts[4],
		&counts[5], &counts[6], &counts[7], &counts[8], &counts[9],
	)
	if err != nil {
		return institution.Institution{}, err
	}
	i.Enrollment = institution.Enrollment{
		Basic:              intPtr(counts[0]),
		Infant:             intPtr(counts[1]),
		Elementary:         intPtr(counts[2]),
		HighSchool:         intPtr(counts[3]),
		EJA:                intPtr(counts[4]),
		EJAElementary:      intPtr(counts[5]),
		Special:            intPtr(counts[6]),
		BasicDistance:      intPtr(counts[7]),
		ElementaryFullTime: intPtr(counts[8]),
		HighSchoolFullTime: intPtr(counts[9]),
	}
	return i, nil
}

func (r *InstitutionSQLiteRepository) exists(ctx context.Context, tx *sql.Tx, key institution.Key) (bool, error) {
	var found int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM instituicoes WHERE CO_ENTIDADE = ? AND ano = ?`, key.ID, key.Year,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// write runs a single-record statement after checking the key's existence.
func (r *InstitutionSQLiteRepository) write(ctx context.Context, key institution.Key, wantExists bool, stmt string, args ...any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := r.exists(ctx, tx, key)
	if err != nil {
		return err
	}
	switch {
	case exists && !wantExists:
		return institution.ErrInstitutionAlreadyExists
	case !exists && wantExists:
		return institution.ErrInstitutionNotFound
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// Save inserts a new record.
func (r *InstitutionSQLiteRepository) Save(ctx context.Context, inst institution.Institution) error {
	stmt := `INSERT INTO instituicoes (` + institutionWriteColumns + `) VALUES (` + institutionPlaceholders + `)`
	return r.write(ctx, inst.Key(), false, stmt, institutionArgs(inst)...)
}

// Update replaces an existing record.
func (r *InstitutionSQLiteRepository) Update(ctx context.Context, inst institution.Institution) error {
	stmt := `INSERT OR REPLACE INTO instituicoes (` + institutionWriteColumns + `) VALUES (` + institutionPlaceholders + `)`
	return r.write(ctx, inst.Key(), true, stmt, institutionArgs(inst)...)
}

// FindByKey retrieves a record by its key.
func (r *InstitutionSQLiteRepository) FindByKey(ctx context.Context, key institution.Key) (institution.Institution, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+institutionColumns+` FROM instituicoes WHERE CO_ENTIDADE = ? AND ano = ?`, key.ID, key.Year)
	inst, err := scanInstitution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return institution.Institution{}, institution.ErrInstitutionNotFound
	}
	return inst, err
}

// Delete removes a record.
func (r *InstitutionSQLiteRepository) Delete(ctx context.Context, key institution.Key) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM instituicoes WHERE CO_ENTIDADE = ? AND ano = ?`, key.ID, key.Year)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return institution.ErrInstitutionNotFound
	}
	return nil
}

// FindPage counts the matching rows and reads the requested window.
func (r *InstitutionSQLiteRepository) FindPage(ctx context.Context, q institution.ListQuery) (institution.Page, error) {
	where := []string{"SG_UF = ?"}
	args := []any{q.UF}
	if q.Year != 0 {
		where = append(where, "ano = ?")
		args = append(args, q.Year)
	}
	if term := strings.ToLower(q.Search); term != "" {
		where = append(where, "(instr(nome_busca, ?) > 0 OR instr(municipio_busca, ?) > 0)")
		args = append(args, term, term)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM instituicoes WHERE `+cond, args...).Scan(&total); err != nil {
		return institution.Page{}, fmt.Errorf("failed to count institutions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+institutionColumns+` FROM instituicoes WHERE `+cond+` ORDER BY ano, CO_ENTIDADE LIMIT ? OFFSET ?`,
		append(args, q.PerPage, q.Offset())...)
	if err != nil {
		return institution.Page{}, fmt.Errorf("failed to query institutions: %w", err)
	}
	defer rows.Close()

	var items []institution.Institution
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return institution.Page{}, err
		}
		items = append(items, inst)
	}
	if err := rows.Err(); err != nil {
		return institution.Page{}, err
	}

	return institution.NewPage(q, items, total), nil
}

// SaveBatch upserts the batch in one transaction with a prepared statement.
func (r *InstitutionSQLiteRepository) SaveBatch(ctx context.Context, batch []institution.Institution) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO instituicoes (`+institutionWriteColumns+`) VALUES (`+institutionPlaceholders+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, inst := range batch {
		if _, err := stmt.ExecContext(ctx, institutionArgs(inst)...); err != nil {
			return fmt.Errorf("failed to store record %s: %w", inst.Key(), err)
		}
	}
	return tx.Commit()
}

// DeleteAll empties the table.
func (r *InstitutionSQLiteRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM instituicoes`)
	return err
}

// Stats aggregates the records per state with SQL sums.
func (r *InstitutionSQLiteRepository) Stats(ctx context.Context, year int) ([]institution.UFStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT SG_UF, COUNT(*),
			COALESCE(SUM(QT_MAT_BAS), 0), COALESCE(SUM(QT_MAT_INF), 0), COALESCE(SUM(QT_MAT_FUND), 0)
		FROM instituicoes
		WHERE ? = 0 OR ano = ?
		GROUP BY SG_UF
		ORDER BY SG_UF`, year, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []institution.UFStats{}
	for rows.Next() {
		var s institution.UFStats
		if err := rows.Scan(&s.UF, &s.Institutions, &s.BasicEnrollment, &s.InfantEnrollment, &s.ElementaryEnrollment); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Ping checks that the database answers.
func (r *InstitutionSQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
