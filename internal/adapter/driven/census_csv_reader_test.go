package driven

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/alorle/censo-escolar/internal/institution"
)

const censusHeader = "NU_ANO_CENSO;NO_REGIAO;CO_REGIAO;NO_UF;SG_UF;CO_UF;NO_MUNICIPIO;CO_MUNICIPIO;" +
	"NO_MESORREGIAO;NO_MICRORREGIAO;NO_ENTIDADE;CO_ENTIDADE;TP_DEPENDENCIA;QT_MAT_BAS;QT_MAT_INF;" +
	"QT_MAT_FUND;QT_MAT_MED;QT_MAT_EJA;QT_MAT_EJA_FUND;QT_MAT_ESP;QT_MAT_BAS_EAD;QT_MAT_FUND_INT;QT_MAT_MED_INT"

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("failed to encode latin1: %v", err)
	}
	return b
}

func censusRows(n int) string {
	var sb strings.Builder
	sb.WriteString(censusHeader + "\n")
	for i := 1; i <= n; i++ {
		sb.WriteString("2023;Sudeste;3;São Paulo;SP;35;São Paulo;3550308;Metropolitana de São Paulo;São Paulo;")
		sb.WriteString("ESCOLA JOÃO " + strings.Repeat("I", i) + ";")
		sb.WriteString(strings.Repeat("1", i) + ";2;120;30;90;;;;0;;;\n")
	}
	return sb.String()
}

func TestCensusCSVReader_ReadFrom(t *testing.T) {
	t.Run("decodes latin1 rows in batches", func(t *testing.T) {
		var batches [][]institution.Institution
		total, err := NewCensusCSVReader().ReadFrom(context.Background(), bytes.NewReader(latin1(t, censusRows(5))), 2023, 2,
			func(b []institution.Institution) error {
				batches = append(batches, b)
				return nil
			})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 5 {
			t.Errorf("expected 5 records, got %d", total)
		}
		if len(batches) != 3 || len(batches[2]) != 1 {
			t.Fatalf("expected batches of 2, 2 and 1, got %d batches", len(batches))
		}

		first := batches[0][0]
		if first.ID != 1 || first.Year != 2023 {
			t.Errorf("unexpected key %v", first.Key())
		}
		if first.Name != "ESCOLA JOÃO I" || first.UFName != "São Paulo" {
			t.Errorf("expected latin1 text decoded, got %q / %q", first.Name, first.UFName)
		}
		if first.MunicipalityCode != 3550308 || first.UFCode != 35 || first.RegionCode != 3 {
			t.Errorf("unexpected codes %+v", first)
		}
		if first.Enrollment.Basic == nil || *first.Enrollment.Basic != 120 {
			t.Errorf("expected QT_MAT_BAS 120, got %v", first.Enrollment.Basic)
		}
		if first.Enrollment.HighSchool != nil {
			t.Errorf("expected empty QT_MAT_MED to be null, got %d", *first.Enrollment.HighSchool)
		}
		if first.Enrollment.Special == nil || *first.Enrollment.Special != 0 {
			t.Errorf("expected QT_MAT_ESP 0, got %v", first.Enrollment.Special)
		}
	})

	t.Run("missing column is a file error", func(t *testing.T) {
		src := strings.Replace(censusRows(1), "QT_MAT_FUND;", "QT_OUTRO;", 1)
		_, err := NewCensusCSVReader().ReadFrom(context.Background(), strings.NewReader(src), 2023, 10,
			func([]institution.Institution) error { return nil })
		if err == nil || !strings.Contains(err.Error(), "QT_MAT_FUND") {
			t.Errorf("expected missing column error, got %v", err)
		}
	})

	t.Run("non-numeric count reports the line", func(t *testing.T) {
		src := strings.Replace(censusRows(1), ";120;", ";cento;", 1)
		_, err := NewCensusCSVReader().ReadFrom(context.Background(), strings.NewReader(src), 2023, 10,
			func([]institution.Institution) error { return nil })
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Errorf("expected line error, got %v", err)
		}
	})

	t.Run("blank state acronym reports the line", func(t *testing.T) {
		src := censusRows(2)
		second := strings.LastIndex(src, ";SP;35;")
		src = src[:second] + ";;35;" + src[second+len(";SP;35;"):]

		var stored int
		n, err := NewCensusCSVReader().ReadFrom(context.Background(), strings.NewReader(src), 2023, 1,
			func(batch []institution.Institution) error { stored += len(batch); return nil })
		if err == nil || !strings.Contains(err.Error(), "line 3") || !strings.Contains(err.Error(), "SG_UF") {
			t.Errorf("expected SG_UF error on line 3, got %v", err)
		}
		if n != 1 || stored != 1 {
			t.Errorf("expected the first row to be stored, got n=%d stored=%d", n, stored)
		}
	})

	t.Run("callback error stops reading", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewCensusCSVReader().ReadFrom(context.Background(), strings.NewReader(censusRows(3)), 2023, 1,
			func([]institution.Institution) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("expected callback error, got %v", err)
		}
	})
}

func TestCensusCSVReader_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "microdados_ed_basica_2024.csv")
	if err := os.WriteFile(path, latin1(t, censusRows(3)), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	total, err := NewCensusCSVReader().Read(context.Background(), path, 2024, 0, func(b []institution.Institution) error {
		if b[0].Year != 2024 {
			t.Errorf("expected year 2024, got %d", b[0].Year)
		}
		return nil
	})
	if err != nil || total != 3 {
		t.Errorf("expected 3 records, got %d (%v)", total, err)
	}

	if _, err := NewCensusCSVReader().Read(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), 2024, 0, nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
