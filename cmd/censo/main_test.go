package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alorle/censo-escolar/config"
	"github.com/alorle/censo-escolar/internal/institution"
)

const censusCSV = "NU_ANO_CENSO;NO_REGIAO;CO_REGIAO;NO_UF;SG_UF;CO_UF;NO_MUNICIPIO;CO_MUNICIPIO;" +
	"NO_MESORREGIAO;NO_MICRORREGIAO;NO_ENTIDADE;CO_ENTIDADE;QT_MAT_BAS;QT_MAT_INF;QT_MAT_FUND;" +
	"QT_MAT_MED;QT_MAT_EJA;QT_MAT_EJA_FUND;QT_MAT_ESP;QT_MAT_BAS_EAD;QT_MAT_FUND_INT;QT_MAT_MED_INT\n" +
	"2023;Sudeste;3;Sao Paulo;SP;35;Campinas;3509502;Campinas;Campinas;EE CARLOS GOMES;35000001;150;30;120;;;;;;;\n" +
	"2023;Sudeste;3;Sao Paulo;SP;35;Santos;3548500;Metropolitana;Santos;EMEF PRAIA;35000002;80;;80;;;;;;;\n"

// testEnv points the configuration at a temporary directory.
func testEnv(t *testing.T, driver string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	t.Setenv("STORAGE_DRIVER", driver)
	t.Setenv("DB_PATH", filepath.Join(dir, "data", "censo.db"))
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_LEVEL", "ERROR")
	configPath = ""
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadCensus(t *testing.T) {
	for _, driver := range []string{config.DriverBolt, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			dir := testEnv(t, driver)
			file := filepath.Join(dir, "microdados_ed_basica_2023.csv")
			require.NoError(t, os.WriteFile(file, []byte(censusCSV), 0o644))
			missing := filepath.Join(dir, "microdados_ed_basica_2024.csv")

			out, err := execute(t, "load-census", file, missing)
			require.NoError(t, err)
			assert.Contains(t, out, "2 linhas (ano 2023)")
			assert.Contains(t, out, "ignorado, arquivo não encontrado")
			assert.Contains(t, out, "Total: 2 linhas")

			a, err := newApp()
			require.NoError(t, err)
			defer a.Close()

			page, err := a.institutions.FindPage(context.Background(), institution.ListQuery{UF: "SP", Page: 1, PerPage: 20})
			require.NoError(t, err)
			require.Len(t, page.Items, 2)
			assert.Equal(t, int64(35000001), page.Items[0].ID)
			assert.Equal(t, "EE CARLOS GOMES", page.Items[0].Name)
			assert.Nil(t, page.Items[1].Enrollment.Infant)
		})
	}
}

func TestLoadCensusContinuesAfterBrokenFile(t *testing.T) {
	dir := testEnv(t, config.DriverBolt)
	broken := filepath.Join(dir, "microdados_ed_basica_2022.csv")
	require.NoError(t, os.WriteFile(broken, []byte("NU_ANO_CENSO;SG_UF\n2022;SP\n"), 0o644))
	good := filepath.Join(dir, "microdados_ed_basica_2023.csv")
	require.NoError(t, os.WriteFile(good, []byte(censusCSV), 0o644))

	out, err := execute(t, "load-census", broken, good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, out, broken+": ERRO após 0 linhas")
	assert.Contains(t, out, "2 linhas (ano 2023)")
	assert.Contains(t, out, "Total: 2 linhas")

	a, err := newApp()
	require.NoError(t, err)
	defer a.Close()

	page, err := a.institutions.FindPage(context.Background(), institution.ListQuery{UF: "SP", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestLoadCensusRequiresFiles(t *testing.T) {
	testEnv(t, config.DriverBolt)
	_, err := execute(t, "load-census")
	assert.Error(t, err)
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	testEnv(t, config.DriverBolt)
	t.Setenv("LOG_FORMAT", "xml")

	_, err := newApp()
	assert.Error(t, err)
}

func TestNewSPAHandler(t *testing.T) {
	t.Run("missing build serves nothing", func(t *testing.T) {
		h, err := newSPAHandler(filepath.Join(t.TempDir(), "dist"))
		require.NoError(t, err)
		assert.Nil(t, h)
	})

	t.Run("serves the build directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>censo</html>"), 0o644))

		h, err := newSPAHandler(dir)
		require.NoError(t, err)
		require.NotNil(t, h)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/estados/SP", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "censo")
	})
}
