package driven

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alorle/censo-escolar/internal/locality"
	port "github.com/alorle/censo-escolar/internal/port/driven"
)

func localityRepos() map[string]func(t *testing.T) port.LocalityRepository {
	return map[string]func(t *testing.T) port.LocalityRepository{
		"boltdb": func(t *testing.T) port.LocalityRepository {
			repo, err := NewLocalityBoltDBRepository(setupTestDB(t))
			require.NoError(t, err)
			return repo
		},
		"sqlite": func(t *testing.T) port.LocalityRepository {
			db, err := OpenSQLite(filepath.Join(t.TempDir(), "censo.sqlite"))
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			repo, err := NewLocalitySQLiteRepository(db)
			require.NoError(t, err)
			return repo
		},
	}
}

func testSnapshot(t *testing.T) locality.Snapshot {
	t.Helper()
	sp, err := locality.LookupUF("SP")
	require.NoError(t, err)
	rj, err := locality.LookupUF("RJ")
	require.NoError(t, err)

	metroSP := locality.Mesoregion{ID: 3515, Name: "Metropolitana de São Paulo", UF: sp}
	campinas := locality.Mesoregion{ID: 3507, Name: "Campinas", UF: sp}
	metroRJ := locality.Mesoregion{ID: 3306, Name: "Metropolitana do Rio de Janeiro", UF: rj}

	microSP := locality.Microregion{ID: 35061, Name: "São Paulo", Mesoregion: metroSP}
	microCampinas := locality.Microregion{ID: 35032, Name: "Campinas", Mesoregion: campinas}
	microRJ := locality.Microregion{ID: 33018, Name: "Rio de Janeiro", Mesoregion: metroRJ}

	return locality.Snapshot{
		UFs:          []locality.UF{sp, rj},
		Mesoregions:  []locality.Mesoregion{metroSP, campinas, metroRJ},
		Microregions: []locality.Microregion{microSP, microCampinas, microRJ},
		Municipalities: []locality.Municipality{
			{ID: 3550308, Name: "São Paulo", Microregion: microSP},
			{ID: 3509502, Name: "Campinas", Microregion: microCampinas},
			{ID: 3305109, Name: "São João de Meriti", Microregion: microRJ},
			{ID: 3304557, Name: "Rio de Janeiro", Microregion: microRJ},
		},
	}
}

func storeSnapshot(t *testing.T, repo port.LocalityRepository, s locality.Snapshot) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.ReplaceUFs(ctx, s.UFs))
	require.NoError(t, repo.ReplaceMesoregions(ctx, s.Mesoregions))
	require.NoError(t, repo.ReplaceMicroregions(ctx, s.Microregions))
	require.NoError(t, repo.ReplaceMunicipalities(ctx, s.Municipalities))
}

func TestLocalityRepository(t *testing.T) {
	for driver, newRepo := range localityRepos() {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			ufs, err := repo.FindUFs(ctx)
			require.NoError(t, err)
			assert.Empty(t, ufs, "no sync yet")

			snap := testSnapshot(t)
			storeSnapshot(t, repo, snap)

			ufs, err = repo.FindUFs(ctx)
			require.NoError(t, err)
			require.Len(t, ufs, 2)
			assert.Equal(t, "RJ", ufs[0].Acronym, "Rio de Janeiro sorts before São Paulo")
			assert.Equal(t, snap.UFs[0].Region, ufs[1].Region)

			munis, err := repo.FindMunicipalitiesByUF(ctx, "sp")
			require.NoError(t, err)
			require.Len(t, munis, 2)
			assert.Equal(t, "Campinas", munis[0].Name)
			assert.Equal(t, snap.Municipalities[0], munis[1], "hierarchy survives the round trip")

			meso, err := repo.FindMesoregions(ctx, "SP")
			require.NoError(t, err)
			assert.Len(t, meso, 2)

			meso, err = repo.FindMesoregions(ctx, "")
			require.NoError(t, err)
			assert.Len(t, meso, 3)

			micro, err := repo.FindMicroregions(ctx, "RJ")
			require.NoError(t, err)
			require.Len(t, micro, 1)
			assert.Equal(t, "Metropolitana do Rio de Janeiro", micro[0].Mesoregion.Name)

			require.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestLocalityRepository_ReplaceSemantics(t *testing.T) {
	for driver, newRepo := range localityRepos() {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			storeSnapshot(t, repo, testSnapshot(t))

			require.NoError(t, repo.ReplaceMunicipalities(ctx, nil))

			munis, err := repo.FindMunicipalitiesByUF(ctx, "SP")
			require.NoError(t, err)
			assert.Empty(t, munis)

			ufs, err := repo.FindUFs(ctx)
			require.NoError(t, err)
			assert.Len(t, ufs, 2, "other datasets untouched")
		})
	}
}
