package application

import (
	"context"

	"github.com/alorle/censo-escolar/internal/institution"
	"github.com/alorle/censo-escolar/internal/locality"
)

// mockInstitutionRepository is a mock implementation of driven.InstitutionRepository for testing.
type mockInstitutionRepository struct {
	saveFunc      func(ctx context.Context, inst institution.Institution) error
	updateFunc    func(ctx context.Context, inst institution.Institution) error
	findByKeyFunc func(ctx context.Context, key institution.Key) (institution.Institution, error)
	deleteFunc    func(ctx context.Context, key institution.Key) error
	findPageFunc  func(ctx context.Context, q institution.ListQuery) (institution.Page, error)
	saveBatchFunc func(ctx context.Context, batch []institution.Institution) error
	deleteAllFunc func(ctx context.Context) error
	statsFunc     func(ctx context.Context, year int) ([]institution.UFStats, error)
	pingFunc      func(ctx context.Context) error
}

func (m *mockInstitutionRepository) Save(ctx context.Context, inst institution.Institution) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, inst)
	}
	return nil
}

func (m *mockInstitutionRepository) Update(ctx context.Context, inst institution.Institution) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, inst)
	}
	return nil
}

func (m *mockInstitutionRepository) FindByKey(ctx context.Context, key institution.Key) (institution.Institution, error) {
	if m.findByKeyFunc != nil {
		return m.findByKeyFunc(ctx, key)
	}
	return institution.Institution{}, institution.ErrInstitutionNotFound
}

func (m *mockInstitutionRepository) Delete(ctx context.Context, key institution.Key) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

func (m *mockInstitutionRepository) FindPage(ctx context.Context, q institution.ListQuery) (institution.Page, error) {
	if m.findPageFunc != nil {
		return m.findPageFunc(ctx, q)
	}
	return institution.NewPage(q, nil, 0), nil
}

func (m *mockInstitutionRepository) SaveBatch(ctx context.Context, batch []institution.Institution) error {
	if m.saveBatchFunc != nil {
		return m.saveBatchFunc(ctx, batch)
	}
	return nil
}

func (m *mockInstitutionRepository) DeleteAll(ctx context.Context) error {
	if m.deleteAllFunc != nil {
		return m.deleteAllFunc(ctx)
	}
	return nil
}

func (m *mockInstitutionRepository) Stats(ctx context.Context, year int) ([]institution.UFStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx, year)
	}
	return nil, nil
}

func (m *mockInstitutionRepository) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// mockListCache is a mock implementation of driven.ListCache for testing.
type mockListCache struct {
	getPageFunc      func(ctx context.Context, q institution.ListQuery) (institution.Page, int64, bool, error)
	putPageFunc      func(ctx context.Context, q institution.ListQuery, version int64, page institution.Page) error
	invalidateUFFunc func(ctx context.Context, acronym string) error
	pingFunc         func(ctx context.Context) error
}

func (m *mockListCache) GetPage(ctx context.Context, q institution.ListQuery) (institution.Page, int64, bool, error) {
	if m.getPageFunc != nil {
		return m.getPageFunc(ctx, q)
	}
	return institution.Page{}, 0, false, nil
}

func (m *mockListCache) PutPage(ctx context.Context, q institution.ListQuery, version int64, page institution.Page) error {
	if m.putPageFunc != nil {
		return m.putPageFunc(ctx, q, version, page)
	}
	return nil
}

func (m *mockListCache) InvalidateUF(ctx context.Context, acronym string) error {
	if m.invalidateUFFunc != nil {
		return m.invalidateUFFunc(ctx, acronym)
	}
	return nil
}

func (m *mockListCache) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// mockLocalityRepository is a mock implementation of driven.LocalityRepository for testing.
type mockLocalityRepository struct {
	replaceUFsFunc            func(ctx context.Context, ufs []locality.UF) error
	replaceMesoregionsFunc    func(ctx context.Context, regions []locality.Mesoregion) error
	replaceMicroregionsFunc   func(ctx context.Context, regions []locality.Microregion) error
	replaceMunicipalitiesFunc func(ctx context.Context, municipalities []locality.Municipality) error
	findUFsFunc               func(ctx context.Context) ([]locality.UF, error)
	findMunicipalitiesFunc    func(ctx context.Context, acronym string) ([]locality.Municipality, error)
	findMesoregionsFunc       func(ctx context.Context, acronym string) ([]locality.Mesoregion, error)
	findMicroregionsFunc      func(ctx context.Context, acronym string) ([]locality.Microregion, error)
	pingFunc                  func(ctx context.Context) error
}

func (m *mockLocalityRepository) ReplaceUFs(ctx context.Context, ufs []locality.UF) error {
	if m.replaceUFsFunc != nil {
		return m.replaceUFsFunc(ctx, ufs)
	}
	return nil
}

func (m *mockLocalityRepository) ReplaceMesoregions(ctx context.Context, regions []locality.Mesoregion) error {
	if m.replaceMesoregionsFunc != nil {
		return m.replaceMesoregionsFunc(ctx, regions)
	}
	return nil
}

func (m *mockLocalityRepository) ReplaceMicroregions(ctx context.Context, regions []locality.Microregion) error {
	if m.replaceMicroregionsFunc != nil {
		return m.replaceMicroregionsFunc(ctx, regions)
	}
	return nil
}

func (m *mockLocalityRepository) ReplaceMunicipalities(ctx context.Context, municipalities []locality.Municipality) error {
	if m.replaceMunicipalitiesFunc != nil {
		return m.replaceMunicipalitiesFunc(ctx, municipalities)
	}
	return nil
}

func (m *mockLocalityRepository) FindUFs(ctx context.Context) ([]locality.UF, error) {
	if m.findUFsFunc != nil {
		return m.findUFsFunc(ctx)
	}
	return nil, nil
}

func (m *mockLocalityRepository) FindMunicipalitiesByUF(ctx context.Context, acronym string) ([]locality.Municipality, error) {
	if m.findMunicipalitiesFunc != nil {
		return m.findMunicipalitiesFunc(ctx, acronym)
	}
	return nil, nil
}

func (m *mockLocalityRepository) FindMesoregions(ctx context.Context, acronym string) ([]locality.Mesoregion, error) {
	if m.findMesoregionsFunc != nil {
		return m.findMesoregionsFunc(ctx, acronym)
	}
	return nil, nil
}

func (m *mockLocalityRepository) FindMicroregions(ctx context.Context, acronym string) ([]locality.Microregion, error) {
	if m.findMicroregionsFunc != nil {
		return m.findMicroregionsFunc(ctx, acronym)
	}
	return nil, nil
}

func (m *mockLocalityRepository) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// mockLocalitySource is a mock implementation of driven.LocalitySource for testing.
type mockLocalitySource struct {
	fetchUFsFunc            func(ctx context.Context) ([]locality.UF, error)
	fetchMesoregionsFunc    func(ctx context.Context) ([]locality.Mesoregion, error)
	fetchMicroregionsFunc   func(ctx context.Context) ([]locality.Microregion, error)
	fetchMunicipalitiesFunc func(ctx context.Context) ([]locality.Municipality, error)
}

func (m *mockLocalitySource) FetchUFs(ctx context.Context) ([]locality.UF, error) {
	if m.fetchUFsFunc != nil {
		return m.fetchUFsFunc(ctx)
	}
	return nil, nil
}

func (m *mockLocalitySource) FetchMesoregions(ctx context.Context) ([]locality.Mesoregion, error) {
	if m.fetchMesoregionsFunc != nil {
		return m.fetchMesoregionsFunc(ctx)
	}
	return nil, nil
}

func (m *mockLocalitySource) FetchMicroregions(ctx context.Context) ([]locality.Microregion, error) {
	if m.fetchMicroregionsFunc != nil {
		return m.fetchMicroregionsFunc(ctx)
	}
	return nil, nil
}

func (m *mockLocalitySource) FetchMunicipalities(ctx context.Context) ([]locality.Municipality, error) {
	if m.fetchMunicipalitiesFunc != nil {
		return m.fetchMunicipalitiesFunc(ctx)
	}
	return nil, nil
}

// mockCensusReader is a mock implementation of driven.CensusReader for testing.
type mockCensusReader struct {
	readFunc func(ctx context.Context, path string, year, batchSize int, fn func([]institution.Institution) error) (int, error)
}

func (m *mockCensusReader) Read(ctx context.Context, path string, year, batchSize int, fn func([]institution.Institution) error) (int, error) {
	if m.readFunc != nil {
		return m.readFunc(ctx, path, year, batchSize, fn)
	}
	return 0, nil
}

// mockGeoFetcher is a mock implementation of driven.GeoFetcher for testing.
type mockGeoFetcher struct {
	fetchStatesFunc func(ctx context.Context) ([]byte, bool, error)
}

func (m *mockGeoFetcher) FetchStates(ctx context.Context) ([]byte, bool, error) {
	if m.fetchStatesFunc != nil {
		return m.fetchStatesFunc(ctx)
	}
	return nil, false, nil
}
