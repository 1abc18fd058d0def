package driven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/alorle/censo-escolar/internal/locality"
)

const (
	ufsBucket            = "localidades_ufs"
	mesoregionsBucket    = "localidades_mesorregioes"
	microregionsBucket   = "localidades_microrregioes"
	municipalitiesBucket = "localidades_municipios"
)

var localityBuckets = []string{ufsBucket, mesoregionsBucket, microregionsBucket, municipalitiesBucket}

// LocalityBoltDBRepository implements the LocalityRepository port using BoltDB.
// Each dataset has its own bucket keyed by IBGE id.
type LocalityBoltDBRepository struct {
	db *bbolt.DB
}

// NewLocalityBoltDBRepository creates a new BoltDB-backed locality repository.
func NewLocalityBoltDBRepository(db *bbolt.DB) (*LocalityBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range localityBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &LocalityBoltDBRepository{db: db}, nil
}

func idKey(id int64) []byte {
	return fmt.Appendf(nil, "%012d", id)
}

// replace swaps the content of a bucket in one transaction.
func replace[T any](ctx context.Context, db *bbolt.DB, bucket string, items []T, id func(T) int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket([]byte(bucket))
		if err != nil {
			return err
		}
		for _, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if err := b.Put(idKey(id(item)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// scan decodes every value of a bucket and keeps those accepted by keep.
func scan[T any](ctx context.Context, db *bbolt.DB, bucket string, keep func(T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := []T{}
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("%s bucket not found", bucket)
		}
		return b.ForEach(func(_, v []byte) error {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			if keep == nil || keep(item) {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceUFs stores the state table.
func (r *LocalityBoltDBRepository) ReplaceUFs(ctx context.Context, ufs []locality.UF) error {
	dtos := make([]ufDTO, len(ufs))
	for i, uf := range ufs {
		dtos[i] = ufToDTO(uf)
	}
	return replace(ctx, r.db, ufsBucket, dtos, func(d ufDTO) int64 { return int64(d.ID) })
}

// ReplaceMesoregions stores the mesoregion table.
func (r *LocalityBoltDBRepository) ReplaceMesoregions(ctx context.Context, regions []locality.Mesoregion) error {
	dtos := make([]mesoregionDTO, len(regions))
	for i, m := range regions {
		dtos[i] = mesoregionToDTO(m)
	}
	return replace(ctx, r.db, mesoregionsBucket, dtos, func(d mesoregionDTO) int64 { return int64(d.ID) })
}

// ReplaceMicroregions stores the microregion table.
func (r *LocalityBoltDBRepository) ReplaceMicroregions(ctx context.Context, regions []locality.Microregion) error {
	dtos := make([]microregionDTO, len(regions))
	for i, m := range regions {
		dtos[i] = microregionToDTO(m)
	}
	return replace(ctx, r.db, microregionsBucket, dtos, func(d microregionDTO) int64 { return int64(d.ID) })
}

// ReplaceMunicipalities stores the municipality table.
func (r *LocalityBoltDBRepository) ReplaceMunicipalities(ctx context.Context, municipalities []locality.Municipality) error {
	dtos := make([]municipalityDTO, len(municipalities))
	for i, m := range municipalities {
		dtos[i] = municipalityToDTO(m)
	}
	return replace(ctx, r.db, municipalitiesBucket, dtos, func(d municipalityDTO) int64 { return d.ID })
}

// FindUFs returns the stored states ordered by name.
func (r *LocalityBoltDBRepository) FindUFs(ctx context.Context) ([]locality.UF, error) {
	dtos, err := scan[ufDTO](ctx, r.db, ufsBucket, nil)
	if err != nil {
		return nil, err
	}
	ufs := make([]locality.UF, len(dtos))
	for i, d := range dtos {
		ufs[i] = d.toUF()
	}
	locality.SortUFsByName(ufs)
	return ufs, nil
}

// FindMunicipalitiesByUF returns the municipalities of a state ordered by name.
func (r *LocalityBoltDBRepository) FindMunicipalitiesByUF(ctx context.Context, acronym string) ([]locality.Municipality, error) {
	acronym = locality.NormalizeAcronym(acronym)
	dtos, err := scan(ctx, r.db, municipalitiesBucket, func(d municipalityDTO) bool {
		return d.ufDTO.Acronym == acronym
	})
	if err != nil {
		return nil, err
	}
	out := make([]locality.Municipality, len(dtos))
	for i, d := range dtos {
		out[i] = d.toMunicipality()
	}
	locality.SortByName(out, func(m locality.Municipality) string { return m.Name })
	return out, nil
}

// FindMesoregions returns mesoregions, optionally of one state, ordered by name.
func (r *LocalityBoltDBRepository) FindMesoregions(ctx context.Context, acronym string) ([]locality.Mesoregion, error) {
	acronym = locality.NormalizeAcronym(acronym)
	dtos, err := scan(ctx, r.db, mesoregionsBucket, func(d mesoregionDTO) bool {
		return acronym == "" || d.ufDTO.Acronym == acronym
	})
	if err != nil {
		return nil, err
	}
	out := make([]locality.Mesoregion, len(dtos))
	for i, d := range dtos {
		out[i] = d.toMesoregion()
	}
	locality.SortByName(out, func(m locality.Mesoregion) string { return m.Name })
	return out, nil
}

// FindMicroregions returns microregions, optionally of one state, ordered by name.
func (r *LocalityBoltDBRepository) FindMicroregions(ctx context.Context, acronym string) ([]locality.Microregion, error) {
	acronym = locality.NormalizeAcronym(acronym)
	dtos, err := scan(ctx, r.db, microregionsBucket, func(d microregionDTO) bool {
		return acronym == "" || d.ufDTO.Acronym == acronym
	})
	if err != nil {
		return nil, err
	}
	out := make([]locality.Microregion, len(dtos))
	for i, d := range dtos {
		out[i] = d.toMicroregion()
	}
	locality.SortByName(out, func(m locality.Microregion) string { return m.Name })
	return out, nil
}

// Ping checks that every locality bucket is reachable.
func (r *LocalityBoltDBRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		for _, name := range localityBuckets {
			if tx.Bucket([]byte(name)) == nil {
				return fmt.Errorf("%s bucket not found", name)
			}
		}
		return nil
	})
}
