package driven

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/alorle/censo-escolar/internal/institution"
)

const (
	institutionsBucket = "instituicoes"
	byUFBucket         = "por_uf"
)

// InstitutionBoltDBRepository implements the InstitutionRepository port using BoltDB.
//
// Records live in the "instituicoes" bucket under 16-byte keys: the year then
// the id, each big-endian with the sign bit flipped, so byte order equals
// (year, id) order for every int64. The "por_uf" bucket holds one nested
// bucket per state with the same keys, which makes a state listing a cursor
// walk instead of a full scan.
type InstitutionBoltDBRepository struct {
	db *bbolt.DB
}

// NewInstitutionBoltDBRepository creates a new BoltDB-backed institution repository.
// It initializes the required buckets if they don't exist.
func NewInstitutionBoltDBRepository(db *bbolt.DB) (*InstitutionBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(institutionsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(byUFBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &InstitutionBoltDBRepository{db: db}, nil
}

const signBit = 1 << 63

func recordKey(k institution.Key) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(int64(k.Year))^signBit)
	binary.BigEndian.PutUint64(key[8:], uint64(k.ID)^signBit)
	return key
}

func yearPrefix(year int) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(int64(year))^signBit)
}

// buckets returns the primary and index buckets of a transaction.
func (r *InstitutionBoltDBRepository) buckets(tx *bbolt.Tx) (*bbolt.Bucket, *bbolt.Bucket, error) {
	records := tx.Bucket([]byte(institutionsBucket))
	index := tx.Bucket([]byte(byUFBucket))
	if records == nil || index == nil {
		return nil, nil, errors.New("institution buckets not found")
	}
	return records, index, nil
}

func decodeInstitution(data []byte) (institution.Institution, error) {
	var dto institutionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return institution.Institution{}, err
	}
	return dtoToInstitution(dto), nil
}

// put writes the record and moves its index entry when the state changed.
func put(records, index *bbolt.Bucket, inst institution.Institution) error {
	if inst.UFAcronym == "" {
		return errors.New("record has no state acronym")
	}
	key := recordKey(inst.Key())

	if old := records.Get(key); old != nil {
		prev, err := decodeInstitution(old)
		if err != nil {
			return err
		}
		if prev.UFAcronym != inst.UFAcronym {
			if ufb := index.Bucket([]byte(prev.UFAcronym)); ufb != nil {
				if err := ufb.Delete(key); err != nil {
					return err
				}
			}
		}
	}

	data, err := json.Marshal(institutionToDTO(inst))
	if err != nil {
		return err
	}
	if err := records.Put(key, data); err != nil {
		return err
	}

	ufb, err := index.CreateBucketIfNotExists([]byte(inst.UFAcronym))
	if err != nil {
		return err
	}
	return ufb.Put(key, []byte{})
}

// Save persists a new record to BoltDB.
func (r *InstitutionBoltDBRepository) Save(ctx context.Context, inst institution.Institution) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		records, index, err := r.buckets(tx)
		if err != nil {
			return err
		}
		if records.Get(recordKey(inst.Key())) != nil {
			return institution.ErrInstitutionAlreadyExists
		}
		return put(records, index, inst)
	})
}

// Update persists changes to an existing record in BoltDB.
func (r *InstitutionBoltDBRepository) Update(ctx context.Context, inst institution.Institution) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		records, index, err := r.buckets(tx)
		if err != nil {
			return err
		}
		if records.Get(recordKey(inst.Key())) == nil {
			return institution.ErrInstitutionNotFound
		}
		return put(records, index, inst)
	})
}

// FindByKey retrieves a record by its key from BoltDB.
func (r *InstitutionBoltDBRepository) FindByKey(ctx context.Context, key institution.Key) (institution.Institution, error) {
	if err := ctx.Err(); err != nil {
		return institution.Institution{}, err
	}

	var inst institution.Institution
	err := r.db.View(func(tx *bbolt.Tx) error {
		records, _, err := r.buckets(tx)
		if err != nil {
			return err
		}
		data := records.Get(recordKey(key))
		if data == nil {
			return institution.ErrInstitutionNotFound
		}
		inst, err = decodeInstitution(data)
		return err
	})
	return inst, err
}

// Delete removes a record and its index entry from BoltDB.
func (r *InstitutionBoltDBRepository) Delete(ctx context.Context, key institution.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		records, index, err := r.buckets(tx)
		if err != nil {
			return err
		}

		k := recordKey(key)
		data := records.Get(k)
		if data == nil {
			return institution.ErrInstitutionNotFound
		}
		inst, err := decodeInstitution(data)
		if err != nil {
			return err
		}
		if ufb := index.Bucket([]byte(inst.UFAcronym)); ufb != nil {
			if err := ufb.Delete(k); err != nil {
				return err
			}
		}
		return records.Delete(k)
	})
}

// FindPage walks the state's index in key order, so records come out sorted
// by year and id. A year filter seeks straight to that year's keys.
func (r *InstitutionBoltDBRepository) FindPage(ctx context.Context, q institution.ListQuery) (institution.Page, error) {
	if err := ctx.Err(); err != nil {
		return institution.Page{}, err
	}

	start := q.Offset()
	end := start + q.PerPage
	var items []institution.Institution
	total := 0

	err := r.db.View(func(tx *bbolt.Tx) error {
		records, index, err := r.buckets(tx)
		if err != nil {
			return err
		}
		ufb := index.Bucket([]byte(q.UF))
		if ufb == nil {
			return nil
		}

		c := ufb.Cursor()
		var prefix []byte
		k, _ := c.First()
		if q.Year != 0 {
			prefix = yearPrefix(q.Year)
			k, _ = c.Seek(prefix)
		}

		for ; k != nil; k, _ = c.Next() {
			if prefix != nil && !bytes.HasPrefix(k, prefix) {
				break
			}
			data := records.Get(k)
			if data == nil {
				continue
			}

			// Decoding is skipped for rows outside the window when no
			// search term needs the record's text.
			if q.Search == "" && (total < start || total >= end) {
				total++
				continue
			}

			inst, err := decodeInstitution(data)
			if err != nil {
				return err
			}
			if !q.Matches(inst) {
				continue
			}
			if total >= start && total < end {
				items = append(items, inst)
			}
			total++
		}
		return nil
	})
	if err != nil {
		return institution.Page{}, err
	}

	return institution.NewPage(q, items, total), nil
}

// SaveBatch upserts every record in one BoltDB transaction.
func (r *InstitutionBoltDBRepository) SaveBatch(ctx context.Context, batch []institution.Institution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		records, index, err := r.buckets(tx)
		if err != nil {
			return err
		}
		for _, inst := range batch {
			if err := put(records, index, inst); err != nil {
				return fmt.Errorf("failed to store record %s: %w", inst.Key(), err)
			}
		}
		return nil
	})
}

// DeleteAll drops and recreates both buckets.
func (r *InstitutionBoltDBRepository) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{institutionsBucket, byUFBucket} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats aggregates every stored record per state.
func (r *InstitutionBoltDBRepository) Stats(ctx context.Context, year int) ([]institution.UFStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byUF := make(map[string]*institution.UFStats)
	err := r.db.View(func(tx *bbolt.Tx) error {
		records, _, err := r.buckets(tx)
		if err != nil {
			return err
		}

		c := records.Cursor()
		var prefix []byte
		k, v := c.First()
		if year != 0 {
			prefix = yearPrefix(year)
			k, v = c.Seek(prefix)
		}
		for ; k != nil; k, v = c.Next() {
			if prefix != nil && !bytes.HasPrefix(k, prefix) {
				break
			}
			inst, err := decodeInstitution(v)
			if err != nil {
				return err
			}
			s, ok := byUF[inst.UFAcronym]
			if !ok {
				s = &institution.UFStats{UF: inst.UFAcronym}
				byUF[inst.UFAcronym] = s
			}
			s.Accumulate(inst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := make([]institution.UFStats, 0, len(byUF))
	for _, s := range byUF {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].UF < stats[j].UF })
	return stats, nil
}

// Ping checks if the BoltDB database is accessible and operational.
func (r *InstitutionBoltDBRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		_, _, err := r.buckets(tx)
		return err
	})
}
