package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/alorle/censo-escolar/api"
	"github.com/alorle/censo-escolar/internal/adapter/driven"
	"github.com/alorle/censo-escolar/internal/application"
	"github.com/alorle/censo-escolar/internal/institution"
)

type testServer struct {
	handler http.Handler
	repo    *driven.InstitutionBoltDBRepository
}

// newTestServer wires the institution routes to a BoltDB store in a temp dir.
// With validate set, the OpenAPI parameter validator runs in front.
func newTestServer(t *testing.T, validate bool) *testServer {
	t.Helper()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "censo.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := driven.NewInstitutionBoltDBRepository(db)
	require.NoError(t, err)

	svc := application.NewInstitutionService(repo, nil, nil)
	opts := RouterOptions{CORSOrigins: []string{"*"}}
	if validate {
		doc, err := api.Load()
		require.NoError(t, err)
		opts.OpenAPI = doc
	}

	return &testServer{
		handler: NewRouter(opts, NewInstitutionHTTPHandler(svc, nil), NewStatsHTTPHandler(svc, nil)),
		repo:    repo,
	}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

const validBody = `{
	"CO_ENTIDADE": 35000001,
	"NO_ENTIDADE": "Escola Estadual Centro",
	"NO_MUNICIPIO": "Campinas",
	"CO_UF": 35,
	"NO_UF": "São Paulo",
	"SG_UF": "sp",
	"QT_MAT_INF": 40,
	"QT_MAT_FUND": "120",
	"ano": 2023
}`

func seed(t *testing.T, repo *driven.InstitutionBoltDBRepository, uf string, year int, ids ...int64) {
	t.Helper()
	batch := make([]institution.Institution, len(ids))
	for i, id := range ids {
		batch[i] = institution.Institution{
			ID:               id,
			Year:             year,
			Name:             "Escola " + uf,
			MunicipalityName: "Capital",
			UFAcronym:        uf,
		}
	}
	require.NoError(t, repo.SaveBatch(context.Background(), batch))
}

func TestInstitutionHTTPHandler_Create(t *testing.T) {
	t.Run("creates and returns the record", func(t *testing.T) {
		srv := newTestServer(t, true)

		rec := srv.do(t, http.MethodPost, "/api/instituicoes", validBody)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got institutionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, int64(35000001), got.ID)
		assert.Equal(t, "SP", got.UFAcronym)
		assert.Equal(t, 2023, got.Year)
		require.NotNil(t, got.ElementaryEnrollment)
		assert.Equal(t, 120, *got.ElementaryEnrollment)

		rec = srv.do(t, http.MethodGet, "/api/instituicoes/35000001/2023", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate key is a conflict", func(t *testing.T) {
		srv := newTestServer(t, true)
		require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/instituicoes", validBody).Code)

		rec := srv.do(t, http.MethodPost, "/api/instituicoes", validBody)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, msgAlreadyExists, decodeError(t, rec).Message)
	})

	t.Run("missing fields are reported per field", func(t *testing.T) {
		srv := newTestServer(t, true)

		rec := srv.do(t, http.MethodPost, "/api/instituicoes", `{"CO_ENTIDADE": 1, "ano": 2023}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeError(t, rec)
		assert.Equal(t, msgValidation, resp.Message)
		assert.Equal(t, []string{institution.MsgRequired}, resp.Errors[institution.FieldName])
		assert.Equal(t, []string{institution.MsgRequired}, resp.Errors[institution.FieldUFAcronym])
		assert.NotContains(t, resp.Errors, institution.FieldID)
	})

	t.Run("wrong types unknown fields and nulls", func(t *testing.T) {
		srv := newTestServer(t, true)

		rec := srv.do(t, http.MethodPost, "/api/instituicoes",
			`{"CO_ENTIDADE": "abc", "QT_MAT_INF": 1.5, "NO_UF": null, "extra": true}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeError(t, rec)
		assert.Equal(t, []string{institution.MsgNotInteger}, resp.Errors[institution.FieldID])
		assert.Equal(t, []string{institution.MsgNotInteger}, resp.Errors[institution.FieldInfantEnrollment])
		assert.Equal(t, []string{institution.MsgNull}, resp.Errors[institution.FieldUFName])
		assert.Equal(t, []string{institution.MsgUnknownField}, resp.Errors["extra"])
	})

	t.Run("body must be a JSON object", func(t *testing.T) {
		srv := newTestServer(t, false)

		for _, body := range []string{`[1,2]`, `{"CO_ENTIDADE":`, `null`} {
			rec := srv.do(t, http.MethodPost, "/api/instituicoes", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, msgInvalidJSON, decodeError(t, rec).Message, body)
		}
	})
}

func TestInstitutionHTTPHandler_List(t *testing.T) {
	for _, validate := range []bool{true, false} {
		name := "handler"
		if validate {
			name = "validator"
		}

		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, validate)
			seed(t, srv.repo, "SP", 2023, 3, 1, 2)
			seed(t, srv.repo, "SP", 2024, 1)
			seed(t, srv.repo, "RJ", 2023, 9)

			tests := []struct {
				name       string
				target     string
				wantStatus int
				wantMsg    string
			}{
				{"uf required", "/api/instituicoes", http.StatusBadRequest, msgUFRequired},
				{"page not integer", "/api/instituicoes?uf=SP&page=abc", http.StatusBadRequest, msgPagingNotInteger},
				{"per_page not integer", "/api/instituicoes?uf=SP&per_page=x", http.StatusBadRequest, msgPagingNotInteger},
				{"page zero", "/api/instituicoes?uf=SP&page=0", http.StatusBadRequest, msgPagingNotPositive},
				{"per_page too large", "/api/instituicoes?uf=SP&per_page=501", http.StatusBadRequest, msgPerPageTooLarge},
				{"year not integer", "/api/instituicoes?uf=SP&ano=abc", http.StatusBadRequest, msgYearNotInteger},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					rec := srv.do(t, http.MethodGet, tt.target, "")
					assert.Equal(t, tt.wantStatus, rec.Code)
					assert.Equal(t, tt.wantMsg, decodeError(t, rec).Message)
				})
			}

			t.Run("pages are ordered by year then id", func(t *testing.T) {
				rec := srv.do(t, http.MethodGet, "/api/instituicoes?uf=sp&per_page=3", "")
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

				var got pageResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, paginationResponse{Page: 1, PerPage: 3, TotalItems: 4, TotalPages: 2}, got.Pagination)
				require.Len(t, got.Items, 3)
				assert.Equal(t, []int64{1, 2, 3}, []int64{got.Items[0].ID, got.Items[1].ID, got.Items[2].ID})
				assert.Equal(t, 2023, got.Items[2].Year)
			})

			t.Run("year filter", func(t *testing.T) {
				rec := srv.do(t, http.MethodGet, "/api/instituicoes?uf=SP&ano=2024", "")
				require.Equal(t, http.StatusOK, rec.Code)

				var got pageResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, 1, got.Pagination.TotalItems)
				assert.Equal(t, 2024, got.Items[0].Year)
			})

			t.Run("empty state returns an empty list", func(t *testing.T) {
				rec := srv.do(t, http.MethodGet, "/api/instituicoes?uf=AC", "")
				require.Equal(t, http.StatusOK, rec.Code)
				assert.Contains(t, rec.Body.String(), `"items":[]`)
			})
		})
	}
}

func TestInstitutionHTTPHandler_Update(t *testing.T) {
	srv := newTestServer(t, true)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/instituicoes", validBody).Code)

	t.Run("applies present fields", func(t *testing.T) {
		rec := srv.do(t, http.MethodPut, "/api/instituicoes/35000001/2023", `{"NO_ENTIDADE": "Escola Nova", "ano": 2023}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got institutionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "Escola Nova", got.Name)
		assert.Equal(t, "Campinas", got.Municipality)
	})

	t.Run("key cannot change", func(t *testing.T) {
		rec := srv.do(t, http.MethodPut, "/api/instituicoes/35000001/2023", `{"ano": 2024}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{institution.MsgImmutable}, decodeError(t, rec).Errors[institution.FieldYear])
	})

	t.Run("missing record is reported before the body", func(t *testing.T) {
		rec := srv.do(t, http.MethodPut, "/api/instituicoes/1/2023", `{"NO_ENTIDADE": 5}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, msgNotFound, decodeError(t, rec).Message)
	})

	t.Run("non-integer key", func(t *testing.T) {
		rec := srv.do(t, http.MethodPut, "/api/instituicoes/abc/2023", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, msgKeyNotInteger, decodeError(t, rec).Message)
	})
}

func TestInstitutionHTTPHandler_Delete(t *testing.T) {
	srv := newTestServer(t, false)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/instituicoes", validBody).Code)

	rec := srv.do(t, http.MethodDelete, "/api/instituicoes/35000001/2023", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = srv.do(t, http.MethodDelete, "/api/instituicoes/35000001/2023", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/instituicoes/35000001/2023", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/instituicoes/x/2023", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgKeyNotInteger, decodeError(t, rec).Message)
}

func TestStatsHTTPHandler(t *testing.T) {
	srv := newTestServer(t, true)
	seed(t, srv.repo, "SP", 2023, 1, 2)
	seed(t, srv.repo, "RJ", 2024, 3)

	rec := srv.do(t, http.MethodGet, "/api/estatisticas?ano=2023", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []ufStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "SP", got[0].UF)
	assert.Equal(t, 2, got[0].Institutions)

	rec = srv.do(t, http.MethodGet, "/api/estatisticas?ano=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgYearNotInteger, decodeError(t, rec).Message)
}

func TestDecodePatch(t *testing.T) {
	t.Run("accepts integral floats and numeric strings", func(t *testing.T) {
		p, err := decodePatch(bytes.NewBufferString(`{"CO_ENTIDADE": "42", "ano": 2023.0, "QT_MAT_INF": 0}`), true)
		require.NoError(t, err)
		assert.Equal(t, int64(42), *p.ID)
		assert.Equal(t, 2023, *p.Year)
		assert.Equal(t, 0, *p.InfantEnrollment)
		assert.Nil(t, p.Name)
	})

	t.Run("rejects non-string names", func(t *testing.T) {
		_, err := decodePatch(bytes.NewBufferString(`{"NO_ENTIDADE": 12}`), true)
		var verr *institution.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{institution.MsgNotString}, verr.Fields[institution.FieldName])
	})

	t.Run("decode errors come with the required field checks", func(t *testing.T) {
		_, err := decodePatch(bytes.NewBufferString(`{"foo": 1, "CO_ENTIDADE": "abc"}`), false)
		var verr *institution.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{institution.MsgUnknownField}, verr.Fields["foo"])
		assert.Equal(t, []string{institution.MsgNotInteger}, verr.Fields[institution.FieldID])
		for _, field := range []string{
			institution.FieldName, institution.FieldMunicipality, institution.FieldUFCode,
			institution.FieldUFName, institution.FieldUFAcronym, institution.FieldYear,
		} {
			assert.Equal(t, []string{institution.MsgRequired}, verr.Fields[field], field)
		}
	})

	t.Run("partial decode errors keep content checks of sent fields", func(t *testing.T) {
		_, err := decodePatch(bytes.NewBufferString(`{"foo": 1, "NO_ENTIDADE": "ab"}`), true)
		var verr *institution.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 2)
		assert.Equal(t, []string{"Shorter than minimum length 3."}, verr.Fields[institution.FieldName])
	})

	t.Run("rejects non-objects", func(t *testing.T) {
		_, err := decodePatch(bytes.NewBufferString(`"text"`), false)
		assert.ErrorIs(t, err, errInvalidBody)
	})
}
