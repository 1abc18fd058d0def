package driven

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alorle/censo-escolar/internal/locality"
)

const (
	defaultIBGETimeout = 60 * time.Second
	defaultIBGEBaseURL = "https://servicodados.ibge.gov.br/api/v1/localidades"
)

// IBGEHTTPSource fetches territorial tables from the IBGE localidades API.
// It implements the driven.LocalitySource port.
type IBGEHTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewIBGEHTTPSource creates a source for the given API base URL.
// If baseURL is empty, it uses the public IBGE endpoint.
// If client is nil, it creates a default HTTP client with a 60-second timeout.
func NewIBGEHTTPSource(baseURL string, client *http.Client) *IBGEHTTPSource {
	if baseURL == "" {
		baseURL = defaultIBGEBaseURL
	}
	if client == nil {
		client = &http.Client{
			Timeout: defaultIBGETimeout,
		}
	}
	return &IBGEHTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// getJSON fetches a dataset ordered by name and decodes it into out.
func (s *IBGEHTTPSource) getJSON(ctx context.Context, dataset locality.Dataset, out any) error {
	url := fmt.Sprintf("%s/%s?orderBy=nome", s.baseURL, dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status for %s: %d %s", dataset, resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s JSON: %w", dataset, err)
	}
	return nil
}

// FetchUFs retrieves every state.
func (s *IBGEHTTPSource) FetchUFs(ctx context.Context) ([]locality.UF, error) {
	var raw []ibgeUF
	if err := s.getJSON(ctx, locality.DatasetUFs, &raw); err != nil {
		return nil, err
	}
	ufs := make([]locality.UF, 0, len(raw))
	for _, r := range raw {
		ufs = append(ufs, r.toUF())
	}
	return ufs, nil
}

// FetchMesoregions retrieves every mesoregion.
func (s *IBGEHTTPSource) FetchMesoregions(ctx context.Context) ([]locality.Mesoregion, error) {
	var raw []ibgeMesoregion
	if err := s.getJSON(ctx, locality.DatasetMesoregions, &raw); err != nil {
		return nil, err
	}
	out := make([]locality.Mesoregion, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toMesoregion())
	}
	return out, nil
}

// FetchMicroregions retrieves every microregion.
func (s *IBGEHTTPSource) FetchMicroregions(ctx context.Context) ([]locality.Microregion, error) {
	var raw []ibgeMicroregion
	if err := s.getJSON(ctx, locality.DatasetMicroregions, &raw); err != nil {
		return nil, err
	}
	out := make([]locality.Microregion, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toMicroregion())
	}
	return out, nil
}

// FetchMunicipalities retrieves every municipality.
//
// Municipalities created after the 2017 regional division come without a
// microregion; their state is then taken from the immediate region.
func (s *IBGEHTTPSource) FetchMunicipalities(ctx context.Context) ([]locality.Municipality, error) {
	var raw []ibgeMunicipality
	if err := s.getJSON(ctx, locality.DatasetMunicipios, &raw); err != nil {
		return nil, err
	}
	out := make([]locality.Municipality, 0, len(raw))
	for _, r := range raw {
		m := locality.Municipality{ID: r.ID, Name: r.Name}
		switch {
		case r.Microregion != nil:
			m.Microregion = r.Microregion.toMicroregion()
		case r.ImmediateRegion != nil && r.ImmediateRegion.IntermediateRegion != nil:
			m.Microregion.Mesoregion.UF = r.ImmediateRegion.IntermediateRegion.UF.toUF()
		default:
			return nil, fmt.Errorf("municipality %d (%s) has no region hierarchy", r.ID, r.Name)
		}
		out = append(out, m)
	}
	return out, nil
}

// IBGE API response shapes.

type ibgeRegion struct {
	ID      int    `json:"id"`
	Acronym string `json:"sigla"`
	Name    string `json:"nome"`
}

type ibgeUF struct {
	ID      int        `json:"id"`
	Acronym string     `json:"sigla"`
	Name    string     `json:"nome"`
	Region  ibgeRegion `json:"regiao"`
}

func (r ibgeUF) toUF() locality.UF {
	return locality.UF{
		ID:      r.ID,
		Acronym: r.Acronym,
		Name:    r.Name,
		Region:  locality.Region{ID: r.Region.ID, Acronym: r.Region.Acronym, Name: r.Region.Name},
	}
}

type ibgeMesoregion struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
	UF   ibgeUF `json:"UF"`
}

func (r ibgeMesoregion) toMesoregion() locality.Mesoregion {
	return locality.Mesoregion{ID: r.ID, Name: r.Name, UF: r.UF.toUF()}
}

type ibgeMicroregion struct {
	ID         int            `json:"id"`
	Name       string         `json:"nome"`
	Mesoregion ibgeMesoregion `json:"mesorregiao"`
}

func (r ibgeMicroregion) toMicroregion() locality.Microregion {
	return locality.Microregion{ID: r.ID, Name: r.Name, Mesoregion: r.Mesoregion.toMesoregion()}
}

type ibgeIntermediateRegion struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
	UF   ibgeUF `json:"UF"`
}

type ibgeImmediateRegion struct {
	ID                 int                     `json:"id"`
	Name               string                  `json:"nome"`
	IntermediateRegion *ibgeIntermediateRegion `json:"regiao-intermediaria"`
}

type ibgeMunicipality struct {
	ID              int64                `json:"id"`
	Name            string               `json:"nome"`
	Microregion     *ibgeMicroregion     `json:"microrregiao"`
	ImmediateRegion *ibgeImmediateRegion `json:"regiao-imediata"`
}
