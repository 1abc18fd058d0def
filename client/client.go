// Package client is a Go client for the census explorer HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the address the server listens on by default.
const DefaultBaseURL = "http://127.0.0.1:8080"

const defaultTimeout = 30 * time.Second

// Institution is a census record as returned by the API.
type Institution struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"nome"`
	Municipality         string `json:"municipio"`
	UFCode               int    `json:"uf_codigo"`
	UFName               string `json:"uf_nome"`
	UFAcronym            string `json:"uf_sigla"`
	InfantEnrollment     *int   `json:"qt_mat_inf"`
	ElementaryEnrollment *int   `json:"qt_mat_fund"`
	Year                 int    `json:"ano"`
}

// Input returns the full create/update payload describing inst.
func (inst Institution) Input() InstitutionInput {
	in := InstitutionInput{
		ID:           &inst.ID,
		Name:         &inst.Name,
		Municipality: &inst.Municipality,
		UFCode:       &inst.UFCode,
		UFName:       &inst.UFName,
		UFAcronym:    &inst.UFAcronym,
		Year:         &inst.Year,
	}
	if inst.InfantEnrollment != nil {
		v := *inst.InfantEnrollment
		in.InfantEnrollment = &v
	}
	if inst.ElementaryEnrollment != nil {
		v := *inst.ElementaryEnrollment
		in.ElementaryEnrollment = &v
	}
	return in
}

// InstitutionInput is the body of create and update calls. Nil fields are
// not sent, which leaves them unchanged on update.
type InstitutionInput struct {
	ID                   *int64  `json:"CO_ENTIDADE,omitempty"`
	Name                 *string `json:"NO_ENTIDADE,omitempty"`
	Municipality         *string `json:"NO_MUNICIPIO,omitempty"`
	UFCode               *int    `json:"CO_UF,omitempty"`
	UFName               *string `json:"NO_UF,omitempty"`
	UFAcronym            *string `json:"SG_UF,omitempty"`
	InfantEnrollment     *int    `json:"QT_MAT_INF,omitempty"`
	ElementaryEnrollment *int    `json:"QT_MAT_FUND,omitempty"`
	Year                 *int    `json:"ano,omitempty"`
}

// Pagination describes where a page sits in a listing.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Page is one page of a state's records.
type Page struct {
	Items      []Institution `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// ListOptions narrows a listing. Zero values use the server defaults.
type ListOptions struct {
	Year    int
	Search  string
	Page    int
	PerPage int
}

// Region is a macro region reference.
type Region struct {
	ID      int    `json:"id"`
	Name    string `json:"nome"`
	Acronym string `json:"sigla,omitempty"`
}

// UF is a federative unit.
type UF struct {
	ID      int    `json:"id"`
	Acronym string `json:"sigla"`
	Name    string `json:"nome"`
	Region  Region `json:"regiao"`
}

// UFStats aggregates the records of one state.
type UFStats struct {
	UF                   string `json:"uf"`
	Institutions         int    `json:"instituicoes"`
	BasicEnrollment      int64  `json:"qt_mat_bas"`
	InfantEnrollment     int64  `json:"qt_mat_inf"`
	ElementaryEnrollment int64  `json:"qt_mat_fund"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

// Error renders the message followed by the per-field details, one line
// per field in field order.
func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}

	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(e.Message)
	b.WriteString("\n\nDetalhes:")
	for _, f := range fields {
		fmt.Fprintf(&b, "\n- %s: %s", f, strings.Join(e.Errors[f], ", "))
	}
	return b.String()
}

// Client calls the API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL. An empty baseURL uses
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListInstitutions returns one page of the records of a state.
func (c *Client) ListInstitutions(ctx context.Context, uf string, opts ListOptions) (Page, error) {
	q := url.Values{}
	q.Set("uf", uf)
	if opts.Year != 0 {
		q.Set("ano", strconv.Itoa(opts.Year))
	}
	if opts.Search != "" {
		q.Set("q", opts.Search)
	}
	if opts.Page != 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage != 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	var page Page
	err := c.do(ctx, http.MethodGet, "/api/instituicoes?"+q.Encode(), nil, &page)
	return page, err
}

// GetInstitution returns the record with the given key.
func (c *Client) GetInstitution(ctx context.Context, id int64, year int) (Institution, error) {
	var inst Institution
	err := c.do(ctx, http.MethodGet, recordPath(id, year), nil, &inst)
	return inst, err
}

// CreateInstitution creates a record and returns it as stored.
func (c *Client) CreateInstitution(ctx context.Context, in InstitutionInput) (Institution, error) {
	var inst Institution
	err := c.do(ctx, http.MethodPost, "/api/instituicoes", in, &inst)
	return inst, err
}

// UpdateInstitution applies the non-nil fields of in to a record.
func (c *Client) UpdateInstitution(ctx context.Context, id int64, year int, in InstitutionInput) (Institution, error) {
	var inst Institution
	err := c.do(ctx, http.MethodPut, recordPath(id, year), in, &inst)
	return inst, err
}

// DeleteInstitution removes a record.
func (c *Client) DeleteInstitution(ctx context.Context, id int64, year int) error {
	return c.do(ctx, http.MethodDelete, recordPath(id, year), nil, nil)
}

// ListUFs returns the federative units.
func (c *Client) ListUFs(ctx context.Context) ([]UF, error) {
	var ufs []UF
	err := c.do(ctx, http.MethodGet, "/api/ufs", nil, &ufs)
	return ufs, err
}

// Stats returns per-state aggregates. Year zero aggregates every year.
func (c *Client) Stats(ctx context.Context, year int) ([]UFStats, error) {
	path := "/api/estatisticas"
	if year != 0 {
		path += "?ano=" + strconv.Itoa(year)
	}
	var stats []UFStats
	err := c.do(ctx, http.MethodGet, path, nil, &stats)
	return stats, err
}

func recordPath(id int64, year int) string {
	return fmt.Sprintf("/api/instituicoes/%d/%d", id, year)
}

// do sends a JSON request and decodes a JSON response into out.
// A 204 response leaves out untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		apiErr.Message = "Erro desconhecido no servidor"
		return apiErr
	}

	apiErr.Message = body.Message
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	}
	apiErr.Errors = body.Errors
	return apiErr
}
