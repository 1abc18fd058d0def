package driver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndex = "<html><body>Censo Escolar</body></html>"

func TestSPAHandler(t *testing.T) {
	build := fstest.MapFS{
		"index.html":              {Data: []byte(testIndex)},
		"assets/index.9f8e7d.js":  {Data: []byte("mount('#app')")},
		"assets/index.1a2b3c.css": {Data: []byte("#map{height:100%}")},
		"favicon.ico":             {Data: []byte("icon")},
	}
	handler := NewSPAHandler(build)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
		wantCache  string
	}{
		{"root serves index", http.MethodGet, "/", http.StatusOK, testIndex, "no-cache"},
		{"hashed bundle", http.MethodGet, "/assets/index.9f8e7d.js", http.StatusOK, "mount('#app')", "public, max-age=31536000, immutable"},
		{"stylesheet", http.MethodGet, "/assets/index.1a2b3c.css", http.StatusOK, "#map{height:100%}", "public, max-age=31536000, immutable"},
		{"plain file has no cache policy", http.MethodGet, "/favicon.ico", http.StatusOK, "icon", ""},
		{"client route falls back", http.MethodGet, "/instituicoes/35", http.StatusOK, testIndex, "no-cache"},
		{"directory falls back", http.MethodGet, "/assets", http.StatusOK, testIndex, "no-cache"},
		{"missing asset", http.MethodGet, "/assets/gone.js", http.StatusNotFound, "", ""},
		{"writes rejected", http.MethodPost, "/", http.StatusMethodNotAllowed, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			assert.Equal(t, tt.wantCache, rec.Header().Get("Cache-Control"))
		})
	}
}

func TestSPAHandler_HeadHasNoBody(t *testing.T) {
	handler := NewSPAHandler(fstest.MapFS{"index.html": {Data: []byte(testIndex)}})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/mapa", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSPADevProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("vite:" + r.URL.Path))
	}))
	defer upstream.Close()

	proxy, err := NewSPADevProxy(upstream.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/src/main.ts", nil))
	assert.Equal(t, "vite:/src/main.ts", rec.Body.String())

	_, err = NewSPADevProxy("localhost")
	assert.Error(t, err)
}

func TestSPADevProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	proxy, err := NewSPADevProxy(target)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
