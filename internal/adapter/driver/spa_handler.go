package driver

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const (
	spaIndex           = "index.html"
	cacheImmutable     = "public, max-age=31536000, immutable"
	cacheRevalidate    = "no-cache"
	hashedAssetsPrefix = "assets/"
)

// SPAHandler serves the front-end build. Paths without an extension that do
// not name a file get index.html so the client router can take over.
type SPAHandler struct {
	fsys fs.FS
}

// NewSPAHandler creates a new handler that serves the SPA from the given filesystem.
func NewSPAHandler(fsys fs.FS) *SPAHandler {
	return &SPAHandler{fsys: fsys}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	name, ok := h.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if policy := cachePolicy(name); policy != "" {
		w.Header().Set("Cache-Control", policy)
	}
	http.ServeFileFS(w, r, h.fsys, name)
}

// resolve maps a request path to the file to serve. ok is false for a
// missing asset.
func (h *SPAHandler) resolve(urlPath string) (name string, ok bool) {
	name = strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		return spaIndex, true
	}
	if info, err := fs.Stat(h.fsys, name); err == nil && !info.IsDir() {
		return name, true
	}
	if path.Ext(name) != "" {
		return "", false
	}
	return spaIndex, true
}

// cachePolicy lets browsers keep content-hashed bundles forever while the
// entry page is always revalidated.
func cachePolicy(name string) string {
	switch {
	case strings.HasPrefix(name, hashedAssetsPrefix):
		return cacheImmutable
	case name == spaIndex:
		return cacheRevalidate
	}
	return ""
}
