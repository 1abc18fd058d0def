package driver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

const msgDevServerDown = "Servidor de desenvolvimento do front-end indisponível."

// SPADevProxy hands every front-end request to a running Vite server so hot
// module replacement works while the API is served by this process.
type SPADevProxy struct {
	rp *httputil.ReverseProxy
}

// NewSPADevProxy proxies to target, e.g. "http://localhost:5173".
func NewSPADevProxy(target string) (*SPADevProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid dev server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid dev server URL %q: scheme and host are required", target)
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("dev server unreachable", "target", u.String(), "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, msgDevServerDown)
	}
	return &SPADevProxy{rp: rp}, nil
}

func (p *SPADevProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}
