//go:build !dev

package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/alorle/censo-escolar/internal/adapter/driver"
)

// newSPAHandler serves the built front-end from dir. A missing build is
// not fatal: the API keeps working and other paths answer 404.
func newSPAHandler(dir string) (http.Handler, error) {
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("front-end build not found, serving the API only", "static_dir", dir, "error", err)
		return nil, nil
	}
	return driver.NewSPAHandler(os.DirFS(dir)), nil
}
