//go:build dev

package main

import (
	"net/http"
	"os"

	"github.com/alorle/censo-escolar/internal/adapter/driver"
)

// newSPAHandler proxies the front-end to the Vite dev server.
func newSPAHandler(string) (http.Handler, error) {
	target := os.Getenv("VITE_DEV_URL")
	if target == "" {
		target = "http://localhost:5173"
	}
	return driver.NewSPADevProxy(target)
}
