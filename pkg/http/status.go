package xhttp

import "net/http"

// Status codes re-exported so callers of this package do not need a
// second http import alongside fasthttp.
const (
	StatusOK                  = http.StatusOK
	StatusNotFound            = http.StatusNotFound
	StatusRequestTimeout      = http.StatusRequestTimeout
	StatusInternalServerError = http.StatusInternalServerError
)

func StatusText(code int) string {
	return http.StatusText(code)
}
