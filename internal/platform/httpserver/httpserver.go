// Package httpserver constructs the process's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the handler in an http.Server with conservative timeouts.
// ReadHeaderTimeout bounds slow-header clients; IdleTimeout reclaims
// keep-alive connections that verification clients leave behind.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
