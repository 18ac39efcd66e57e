package router

import (
	"net/http"
	"time"
)

// NewServer wraps handler in an http.Server. The onShutdown hooks run as soon
// as Shutdown starts, so they can end long-lived streams Shutdown would
// otherwise wait on.
func NewServer(addr string, handler http.Handler, onShutdown ...func()) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	for _, hook := range onShutdown {
		server.RegisterOnShutdown(hook)
	}
	return server
}
