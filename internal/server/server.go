// Package server exposes the Quire HTTP API: chat turns (plain and
// streaming), document registration, transcript export and feedback.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/quire/internal/chat"
	"github.com/zulandar/quire/internal/extract"
	"github.com/zulandar/quire/internal/notify"
	"github.com/zulandar/quire/internal/store"
)

// Deps holds the collaborators the API handlers need.
type Deps struct {
	Store        *store.Store
	Orchestrator *chat.Orchestrator
	Auth         Authenticator
	Fetcher      chat.Fetcher
	Extractor    extract.Extractor
	Notifier     notify.Notifier

	// MaxPages caps the page count accepted at document registration.
	// Zero disables the check.
	MaxPages int

	// StreamByDefault selects SSE delivery when a chat request does not
	// say either way.
	StreamByDefault bool
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Deps Deps
	Port int
	Out  io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Deps.Store == nil {
		return fmt.Errorf("server: store is required")
	}
	if opts.Deps.Orchestrator == nil {
		return fmt.Errorf("server: orchestrator is required")
	}
	if opts.Deps.Auth == nil {
		return fmt.Errorf("server: authenticator is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.Deps)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Quire API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with all routes registered. Split out of
// Start so tests can drive handlers without binding a port.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, deps)
	return router
}
