package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/api/i"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Router manages the HTTP server and its dependencies.
type Router struct {
	addr        string
	baseURLs    []string
	controllers []i.Controller
	middlewares []gin.HandlerFunc
}

// Config holds configuration settings for creating a new Router instance.
type Config struct {
	Addr        string   // Address to listen on
	BaseURLs    []string // Every controller is mounted under each of these
	Controllers []i.Controller
	Middlewares []gin.HandlerFunc
}

// NewRouter creates a new Router instance with the given configuration.
// With no base URLs the controllers are mounted at the root.
func NewRouter(config Config) *Router {
	baseURLs := config.BaseURLs
	if len(baseURLs) == 0 {
		baseURLs = []string{"/"}
	}
	return &Router{
		addr:        config.Addr,
		baseURLs:    baseURLs,
		controllers: config.Controllers,
		middlewares: config.Middlewares,
	}
}

// Handler builds the gin engine with every route registered.
func (r *Router) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(r.middlewares...)

	for _, base := range r.baseURLs {
		group := router.Group(base)
		for _, c := range r.controllers {
			c.Register(group)
		}
	}

	return router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (r *Router) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              r.addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
