package service

import (
	"context"
	"net/http"

	"github.com/rs/cors"
)

// ContentServer serves the test tree read-only to the browser under test.
// Files are opened per request and closed immediately, so concurrent reads
// need no locking.
type ContentServer struct {
	Root string

	ctx    context.Context
	server *http.Server
}

func (c *ContentServer) Start(ctx context.Context, addr string) error {
	hdlr := http.FileServer(http.Dir(c.Root))
	cr := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	server := &http.Server{
		Handler: cr.Handler(hdlr),
		Addr:    addr,
	}
	c.server = server
	c.ctx = ctx
	return c.server.ListenAndServe()
}

func (c *ContentServer) Shutdown() error {
	return c.server.Shutdown(c.ctx)
}
