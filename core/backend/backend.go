package backend

import (
	"github.com/gorilla/mux"

	"github.com/huuvinhnguyen/alocoap/core/csql"
	"github.com/huuvinhnguyen/alocoap/core/logger"
)

// Backend is the common base of a service
type Backend struct {
	db     *csql.DB
	router *mux.Router
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// DB is the database of the service. If set, /health also pings it. This is optional.
	DB *csql.DB
}

// New realizes the actual backend. It installs the middleware and adds the
// operational routes to the router.
func New(bb *Builder) *Backend {
	if bb.Router == nil {
		panic("Router is missing")
	}

	b := &Backend{
		db:     bb.DB,
		router: bb.Router,
	}

	logger.AddRequestID(b.router)
	b.handleCORS()
	b.handleVersion(b.router)
	b.handleHealth(b.router)
	return b
}

// Router returns the mux router of the backend
func (b *Backend) Router() *mux.Router {
	return b.router
}

// DB returns the database of the backend, which may be nil
func (b *Backend) DB() *csql.DB {
	return b.db
}
