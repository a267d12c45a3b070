// Package api serves generated schema documents over HTTP.
//
//	GET /healthz
//	GET /v1/collections
//	GET /v1/collections/{name}
//	GET /v1/indexes
//	GET /v1/indexes/{name}
//
// Document endpoints accept ?format=json|yaml|msgpack. With a store
// configured, ?version=N returns a stored version instead of building the
// document from the registry.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemagen/internal/processor"
	"github.com/conduit-lang/schemagen/internal/schema"
	"github.com/conduit-lang/schemagen/internal/store"
	"github.com/conduit-lang/schemagen/internal/web/auth"
)

// ReadScope is the token scope required when authentication is enabled
const ReadScope = "schemas:read"

// API holds the dependencies of the HTTP handlers
type API struct {
	registry  *schema.Registry
	processor *processor.Processor
	store     store.Store
	auth      *auth.AuthService
	logger    *zap.Logger
	timeout   time.Duration
}

// Option configures an API
type Option func(*API)

// WithStore enables versioned lookups from s
func WithStore(s store.Store) Option {
	return func(a *API) { a.store = s }
}

// WithAuth requires a bearer token with ReadScope on every /v1 route
func WithAuth(service *auth.AuthService) Option {
	return func(a *API) { a.auth = service }
}

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTimeout bounds the time spent on a single request
func WithTimeout(d time.Duration) Option {
	return func(a *API) { a.timeout = d }
}

// New creates the API over a sealed registry
func New(registry *schema.Registry, proc *processor.Processor, opts ...Option) *API {
	a := &API{
		registry:  registry,
		processor: proc,
		logger:    zap.NewNop(),
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the routed HTTP handler
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(a.logger))
	r.Use(chimiddleware.Recoverer)
	if a.timeout > 0 {
		r.Use(chimiddleware.Timeout(a.timeout))
	}

	r.Get("/healthz", a.health)

	r.Route("/v1", func(r chi.Router) {
		if a.auth != nil {
			r.Use(auth.Middleware(a.auth, ReadScope))
		}
		r.Get("/collections", a.listDocuments(schema.KindCollection))
		r.Get("/collections/{name}", a.showDocument(schema.KindCollection))
		r.Get("/indexes", a.listDocuments(schema.KindIndex))
		r.Get("/indexes/{name}", a.showDocument(schema.KindIndex))
	})

	return r
}
