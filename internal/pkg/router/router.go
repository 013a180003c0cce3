package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/loginguard/internal/pkg/config"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/jwt"
	"github.com/shandysiswandi/loginguard/internal/pkg/uid"
)

// Handler returns a payload rendered in the success envelope, or an error
// rendered in the error envelope.
type Handler func(r *Request) (any, error)

type Config struct {
	// Config provides the app.server and instrument keys read by middlewares.
	Config config.Config
	// UUID mints correlation ids for requests that arrive without one.
	UUID uid.StringID
	// JWT verifies bearer tokens on non public routes.
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

// RouteOption adjusts a single route registration.
type RouteOption func(*route)

type route struct {
	public bool
	mws    []Middleware
}

// Public skips bearer authentication for the route.
func Public() RouteOption {
	return func(rt *route) { rt.public = true }
}

// With appends route specific middlewares after the shared chain.
func With(mws ...Middleware) RouteOption {
	return func(rt *route) { rt.mws = append(rt.mws, mws...) }
}

// Router serves JSON endpoints over httprouter. Every route runs the shared
// chain (recover, client ip, correlation id, observability), then
// maintenance and authentication unless the route opts out.
type Router struct {
	hr          *httprouter.Router
	shared      []Middleware
	maintenance Middleware
	auth        Middleware
}

func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	ro := &Router{
		hr: hr,
		shared: []Middleware{
			middlewareRecoverer,
			middlewareClientIP(trustedProxies(cfg.Config)),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
		},
		maintenance: middlewareMaintenance(cfg.Config),
		auth:        middlewareAuthentication(cfg.JWT),
	}

	ro.Raw(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "Welcome to LoginGuard API"}, http.StatusOK)
	}), Public())

	return ro
}

func (r *Router) GET(path string, h Handler, opts ...RouteOption) {
	r.Handle(http.MethodGet, path, h, opts...)
}

func (r *Router) POST(path string, h Handler, opts ...RouteOption) {
	r.Handle(http.MethodPost, path, h, opts...)
}

func (r *Router) DELETE(path string, h Handler, opts ...RouteOption) {
	r.Handle(http.MethodDelete, path, h, opts...)
}

// Handle registers an enveloped JSON endpoint.
func (r *Router) Handle(method, path string, h Handler, opts ...RouteOption) {
	endpoint := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(*responseRecorder); ok {
				rec.err = err
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})

	r.hr.Handler(method, path, r.chain(endpoint, true, opts))
}

// Raw registers a handler that writes its own response. Maintenance mode
// does not apply to raw routes.
func (r *Router) Raw(method, path string, h http.Handler, opts ...RouteOption) {
	r.hr.Handler(method, path, r.chain(h, false, opts))
}

func (r *Router) chain(h http.Handler, maintenance bool, opts []RouteOption) http.Handler {
	var rt route
	for _, opt := range opts {
		opt(&rt)
	}

	mws := append([]Middleware{}, r.shared...)
	if maintenance {
		mws = append(mws, r.maintenance)
	}
	if !rt.public {
		mws = append(mws, r.auth)
	}

	return Chain(h, append(mws, rt.mws...)...)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func routePattern(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}
