package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"meridianbank.org/internal/auth"
	"meridianbank.org/internal/obs"
)

// ReadyProbe reports whether the backing store is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP transport adapter. It extracts bearer tokens, asks the
// token authority to validate them, and gates protected handlers by role
// before dispatching into the auth service.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	tokens     *auth.Authority
	readyProbe ReadyProbe
	limiter    *LoginLimiter
	rateBurst  int
	ratePerSec int
	version    string
}

// Option configures the API.
type Option func(*API)

// WithReadyProbe wires the readiness check.
func WithReadyProbe(rp ReadyProbe) Option {
	return func(a *API) { a.readyProbe = rp }
}

// WithLoginLimiter enables per-email login throttling.
func WithLoginLimiter(l *LoginLimiter) Option {
	return func(a *API) { a.limiter = l }
}

// WithRateLimit overrides the per-IP token bucket parameters.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst = burst
			a.ratePerSec = perSecond
		}
	}
}

// WithVersion sets the version reported by /v1/info.
func WithVersion(version string) Option {
	return func(a *API) { a.version = version }
}

// New wires the route table.
func New(svc *auth.Service, tokens *auth.Authority, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		tokens:     tokens,
		rateBurst:  20,
		ratePerSec: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)
	a.mux.Handle("/v1/users/", RequireRole(auth.RoleAdmin)(http.HandlerFunc(a.handleUserRole)))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully composed middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	// The IP bucket backstops brute force even when the redis login limiter
	// is not configured.
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = RequestID(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "meridian-auth",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "meridian-auth",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
