package api

import (
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ChatImproVR/particle-life/internal/render"
	"github.com/ChatImproVR/particle-life/internal/sim"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the full
// tick loop. Keep this minimal - only include methods the API layer
// actually calls.
type EngineInterface interface {
	// Snapshot returns the latest lock-free immutable snapshot.
	Snapshot() *sim.Snapshot
	// SimConfig returns the live behaviour config (read-only).
	SimConfig() *sim.SimConfig
	// UpdateSimConfig swaps the behaviour config, rebuilding the index
	// if the interaction radius changed.
	UpdateSimConfig(cfg *sim.SimConfig) error
	// Params returns the current integrator tuning.
	Params() sim.StepParams
	// SetParams swaps the integrator tuning after validation.
	SetParams(p sim.StepParams) error
	// Integrator returns the selected stepping scheme.
	Integrator() sim.Integrator
	// SetIntegrator switches the stepping scheme.
	SetIntegrator(in sim.Integrator)
	// SetPaused suspends or resumes stepping.
	SetPaused(paused bool)
	// Paused reports whether stepping is suspended.
	Paused() bool
	// Reset respawns the population.
	Reset(count int, spawnRadius float64) error
	// RandomizeRules draws a fresh random behaviour matrix.
	RandomizeRules()
	// TickCount returns completed steps since the last reset.
	TickCount() uint64
	// Seed returns the engine's RNG seed.
	Seed() uint64
}

// RouterConfig contains the dependencies needed to construct the HTTP
// router. Designed for dependency injection: tests pass a mock engine
// and high rate limits, then drive the router with httptest.
type RouterConfig struct {
	// Engine is the simulation engine (required).
	Engine EngineInterface

	// Renderer draws /api/frame.png. Optional; if nil the endpoint
	// returns 404.
	Renderer *render.Renderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is used only when RateLimiter is nil. If both
	// are nil, DefaultRateLimitConfig applies.
	RateLimitConfig *RateLimitConfig

	// Hub serves /ws snapshot streaming. Optional; if nil the
	// endpoint is not registered.
	Hub *WebSocketHub

	// CORSOrigins overrides the allowed CORS origins.
	CORSOrigins []string

	// DisableLogging drops the request logger middleware (benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler dependencies.
type routerHandlers struct {
	engine   EngineInterface
	renderer *render.Renderer
	renderMu sync.Mutex // Renderer reuses its context; serialize frames
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// This function is PURE: no goroutines, no listeners. Safe to hand to
// httptest.NewServer directly.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{engine: cfg.Engine, renderer: cfg.Renderer}

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWS)
	}

	r.Route("/api", func(r chi.Router) {
		// Read access
		r.Get("/state", h.handleGetState)
		r.Get("/tiles", h.handleGetTiles)
		r.Get("/stats", h.handleGetStats)
		r.Get("/frame.png", h.handleGetFrame)

		// Behaviour matrix and palette
		r.Get("/config", h.handleGetConfig)
		r.Put("/config", h.handlePutConfig)
		r.Post("/config/randomize", h.handleRandomize)

		// Integrator control
		r.Get("/params", h.handleGetParams)
		r.Put("/params", h.handlePutParams)
		r.Post("/integrator", h.handleSetIntegrator)

		// Population control
		r.Post("/pause", h.handlePause)
		r.Post("/reset", h.handleReset)
	})

	return r
}
