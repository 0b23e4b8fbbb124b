package api

import (
	"encoding/json"
	"net/http"

	"github.com/ChatImproVR/particle-life/internal/sim"
)

// Wire DTOs. The simulation core stays free of JSON concerns; field
// names here are the stable external vocabulary.

type behaviourDTO struct {
	DefaultRepulse float64 `json:"default_repulse"`
	InterThreshold float64 `json:"inter_threshold"`
	InterStrength  float64 `json:"inter_strength"`
	InterMaxDist   float64 `json:"inter_max_dist"`
}

type configDTO struct {
	Colors     [][3]float64   `json:"colors"`
	Behaviours []behaviourDTO `json:"behaviours"`
}

type paramsDTO struct {
	Dt          float64 `json:"dt"`
	Damping     float64 `json:"damping"`
	MaxSteps    int     `json:"max_steps"`
	Temperature float64 `json:"temperature"`
	WalkSigma   float64 `json:"walk_sigma"`
	Substeps    int     `json:"substeps"`
}

func configToDTO(cfg *sim.SimConfig) configDTO {
	dto := configDTO{
		Colors:     make([][3]float64, len(cfg.Colors)),
		Behaviours: make([]behaviourDTO, len(cfg.Behaviours)),
	}
	for i, c := range cfg.Colors {
		dto.Colors[i] = c
	}
	for i, b := range cfg.Behaviours {
		dto.Behaviours[i] = behaviourDTO{
			DefaultRepulse: b.DefaultRepulse,
			InterThreshold: b.InterThreshold,
			InterStrength:  b.InterStrength,
			InterMaxDist:   b.InterMaxDist,
		}
	}
	return dto
}

func configFromDTO(dto configDTO) *sim.SimConfig {
	cfg := &sim.SimConfig{
		Colors:     make([]sim.RGB, len(dto.Colors)),
		Behaviours: make([]sim.Behaviour, len(dto.Behaviours)),
	}
	for i, c := range dto.Colors {
		cfg.Colors[i] = c
	}
	for i, b := range dto.Behaviours {
		cfg.Behaviours[i] = sim.Behaviour{
			DefaultRepulse: b.DefaultRepulse,
			InterThreshold: b.InterThreshold,
			InterStrength:  b.InterStrength,
			InterMaxDist:   b.InterMaxDist,
		}
	}
	return cfg
}

// handleGetState returns positions and types for drawing, plus frame
// bookkeeping. Read from the lock-free snapshot; polling never contends
// with the tick loop.
func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	positions := make([][3]float64, len(snap.Positions))
	for i, p := range snap.Positions {
		positions[i] = [3]float64{p.X, p.Y, p.Z}
	}

	writeJSON(w, map[string]any{
		"tick":           snap.Tick,
		"integrator":     snap.Integrator.String(),
		"paused":         h.engine.Paused(),
		"particle_count": len(snap.Positions),
		"positions":      positions,
		"types":          snap.Types,
	})
}

// handleGetTiles exposes the spatial index buckets for the debug
// wireframe, colored by occupancy client-side.
func (h *routerHandlers) handleGetTiles(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	tiles := make([]map[string]any, len(snap.Tiles))
	for i, t := range snap.Tiles {
		tiles[i] = map[string]any{
			"cell":  [3]int32{t.Cell[0], t.Cell[1], t.Cell[2]},
			"count": t.Count,
		}
	}

	writeJSON(w, map[string]any{
		"radius": snap.Radius,
		"tiles":  tiles,
	})
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	writeJSON(w, map[string]any{
		"tick":            h.engine.TickCount(),
		"seed":            h.engine.Seed(),
		"integrator":      h.engine.Integrator().String(),
		"paused":          h.engine.Paused(),
		"particle_count":  len(snap.Positions),
		"nonempty_cells":  snap.GridStats.NonEmptyCells,
		"deepest_bucket":  snap.GridStats.DeepestBucket,
		"avg_bucket_size": snap.GridStats.AvgPerCell,
	})
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "renderer not configured", http.StatusNotFound)
		return
	}

	h.renderMu.Lock()
	defer h.renderMu.Unlock()

	w.Header().Set("Content-Type", "image/png")
	if err := h.renderer.EncodePNG(w, h.engine.Snapshot()); err != nil {
		// Headers already sent; nothing to do but log via middleware.
		return
	}
}

func (h *routerHandlers) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, configToDTO(h.engine.SimConfig()))
}

// handlePutConfig replaces the behaviour matrix. Invalid coefficients
// (threshold >= max dist) are rejected here, never discovered
// mid-simulation as NaN.
func (h *routerHandlers) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var dto configDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.engine.UpdateSimConfig(configFromDTO(dto)); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleRandomize(w http.ResponseWriter, r *http.Request) {
	h.engine.RandomizeRules()
	writeJSON(w, configToDTO(h.engine.SimConfig()))
}

func (h *routerHandlers) handleGetParams(w http.ResponseWriter, r *http.Request) {
	p := h.engine.Params()
	writeJSON(w, paramsDTO{
		Dt:          p.Newton.Dt,
		Damping:     p.Newton.Damping,
		MaxSteps:    p.Schedule.MaxSteps,
		Temperature: p.MonteCarlo.Temperature,
		WalkSigma:   p.MonteCarlo.WalkSigma,
		Substeps:    p.MonteCarlo.Substeps,
	})
}

func (h *routerHandlers) handlePutParams(w http.ResponseWriter, r *http.Request) {
	var dto paramsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p := h.engine.Params()
	if dto.Dt > 0 {
		p.Newton.Dt = dto.Dt
		p.Schedule.FrameDt = dto.Dt
	}
	if dto.Damping >= 0 && dto.Damping < 1 {
		p.Newton.Damping = dto.Damping
		p.Schedule.Damping = dto.Damping
	}
	if dto.MaxSteps != 0 {
		p.Schedule.MaxSteps = dto.MaxSteps
	}
	if dto.Temperature > 0 {
		p.MonteCarlo.Temperature = dto.Temperature
	}
	if dto.WalkSigma > 0 {
		p.MonteCarlo.WalkSigma = dto.WalkSigma
	}
	if dto.Substeps != 0 {
		p.MonteCarlo.Substeps = dto.Substeps
	}

	if err := h.engine.SetParams(p); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleSetIntegrator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Integrator string `json:"integrator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	in, err := sim.ParseIntegrator(req.Integrator)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.engine.SetIntegrator(in)
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.engine.SetPaused(req.Paused)
	writeJSON(w, map[string]bool{"paused": req.Paused})
}

func (h *routerHandlers) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count       int     `json:"count"`
		SpawnRadius float64 `json:"spawn_radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.engine.Reset(req.Count, req.SpawnRadius); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
