package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ChatImproVR/particle-life/internal/render"
	"github.com/ChatImproVR/particle-life/internal/sim"
)

// BroadcastFPS is the rate at which snapshots are pushed to WebSocket
// viewers. Decoupled from the engine tick rate so the simulation can
// run faster than the wire.
const BroadcastFPS = 30

// ServerOptions configures the API server.
type ServerOptions struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string

	// Engine is the simulation engine (required).
	Engine *sim.Engine

	// Renderer draws /api/frame.png. Optional.
	Renderer *render.Renderer

	// CORSOrigins overrides the allowed browser origins.
	CORSOrigins []string
}

// Server bundles the HTTP router with the WebSocket snapshot feed.
type Server struct {
	opts       ServerOptions
	hub        *WebSocketHub
	httpServer *http.Server
	stopChan   chan struct{}
}

// NewServer builds the server but does not listen; call Start.
func NewServer(opts ServerOptions) *Server {
	hub := NewWebSocketHub()
	router := NewRouter(RouterConfig{
		Engine:      opts.Engine,
		Renderer:    opts.Renderer,
		Hub:         hub,
		CORSOrigins: opts.CORSOrigins,
	})
	return &Server{
		opts: opts,
		hub:  hub,
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		stopChan: make(chan struct{}),
	}
}

// Start runs the hub, the snapshot broadcaster, and the HTTP listener.
// Blocks until the listener exits.
func (s *Server) Start() error {
	go s.hub.Run()
	go s.broadcastLoop()

	log.Printf("api server listening on %s", s.opts.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops the broadcaster, closes viewer connections, and
// drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopChan)
	s.hub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// broadcastLoop pushes each new snapshot to the hub at BroadcastFPS.
// Frames are skipped when the engine has not ticked since the last
// push, so paused simulations stay quiet on the wire.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(time.Second / BroadcastFPS)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ticker.C:
			if s.hub.ClientCount() == 0 {
				continue
			}
			snap := s.opts.Engine.Snapshot()
			if snap == nil || snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			msg, err := EncodeSnapshot(snap)
			if err != nil {
				log.Printf("snapshot encode failed: %v", err)
				continue
			}
			s.hub.Broadcast(msg)
		case <-s.stopChan:
			return
		}
	}
}
