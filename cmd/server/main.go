package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ChatImproVR/particle-life/internal/api"
	"github.com/ChatImproVR/particle-life/internal/config"
	"github.com/ChatImproVR/particle-life/internal/render"
	"github.com/ChatImproVR/particle-life/internal/sim"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	appConfig := config.Load()
	simCfg := appConfig.Simulation
	videoCfg := appConfig.Video
	serverCfg := appConfig.Server

	// Seed 0 means "fresh run": derive one so each launch differs but
	// the chosen seed is still logged and repeatable.
	seed := simCfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Printf("seed: %d", seed)
	log.Printf("config: %d particles, %d types, %d TPS, integrator=%s",
		simCfg.Particles, simCfg.Types, simCfg.TickRate, simCfg.Integrator)

	rules := sim.RandomConfig(sim.NewSeededRand(seed), simCfg.Types)

	engine, err := sim.NewEngine(sim.EngineConfig{
		TickRate:    simCfg.TickRate,
		Particles:   simCfg.Particles,
		SpawnRadius: simCfg.SpawnRadius,
		Seed:        seed,
		Sim:         rules,
		Params:      simCfg.Params,
		Integrator:  simCfg.Integrator,
	})
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}
	engine.OnTick = api.ObserveTick

	renderOpts := render.DefaultOptions(videoCfg.Width, videoCfg.Height)
	renderOpts.DrawGrid = videoCfg.DrawGrid
	renderer := render.NewRenderer(renderOpts)

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		api.StartDebugServer("127.0.0.1:6060")
	}

	engine.Start()

	server := api.NewServer(api.ServerOptions{
		Addr:     serverCfg.Addr(),
		Engine:   engine,
		Renderer: renderer,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	log.Println("ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	engine.Stop()
}
