package main

import (
	"log"

	"sourcing-backend/internal/bootstrap"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s (sessions=%s decisions=%s)", addr, cfg.SessionStore, cfg.DecisionProvider)

	if err := app.Router.Run(addr); err != nil {
		log.Printf("server error: %v", err)
	}
}
