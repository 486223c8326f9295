package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/agenthands/recall/internal/config"
	"github.com/agenthands/recall/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Warn("Could not load config file, starting from empty config", "path", cfgPath, "err", err)
		cfg = &config.Config{}
	}
	cfg.ApplyEnv()

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize server", "err", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	r := srv.SetupRouter()
	log.Info("Starting server", "port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server exited", "err", err)
	}
}
