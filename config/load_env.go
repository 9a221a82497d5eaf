package config

import (
	"log/slog"

	"github.com/subosito/gotenv"
)

// LoadEnv reads config/envs/.env.<env>, then .env. Variables already set in
// the process environment win over both files.
func LoadEnv(env string) {
	envFile := "config/envs/.env." + env
	if err := gotenv.Load(envFile); err != nil {
		slog.Debug("No env file found", slog.String("path", envFile))
	}
	if err := gotenv.Load(".env"); err != nil {
		slog.Debug("No .env file found, using OS environment")
	}
}
