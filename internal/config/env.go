package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/zqshi/metricstd/internal/logfields"
)

// envFiles are tried in order. Variables already in the environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the .env files found in dir.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
	}
}

func warnf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...))
}
