// Command web serves the read-side panel API over the consolidated sector
// document.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"finpanel/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(app.Options{})
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
