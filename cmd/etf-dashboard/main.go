package main

import (
	"log/slog"
	"os"

	"etfseasonal/internal/app"
	"etfseasonal/internal/infrastructure"
)

func main() {
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
