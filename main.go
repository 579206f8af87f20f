package main

import (
	"embed"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/sidekey-app/sidekey/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	service := app.New()

	wailsApp := application.New(application.Options{
		Name:        "SideKey",
		Description: "CW keyer and sidetone mixer for video calls",
		Services: []application.Service{
			application.NewService(service),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		OnShutdown: func() {
			service.Shutdown()
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "SideKey",
		Width:  980,
		Height: 700,
		URL:    "/",
	})

	service.Init(wailsApp, mainWindow)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
