// TagSheet: price tag sheet designer
//
// A desktop application for designing dual-currency (BGN / EUR) price
// labels on perforated sticker sheets and printing them at 1:1 scale on a
// calibrated printer.
//
// Build:
//   go build -o tagsheet ./cmd/tagsheet
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o tagsheet.exe ./cmd/tagsheet
//
// Using fyne-cross (recommended for proper packaging):
//   go install github.com/fyne-io/fyne-cross@latest
//   fyne-cross windows -arch=amd64

package main

import (
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	"github.com/spf13/cobra"

	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/project"
	"github.com/piwi3910/TagSheet/internal/ui"
)

func main() {
	var configDir string
	var debug bool

	cmd := &cobra.Command{
		Use:   "tagsheet",
		Short: "Design and print price tag sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			reg, err := fonts.NewRegistry()
			if err != nil {
				return err
			}
			run(project.Paths{Dir: configDir}, reg)
			return nil
		},
	}
	cmd.Flags().StringVar(&configDir, "config", project.DefaultConfigDir(), "directory holding config, calibration, session and presets")
	cmd.Flags().BoolVar(&debug, "debug", false, "log debug messages")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(paths project.Paths, reg *fonts.Registry) {
	application := app.NewWithID("com.piwi3910.tagsheet")
	window := application.NewWindow("TagSheet - Price Tag Sheets")

	appUI := ui.NewApp(application, window, paths, reg)
	appUI.SetupMenus()
	window.SetContent(fynetooltip.AddWindowToolTipLayer(appUI.Build(), window.Canvas()))
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	slog.Info("starting", "config_dir", paths.Dir)
	window.ShowAndRun()
}
