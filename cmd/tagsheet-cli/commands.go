package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/TagSheet/internal/editor"
	"github.com/piwi3910/TagSheet/internal/export"
	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/importer"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/printer"
	"github.com/piwi3910/TagSheet/internal/project"
	"github.com/piwi3910/TagSheet/internal/render"
)

// env is the state every command works on, loaded from the config
// directory before the command runs.
type env struct {
	paths       project.Paths
	config      model.AppConfig
	calibration project.CalibrationFile
	session     model.Session
	fonts       *fonts.Registry
}

func loadEnv(dir string) (*env, error) {
	e := &env{paths: project.Paths{Dir: dir}}
	var err error
	if e.config, err = project.LoadAppConfig(e.paths.Config()); err != nil {
		slog.Warn("config unreadable, using defaults", "path", e.paths.Config(), "error", err)
	}
	if e.calibration, err = project.LoadCalibration(e.paths.Calibration()); err != nil {
		slog.Warn("calibration unreadable, using defaults", "path", e.paths.Calibration(), "error", err)
	}
	if e.session, err = project.LoadSession(e.paths.Session()); err != nil {
		slog.Warn("session unreadable, starting blank", "path", e.paths.Session(), "error", err)
	}
	if _, statErr := os.Stat(e.paths.Session()); err != nil || statErr != nil {
		e.session.Mode = e.config.DefaultMode
		e.session.ExchangeRate = e.config.ExchangeRate
	}
	e.session.Reconcile(e.calibration.Params.Normalize().Capacity())

	if e.fonts, err = fonts.NewRegistry(); err != nil {
		return nil, err
	}
	return e, nil
}

// job builds a print job from the session, or from an item list when
// itemsPath is set. Items are not limited to one sheet.
func (e *env) job(itemsPath string) (export.Job, error) {
	cells := e.session.Cells
	if itemsPath != "" {
		items, err := readItems(itemsPath)
		if err != nil {
			return export.Job{}, err
		}
		cells = importer.ExpandItems(items, model.NewLabelContent(), e.newEditor().Linker())
	}

	opts := render.DefaultOptions()
	opts.Overlays = e.calibration.Toggles
	opts.CurrencyA = e.config.CurrencyA
	opts.CurrencyB = e.config.CurrencyB
	shop := render.NewLogos(nil)
	if e.config.LogoPath != "" {
		img, err := render.LoadImage(e.config.LogoPath)
		if err != nil {
			slog.Warn("shop logo unreadable", "path", e.config.LogoPath, "error", err)
		} else {
			shop = render.NewLogos(img)
		}
	}
	opts.Logos = shop

	return export.Job{
		Calibration: e.calibration.Calibration,
		Cells:       cells,
		Options:     render.PrintOptions(opts),
		Fonts:       e.fonts,
	}, nil
}

// newEditor returns an editor over the loaded session.
func (e *env) newEditor() *editor.Editor {
	ed := editor.New(e.session)
	ed.SetCurrencies(e.config.CurrencyA, e.config.CurrencyB)
	return ed
}

func readItems(path string) ([]model.Item, error) {
	var result importer.ImportResult
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		result = importer.ImportExcel(path)
	} else {
		result = importer.ImportCSV(path)
	}
	for _, w := range result.Warnings {
		slog.Info("import", "warning", w)
	}
	for _, e := range result.Errors {
		slog.Warn("import", "error", e)
	}
	if len(result.Items) == 0 {
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("no items imported from %s: %s", path, result.Errors[0])
		}
		return nil, fmt.Errorf("no items in %s", path)
	}
	return result.Items, nil
}

func newRootCmd() *cobra.Command {
	var configDir string
	var debug bool
	var e *env

	root := &cobra.Command{
		Use:          "tagsheet-cli",
		Short:        "Export and print TagSheet price tag sheets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			var err error
			e, err = loadEnv(configDir)
			return err
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config", project.DefaultConfigDir(), "directory holding config, calibration, session and presets")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages")

	get := func() *env { return e }
	root.AddCommand(
		newPDFCmd(get),
		newPNGCmd(get),
		newDXFCmd(get),
		newPrintCmd(get),
		newCalibrateCmd(get),
		newImportCmd(get),
		newTemplateCmd(get),
	)
	return root
}

func newPDFCmd(get func() *env) *cobra.Command {
	var items string
	cmd := &cobra.Command{
		Use:   "pdf <output.pdf>",
		Short: "Write the sheet (or an item list) as a print-ready PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := get().job(items)
			if err != nil {
				return err
			}
			if err := export.ExportPDF(args[0], job); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d page(s))\n", args[0], len(job.Pages()))
			return nil
		},
	}
	cmd.Flags().StringVar(&items, "items", "", "CSV or Excel item list to lay out instead of the saved sheet")
	return cmd
}

func newPNGCmd(get func() *env) *cobra.Command {
	var items string
	var dpi float64
	cmd := &cobra.Command{
		Use:   "png <output.png>",
		Short: "Rasterize the sheet to PNG at the print geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := get()
			job, err := e.job(items)
			if err != nil {
				return err
			}
			if dpi <= 0 {
				dpi = e.config.PrintDPI
			}
			written, err := export.ExportPNG(args[0], job, dpi)
			if err != nil {
				return err
			}
			for _, w := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&items, "items", "", "CSV or Excel item list to lay out instead of the saved sheet")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "resolution (default: configured print dpi)")
	return cmd
}

func newDXFCmd(get func() *env) *cobra.Command {
	var marks bool
	cmd := &cobra.Command{
		Use:   "dxf <output.dxf>",
		Short: "Write the label cut outlines as DXF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := export.ExportDXF(args[0], get().calibration.Params, marks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&marks, "marks", true, "add registration crosshairs on their own layer")
	return cmd
}

func newPrintCmd(get func() *env) *cobra.Command {
	var items, printerName, format string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Send the sheet to a printer through lp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := get()
			cfg := e.config
			if cmd.Flags().Changed("printer") {
				cfg.PrinterName = printerName
			}
			if cmd.Flags().Changed("format") {
				if _, err := printer.ParseFormat(format); err != nil {
					return err
				}
				cfg.PrintFormat = format
			}
			job, err := e.job(items)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ids, err := printer.NewSpooler(cfg).Print(ctx, "TagSheet labels", job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "spooled %d page(s): %s\n", len(ids), strings.Join(ids, " "))
			return nil
		},
	}
	cmd.Flags().StringVar(&items, "items", "", "CSV or Excel item list to print instead of the saved sheet")
	cmd.Flags().StringVarP(&printerName, "printer", "d", "", "printer queue (default: configured printer)")
	cmd.Flags().StringVar(&format, "format", "", "raster or pdf (default: configured format)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up after this long")
	return cmd
}

func newCalibrateCmd(get func() *env) *cobra.Command {
	var measured float64
	var testPDF string
	var reset bool
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Show the calibration, write a test sheet or apply a measurement",
		Long: `Without flags, prints the current calibration and its warnings.

--test writes the calibration test PDF. Print it at 100% and measure the
printed grid from the left edge of the first column to the right edge of the
last one, then pass that width with --measured to update the scale
correction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := get()
			out := cmd.OutOrStdout()
			cal := &e.calibration

			if testPDF != "" {
				job, err := e.job("")
				if err != nil {
					return err
				}
				if err := export.ExportCalibrationPDF(testPDF, cal.Calibration, export.DefaultFillColor, job); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", testPDF)
			}

			changed := false
			if reset {
				toggles := cal.Toggles
				cal.Calibration = model.DefaultCalibration()
				cal.Toggles = toggles
				changed = true
			}
			if measured > 0 {
				before := cal.Params.Normalize().ScaleCorrectionFactor
				after := cal.Params.Recalibrate(measured)
				fmt.Fprintf(out, "scale correction %.4f -> %.4f (expected %.2f mm, measured %.2f mm)\n",
					before, after, cal.Params.GridWidth(), measured)
				changed = true
			}
			if changed {
				if err := project.SaveCalibration(e.paths.Calibration(), *cal); err != nil {
					return err
				}
			}

			printCalibration(cmd, cal.Calibration)
			return nil
		},
	}
	cmd.Flags().Float64Var(&measured, "measured", 0, "measured printed grid width in mm")
	cmd.Flags().StringVar(&testPDF, "test", "", "write the calibration test sheet to this PDF")
	cmd.Flags().BoolVar(&reset, "reset", false, "restore the A4 21-up defaults")
	return cmd
}

func printCalibration(cmd *cobra.Command, cal model.Calibration) {
	out := cmd.OutOrStdout()
	p := cal.Params.Normalize()
	fmt.Fprintf(out, "page         %.1f x %.1f mm (hw margins %.1f %.1f %.1f %.1f)\n",
		p.PageWidth, p.PageHeight, p.HWMarginLeft, p.HWMarginTop, p.HWMarginRight, p.HWMarginBottom)
	fmt.Fprintf(out, "grid         %d x %d labels of %.1f x %.1f mm, gaps %.1f / %.1f mm, radius %.1f mm\n",
		p.Rows, p.Cols, p.LabelWidth, p.LabelHeight, p.ColGap, p.RowGap, p.CornerRadius)
	fmt.Fprintf(out, "offset       %.1f / %.1f mm from the printable origin\n", p.SheetOffsetLeft, p.SheetOffsetTop)
	fmt.Fprintf(out, "correction   %.4f\n", p.ScaleCorrectionFactor)
	origin := "paper corner"
	if cal.SkipHWMargin {
		origin = "printable area"
	}
	fmt.Fprintf(out, "origin       %s\n", origin)
	for _, w := range cal.Params.Validate() {
		fmt.Fprintf(out, "warning      %s\n", w)
	}
}

func newImportCmd(get func() *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <items.csv|items.xlsx>",
		Short: "Replace the saved sheet with an item list",
		Long: `Lays out the items on the saved sheet, one label per copy, styled like
the first label of the current sheet. Items beyond one sheet are dropped; use
"pdf --items" to export all of them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := get()
			items, err := readItems(args[0])
			if err != nil {
				return err
			}
			ed := e.newEditor()
			base, _ := ed.Cell(0)
			cells := importer.ExpandItems(items, base, ed.Linker())
			capacity := len(e.session.Cells)
			if len(cells) > capacity {
				fmt.Fprintf(cmd.OutOrStdout(), "%d labels do not fit on one sheet of %d; keeping the first sheet\n", len(cells), capacity)
			}
			ed.Load(cells, "Import Items")
			if err := project.SaveSession(e.paths.Session(), ed.Session()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d item(s) as %d label(s)\n", len(items), min(len(cells), capacity))
			return nil
		},
	}
	return cmd
}

func newTemplateCmd(get func() *env) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "template <sheet.dxf>",
		Short: "Derive the label grid from a DXF sheet template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := get()
			result, err := importer.ImportSheetTemplate(args[0], e.calibration.Params)
			if errors.Is(err, importer.ErrNoLabels) {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "note         %s\n", w)
			}
			cal := e.calibration.Calibration
			cal.Params = result.Params.Normalize()
			if apply {
				e.calibration.Calibration = cal
				if err := project.SaveCalibration(e.paths.Calibration(), e.calibration); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "calibration updated")
			}
			printCalibration(cmd, cal)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "save the derived layout as the calibration")
	return cmd
}
