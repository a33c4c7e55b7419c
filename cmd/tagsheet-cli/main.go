// Package main is the headless TagSheet command line. It shares the
// desktop application's config directory, so a sheet designed in the GUI
// can be exported or printed from scripts.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
