//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func binary() string {
	return filepath.Join(binDir, binName)
}

// Convert converts every trace in data/geojson to GPX in data/gpx.
func Convert() error {
	mg.Deps(Build, Init)
	return sh.RunV(binary(), "convert")
}

// Catalog indexes data/geojson and exports the catalog as CSV.
func Catalog() error {
	mg.Deps(Build, Init)
	if err := sh.RunV(binary(), "catalog", "index"); err != nil {
		return err
	}
	return sh.RunV(binary(), "catalog", "export", "--format", "csv")
}
