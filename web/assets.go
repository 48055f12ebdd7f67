// Package web provides the embedded status page.
//
// The static/ directory is embedded at build time. If a static directory
// exists on the filesystem at the development path, it is served instead
// so the page can be edited without rebuilding.
package web

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed static/*
var assets embed.FS

// GetAssets returns a filesystem containing the status page.
//
// The devPath parameter specifies the directory to check for development
// mode. If empty, it defaults to "./web/static" (relative to the working
// directory).
func GetAssets(devPath string) fs.FS {
	if devPath == "" {
		devPath = "./web/static"
	}

	if stat, err := os.Stat(devPath); err == nil && stat.IsDir() {
		return os.DirFS(devPath)
	}
	return Embedded()
}

// GetAssetsWithBase checks for development mode relative to baseDir.
func GetAssetsWithBase(baseDir string) fs.FS {
	return GetAssets(filepath.Join(baseDir, "web", "static"))
}

// Embedded returns the embedded assets, ignoring the filesystem.
func Embedded() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic("failed to access embedded web assets: " + err.Error())
	}
	return sub
}
