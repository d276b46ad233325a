package config

import (
	"os"
	"path/filepath"
	goruntime "runtime"
)

const dataDirName = "simplechat"

// DataDir is a resolved default store location and the rule that chose it.
type DataDir struct {
	Path   string
	Source string
}

// DefaultDataDir returns the directory a pebble store uses when none is
// configured.
func DefaultDataDir() string { return ResolveDataDir().Path }

// ResolveDataDir picks the default store location. In order:
//
//   - $XDG_DATA_HOME/simplechat
//   - ~/.simplechat when it already exists, so an existing store is reused
//   - /var/lib/simplechat when /var/lib is writable
//   - the per-user application data dir on macOS and Windows
//   - ~/.simplechat
//
// Without a home directory it falls back to ./data.
func ResolveDataDir() DataDir {
	return hostDataDirs().resolve()
}

// dataDirs holds the host lookups ResolveDataDir depends on.
type dataDirs struct {
	goos     string
	getenv   func(string) string
	home     func() (string, error)
	isDir    func(string) bool
	writable func(string) bool
	system   string
}

func hostDataDirs() dataDirs {
	return dataDirs{
		goos:     goruntime.GOOS,
		getenv:   os.Getenv,
		home:     os.UserHomeDir,
		isDir:    isDir,
		writable: isWritableDir,
		system:   "/var/lib",
	}
}

func (d dataDirs) resolve() DataDir {
	if xdg := d.getenv("XDG_DATA_HOME"); xdg != "" {
		return DataDir{filepath.Join(xdg, dataDirName), "xdg"}
	}
	home, err := d.home()
	if err != nil || home == "" {
		return DataDir{filepath.Join(".", "data"), "cwd"}
	}
	dot := filepath.Join(home, "."+dataDirName)
	if d.isDir(dot) {
		return DataDir{dot, "existing"}
	}
	if d.goos != "windows" && d.writable(d.system) {
		return DataDir{filepath.Join(d.system, dataDirName), "system"}
	}
	switch d.goos {
	case "darwin":
		return DataDir{filepath.Join(home, "Library", "Application Support", "SimpleChat"), "user"}
	case "windows":
		base := d.getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return DataDir{filepath.Join(base, "SimpleChat"), "user"}
	}
	return DataDir{dot, "home"}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isWritableDir reports whether a file can be created in path.
func isWritableDir(path string) bool {
	if !isDir(path) {
		return false
	}
	f, err := os.CreateTemp(path, "."+dataDirName+"-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
