package icons

import (
	"os"
	"path/filepath"
	"sort"
)

// Theme looks up a themed icon by name.
type Theme interface {
	Lookup(name string) (string, bool)
}

// XDGTheme searches freedesktop icon themes on disk. It only looks at the
// "apps" context of each size directory and prefers the first theme and base
// directory that match.
type XDGTheme struct {
	BaseDirs []string
	Themes   []string
}

// themeExtensions are tried in order for every size directory.
var themeExtensions = []string{".png", ".svg", ".xpm"}

// NewXDGTheme returns a theme searcher over the standard base directories.
// An empty themes list searches hicolor only.
func NewXDGTheme(home string, themes []string) *XDGTheme {
	if len(themes) == 0 {
		themes = []string{"hicolor"}
	}
	return &XDGTheme{
		BaseDirs: []string{
			filepath.Join(home, ".local/share/icons"),
			filepath.Join(home, ".icons"),
			"/usr/local/share/icons",
			"/usr/share/icons",
		},
		Themes: themes,
	}
}

// Lookup returns the path of the largest matching raster icon, or the
// scalable one when no raster size exists.
func (t *XDGTheme) Lookup(name string) (string, bool) {
	if name == "" || filepath.Base(name) != name {
		return "", false
	}

	for _, theme := range t.Themes {
		for _, base := range t.BaseDirs {
			var matches []string
			for _, ext := range themeExtensions {
				found, err := filepath.Glob(filepath.Join(base, theme, "*", "apps", name+ext))
				if err != nil {
					continue
				}
				matches = append(matches, found...)
			}
			if len(matches) > 0 {
				return pickLargest(matches), true
			}
		}
	}
	return "", false
}

// pickLargest orders "NxN" size directories numerically and takes the
// biggest; "scalable" and other names sort first.
func pickLargest(paths []string) string {
	sort.SliceStable(paths, func(i, j int) bool {
		return sizeOf(paths[i]) < sizeOf(paths[j])
	})
	return paths[len(paths)-1]
}

// sizeOf parses the size directory of <theme>/<size>/apps/<file>.
func sizeOf(path string) int {
	dir := filepath.Base(filepath.Dir(filepath.Dir(path)))
	n := 0
	for _, r := range dir {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// fileExtensions are tried when searching fallback directories.
var fileExtensions = []string{".png", ".svg", ".xpm", ".ico", ".icns"}

// DefaultFallbackDirs returns the conventional icon directories searched
// after the theme, in order.
func DefaultFallbackDirs(home string) []string {
	return []string{
		"/usr/share/pixmaps",
		"/usr/share/icons/hicolor/128x128/apps",
		"/usr/share/icons/hicolor/48x48/apps",
		"/usr/share/icons/hicolor/256x256/apps",
		"/usr/share/icons/hicolor/512x512/apps",
		"/usr/share/icons/hicolor/scalable/apps",
		"/usr/share/icons",
		"/usr/share/app-install/icons",
		filepath.Join(home, ".local/share/icons"),
		filepath.Join(home, ".icons"),
	}
}

// findFile returns the first <dir>/<name><ext> that exists.
func findFile(dirs []string, name string) (string, bool) {
	if name == "" || filepath.Base(name) != name {
		return "", false
	}
	for _, dir := range dirs {
		for _, ext := range fileExtensions {
			path := filepath.Join(dir, name+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}
