package icons

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/blackwell-systems/linprune/internal/desktop"
)

// fakeTheme resolves a fixed set of names and counts every lookup.
type fakeTheme struct {
	icons map[string]string
	calls atomic.Int32
}

func (f *fakeTheme) Lookup(name string) (string, bool) {
	f.calls.Add(1)
	ref, ok := f.icons[name]
	return ref, ok
}

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("icon"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve_Chain(t *testing.T) {
	root := t.TempDir()
	absIcon := touch(t, filepath.Join(root, "opt", "tool.png"))
	pixmaps := filepath.Join(root, "pixmaps")
	touch(t, filepath.Join(pixmaps, "legacy.xpm"))
	touch(t, filepath.Join(pixmaps, "rawname.svg"))

	index := desktop.NewIndex([]*desktop.Entry{
		{Key: "tool", Icon: absIcon},
		{Key: "broken", Icon: filepath.Join(root, "missing.png")},
		{Key: "browser", Icon: "web-browser"},
		{Key: "legacy-app", Icon: "legacy"},
		{Key: "foo", Icon: "foo-icon"},
		{Key: "my app", Icon: "my-app-icon"},
	})
	theme := &fakeTheme{icons: map[string]string{
		"web-browser": "/theme/web-browser.png",
		"foo-icon":    "/theme/foo-icon.svg",
		"themed":      "/theme/themed.png",
		"clean":       "/theme/clean.png",
		"my-app-icon": "/theme/my-app.png",
	}}

	r := NewResolver(index, theme, []string{filepath.Join(root, "empty"), pixmaps}, 0)

	tests := []struct {
		name string
		want string
	}{
		{"tool", absIcon},
		{"browser", "/theme/web-browser.png"},
		{"legacy-app", filepath.Join(pixmaps, "legacy.xpm")},
		{"foo-bin", "/theme/foo-icon.svg"},
		{"themed", "/theme/themed.png"},
		{"rawname", filepath.Join(pixmaps, "rawname.svg")},
		{"clean-git", "/theme/clean.png"},
		{"My App", "/theme/my-app.png"},
		{"broken", Generic},
		{"nothing", Generic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.name); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestResolve_CacheHit(t *testing.T) {
	theme := &fakeTheme{icons: map[string]string{"vlc": "/theme/vlc.png"}}
	r := NewResolver(desktop.NewIndex(nil), theme, nil, 10)

	first := r.Resolve("vlc")
	calls := theme.calls.Load()
	if calls == 0 {
		t.Fatal("expected the theme to be consulted on first resolve")
	}

	second := r.Resolve("vlc")
	if second != first {
		t.Errorf("second Resolve = %q, want %q", second, first)
	}
	if theme.calls.Load() != calls {
		t.Errorf("theme consulted again on cache hit: %d calls, want %d", theme.calls.Load(), calls)
	}

	// Misses are cached too.
	r.Resolve("unknown")
	calls = theme.calls.Load()
	if got := r.Resolve("unknown"); got != Generic {
		t.Errorf("Resolve(unknown) = %q", got)
	}
	if theme.calls.Load() != calls {
		t.Error("theme consulted again for a cached miss")
	}
	if r.Cached() != 2 {
		t.Errorf("Cached() = %d, want 2", r.Cached())
	}
}

func TestResolve_MemoGrowsPastInitialSize(t *testing.T) {
	theme := &fakeTheme{}
	r := NewResolver(desktop.NewIndex(nil), theme, nil, 0)

	n := minCacheSize*2 + 10
	for i := 0; i < n; i++ {
		r.Resolve(fmt.Sprintf("app-%d", i))
	}
	if r.Cached() != n {
		t.Fatalf("Cached() = %d, want %d", r.Cached(), n)
	}

	calls := theme.calls.Load()
	if got := r.Resolve("app-0"); got != Generic {
		t.Errorf("Resolve(app-0) = %q, want %q", got, Generic)
	}
	if theme.calls.Load() != calls {
		t.Error("earliest name was evicted and resolved again")
	}
}

func TestResolve_Concurrent(t *testing.T) {
	theme := &fakeTheme{icons: map[string]string{"app": "/theme/app.png"}}
	r := NewResolver(nil, theme, nil, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Resolve("app"); got != "/theme/app.png" {
				t.Errorf("Resolve(app) = %q", got)
			}
		}()
	}
	wg.Wait()
}

func TestResolve_NilTheme(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "gimp.png"))

	r := NewResolver(nil, nil, []string{dir}, 0)
	if got := r.Resolve("gimp"); got != filepath.Join(dir, "gimp.png") {
		t.Errorf("Resolve(gimp) = %q", got)
	}
}

func TestXDGTheme_Lookup(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "hicolor", "48x48", "apps", "firefox.png"))
	touch(t, filepath.Join(base, "hicolor", "256x256", "apps", "firefox.png"))
	touch(t, filepath.Join(base, "hicolor", "128x128", "apps", "firefox.png"))
	touch(t, filepath.Join(base, "hicolor", "scalable", "apps", "inkscape.svg"))
	touch(t, filepath.Join(base, "Papirus", "64x64", "apps", "vlc.svg"))
	touch(t, filepath.Join(base, "hicolor", "48x48", "mimetypes", "text.png"))

	theme := &XDGTheme{BaseDirs: []string{filepath.Join(base, "missing"), base}, Themes: []string{"hicolor"}}

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"firefox", filepath.Join(base, "hicolor", "256x256", "apps", "firefox.png"), true},
		{"inkscape", filepath.Join(base, "hicolor", "scalable", "apps", "inkscape.svg"), true},
		{"vlc", "", false},
		{"text", "", false},
		{"", "", false},
		{"../hicolor", "", false},
	}

	for _, tt := range tests {
		got, ok := theme.Lookup(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}

	theme.Themes = []string{"Papirus", "hicolor"}
	if got, ok := theme.Lookup("vlc"); !ok || got != filepath.Join(base, "Papirus", "64x64", "apps", "vlc.svg") {
		t.Errorf("Lookup(vlc) with Papirus = (%q, %v)", got, ok)
	}
}

func TestNewXDGTheme_Defaults(t *testing.T) {
	theme := NewXDGTheme("/home/u", nil)
	if len(theme.Themes) != 1 || theme.Themes[0] != "hicolor" {
		t.Errorf("Themes = %v, want [hicolor]", theme.Themes)
	}
	if theme.BaseDirs[0] != "/home/u/.local/share/icons" {
		t.Errorf("first base dir = %q", theme.BaseDirs[0])
	}
}

func TestDefaultFallbackDirs(t *testing.T) {
	dirs := DefaultFallbackDirs("/home/u")
	if len(dirs) != 10 {
		t.Fatalf("expected 10 dirs, got %d", len(dirs))
	}
	if dirs[0] != "/usr/share/pixmaps" {
		t.Errorf("first dir = %q", dirs[0])
	}
	if dirs[9] != "/home/u/.icons" {
		t.Errorf("last dir = %q", dirs[9])
	}
}

func TestFindFile_ExtensionOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "app.svg"))
	touch(t, filepath.Join(dir, "app.png"))
	touch(t, filepath.Join(dir, "mac.icns"))

	if got, _ := findFile([]string{dir}, "app"); got != filepath.Join(dir, "app.png") {
		t.Errorf("findFile(app) = %q, want png first", got)
	}
	if _, ok := findFile([]string{dir}, "mac"); !ok {
		t.Error("expected .icns to be found")
	}
	if _, ok := findFile([]string{dir}, "none"); ok {
		t.Error("expected no match")
	}
}
