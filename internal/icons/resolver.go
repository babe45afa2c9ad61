// Package icons resolves an inventory row's name to an icon reference.
//
// Resolution walks a fixed chain: the desktop-entry icon index, the icon
// theme, then a plain file search of conventional icon directories, ending at
// a generic package icon. Results are memoized for the lifetime of one
// Resolver, which belongs to a single scan result and is discarded with it.
// The memo never evicts: it doubles its capacity when full.
package icons

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/blackwell-systems/linprune/internal/desktop"
	"github.com/blackwell-systems/linprune/internal/pkgmgr"
)

// Generic is the theme icon returned when nothing else matches.
const Generic = "package-x-generic"

// minCacheSize is the initial memo capacity for tiny inventories.
const minCacheSize = 256

// Resolver memoizes icon lookups for one inventory. It is safe for
// concurrent use.
type Resolver struct {
	index *desktop.Index
	theme Theme
	dirs  []string

	mu       sync.Mutex // serializes growth of cache
	cache    *lru.Cache[string, string]
	capacity int
	group    singleflight.Group
}

// NewResolver builds a resolver over index. size is the expected number of
// distinct names, usually the inventory length; more names than that grow the
// memo rather than evicting. A nil theme disables theme lookups.
func NewResolver(index *desktop.Index, theme Theme, dirs []string, size int) *Resolver {
	if size < minCacheSize {
		size = minCacheSize
	}
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[string, string](size)

	return &Resolver{
		index:    index,
		theme:    theme,
		dirs:     dirs,
		cache:    cache,
		capacity: size,
	}
}

// Resolve returns an absolute icon path, or Generic. The first call for a
// name does the work; later calls are served from the cache.
func (r *Resolver) Resolve(name string) string {
	if ref, ok := r.cache.Get(name); ok {
		return ref
	}

	v, _, _ := r.group.Do(name, func() (interface{}, error) {
		if ref, ok := r.cache.Get(name); ok {
			return ref, nil
		}
		ref := r.resolve(name)
		r.remember(name, ref)
		return ref, nil
	})
	return v.(string)
}

// remember stores ref, growing the cache first so no earlier name is
// evicted.
func (r *Resolver) remember(name, ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache.Len() >= r.capacity {
		r.capacity *= 2
		r.cache.Resize(r.capacity)
	}
	r.cache.Add(name, ref)
}

// Cached reports how many names are memoized.
func (r *Resolver) Cached() int {
	return r.cache.Len()
}

func (r *Resolver) resolve(name string) string {
	clean := pkgmgr.CleanName(name)

	for _, key := range candidates(name, clean) {
		value, ok := r.index.Lookup(key)
		if !ok || value == "" {
			continue
		}
		if filepath.IsAbs(value) && fileExists(value) {
			return value
		}
		if ref, ok := r.lookup(value); ok {
			return ref
		}
	}

	if ref, ok := r.lookup(name); ok {
		return ref
	}
	if clean != name {
		if ref, ok := r.lookup(clean); ok {
			return ref
		}
	}

	return Generic
}

// candidates lists the index keys tried for name. Index keys are lowercase,
// so the lowercased name is tried after the spellings as given.
func candidates(name, clean string) []string {
	keys := []string{name}
	if clean != name {
		keys = append(keys, clean)
	}
	if lower := strings.ToLower(name); lower != name {
		keys = append(keys, lower)
	}
	return keys
}

// lookup asks the theme, then searches the fallback directories.
func (r *Resolver) lookup(value string) (string, bool) {
	if r.theme != nil {
		if ref, ok := r.theme.Lookup(value); ok {
			return ref, true
		}
	}
	return findFile(r.dirs, value)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
