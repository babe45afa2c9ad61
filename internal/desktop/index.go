package desktop

import "strings"

// Index maps identifying keys of desktop entries to their icon reference.
// It is built once per scan and read-only afterwards, so it can be shared
// between goroutines without locking.
type Index struct {
	icons map[string]string
}

// NewIndex builds an index from entries. Later entries overwrite earlier
// ones on key collisions.
func NewIndex(entries []*Entry) *Index {
	idx := &Index{icons: make(map[string]string)}
	for _, e := range entries {
		idx.add(e)
	}
	return idx
}

// add registers up to four keys for e: the filename stem, the window class,
// the executable basename and the lowercased display name. The last two are
// skipped when they equal the stem.
func (idx *Index) add(e *Entry) {
	if e == nil || e.Icon == "" {
		return
	}

	if e.Key != "" {
		idx.icons[e.Key] = e.Icon
	}
	if e.WMClass != "" {
		idx.icons[e.WMClass] = e.Icon
	}
	if e.ExecName != "" && e.ExecName != e.Key {
		idx.icons[e.ExecName] = e.Icon
	}
	if e.Name != "" {
		if name := strings.ToLower(e.Name); name != e.Key {
			idx.icons[name] = e.Icon
		}
	}
}

// Lookup returns the icon reference registered for key.
func (idx *Index) Lookup(key string) (string, bool) {
	if idx == nil {
		return "", false
	}
	icon, ok := idx.icons[key]
	return icon, ok
}

// Len returns the number of keys in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.icons)
}
