package desktop

import (
	"os"
	"path/filepath"
	"strings"
)

// Suffix is the file extension of desktop entries.
const Suffix = ".desktop"

// Entry is the parsed subset of one desktop entry file. Entries are consumed
// once by reconciliation; only their icon references outlive the scan, inside
// the Index.
type Entry struct {
	Path     string // absolute path of the .desktop file
	Key      string // lowercased filename stem
	Icon     string // theme name or absolute path, "" when absent
	ExecName string // lowercased basename of the executable
	Name     string // declared display name
	WMClass  string // lowercased StartupWMClass
	ExecPath string // first token of Exec=
}

// iconExtensions are stripped from relative icon values so they can be used
// as theme lookup keys.
var iconExtensions = map[string]bool{
	".png": true,
	".svg": true,
	".xpm": true,
	".ico": true,
}

// ParseFile reads one desktop entry. It is best-effort: unreadable files
// yield (nil, false) and undecodable bytes are replaced. The first
// occurrence of each recognized key wins.
func ParseFile(path string) (*Entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return parse(path, strings.ToValidUTF8(string(data), "�")), true
}

func parse(path, content string) *Entry {
	base := strings.ToLower(filepath.Base(path))
	e := &Entry{
		Path: path,
		Key:  strings.TrimSuffix(base, Suffix),
	}

	var haveIcon, haveExec, haveName, haveClass bool

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case !haveIcon && strings.HasPrefix(line, "Icon="):
			haveIcon = true
			e.Icon = normalizeIcon(value(line))
		case !haveExec && strings.HasPrefix(line, "Exec="):
			haveExec = true
			e.ExecPath, e.ExecName = normalizeExec(value(line))
		case !haveName && strings.HasPrefix(line, "Name="):
			haveName = true
			e.Name = value(line)
		case !haveClass && strings.HasPrefix(line, "StartupWMClass="):
			haveClass = true
			e.WMClass = strings.ToLower(value(line))
		}
	}

	return e
}

func value(line string) string {
	_, v, _ := strings.Cut(line, "=")
	return strings.TrimSpace(v)
}

func stripQuotes(s string) string {
	return strings.NewReplacer(`"`, "", "'", "").Replace(s)
}

// normalizeIcon turns an Icon= value into a theme key or absolute path.
func normalizeIcon(icon string) string {
	icon = strings.TrimSpace(stripQuotes(icon))
	if strings.HasPrefix(icon, "~") {
		icon = expandHome(icon)
	}
	if !filepath.IsAbs(icon) {
		ext := filepath.Ext(icon)
		if iconExtensions[strings.ToLower(ext)] {
			icon = strings.TrimSuffix(icon, ext)
		}
	}
	return icon
}

// normalizeExec returns the command path and its lowercased basename. Field
// codes and arguments after the first token are dropped.
func normalizeExec(cmd string) (string, string) {
	fields := strings.Fields(stripQuotes(cmd))
	if len(fields) == 0 {
		return "", ""
	}
	path := fields[0]
	return path, strings.ToLower(filepath.Base(path))
}

func expandHome(p string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
