package pkgmgr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultOSReleasePath is the distribution descriptor consulted by Detect.
const DefaultOSReleasePath = "/etc/os-release"

// Distro holds the identifying fields of the distribution descriptor.
type Distro struct {
	ID     string
	IDLike []string
}

// String renders the distro as "ID (like a b)".
func (d Distro) String() string {
	id := d.ID
	if id == "" {
		id = "unknown"
	}
	if len(d.IDLike) == 0 {
		return id
	}
	return fmt.Sprintf("%s (like %s)", id, strings.Join(d.IDLike, " "))
}

// ParseOSRelease reads key=value lines and extracts ID and ID_LIKE. Values
// are unquoted and lowercased; every other key is ignored.
func ParseOSRelease(r io.Reader) (Distro, error) {
	var d Distro
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.ToLower(strings.Trim(strings.TrimSpace(value), `"'`))

		switch strings.TrimSpace(key) {
		case "ID":
			d.ID = value
		case "ID_LIKE":
			d.IDLike = strings.Fields(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return d, fmt.Errorf("failed to read os-release: %w", err)
	}
	return d, nil
}

// ReadOSRelease parses the descriptor at path.
func ReadOSRelease(path string) (Distro, error) {
	f, err := os.Open(path)
	if err != nil {
		return Distro{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ParseOSRelease(f)
}

// likes reports whether the distro is, or claims to be like, any of ids.
func (d Distro) likes(ids ...string) bool {
	for _, id := range ids {
		for _, like := range d.IDLike {
			if like == id {
				return true
			}
		}
	}
	return false
}

func (d Distro) isOneOf(ids ...string) bool {
	for _, id := range ids {
		if d.ID == id {
			return true
		}
	}
	return false
}

// IsRHELLike reports membership in the dnf/rpm family.
func (d Distro) IsRHELLike() bool {
	return d.isOneOf("fedora", "rhel", "centos", "rocky", "alma", "almalinux") ||
		d.likes("fedora", "rhel", "centos")
}

// IsDebianLike reports membership in the apt/dpkg family.
func (d Distro) IsDebianLike() bool {
	return d.isOneOf("ubuntu", "debian", "linuxmint", "pop") ||
		d.likes("debian", "ubuntu")
}
