// Package osinfo parses os-release(5) identity metadata.
//
// The provisioning preflight uses this to pin the pipeline to the single
// supported target platform before any host mutation happens.
package osinfo

import (
	"fmt"
	"os"
	"strings"
)

// DefaultPath is the canonical os-release location on systemd hosts.
const DefaultPath = "/etc/os-release"

// Info holds the subset of os-release fields the preflight cares about.
type Info struct {
	// ID is the lowercase distribution identifier, e.g. "ubuntu".
	ID string

	// VersionID is the release version, e.g. "24.04".
	VersionID string

	// PrettyName is the human-readable name, used only in messages.
	PrettyName string
}

// String returns a short human-readable identity, e.g. "ubuntu 24.04".
func (i Info) String() string {
	if i.ID == "" {
		return "unknown"
	}
	if i.VersionID == "" {
		return i.ID
	}
	return fmt.Sprintf("%s %s", i.ID, i.VersionID)
}

// Load reads and parses the os-release file at path.
// An empty path falls back to DefaultPath.
func Load(path string) (Info, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return Info{}, fmt.Errorf("failed to read os-release: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse extracts the known fields from os-release content.
// Unknown keys and malformed lines are ignored; os-release files in the
// wild carry vendor extensions this tool has no use for.
func Parse(content string) Info {
	var info Info
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "ID":
			info.ID = strings.ToLower(value)
		case "VERSION_ID":
			info.VersionID = value
		case "PRETTY_NAME":
			info.PrettyName = value
		}
	}
	return info
}
