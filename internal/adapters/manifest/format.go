// Package manifest reads and rewrites package manifests of Cargo and npm
// workspaces.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Manifest is the release-relevant content of a manifest file.
type Manifest struct {
	Name    string
	Version *semver.Version

	// Members lists workspace member patterns relative to the manifest directory.
	Members []string

	// Dependencies lists declared dependency names in declaration order, deduplicated.
	Dependencies []string
}

// Format is a manifest file format.
type Format interface {
	// Name identifies the format in configuration, e.g. "cargo".
	Name() string

	// File is the manifest file name, e.g. "Cargo.toml".
	File() string

	// Parse decodes a manifest.
	Parse(data []byte) (*Manifest, error)

	// Rewrite sets the package version to version when it is non-nil and
	// updates requirements on every dependency named in deps. Everything
	// else is preserved byte for byte.
	Rewrite(data []byte, version *semver.Version, deps domain.VersionMap) ([]byte, error)
}

// Formats lists the supported formats in detection order.
var Formats = []Format{Cargo{}, Npm{}}

// Auto selects the format by probing the workspace root.
const Auto = "auto"

// FormatByName returns the format with the given name.
func FormatByName(name string) (Format, error) {
	for _, f := range Formats {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedEcosystem, name)
}

// Detect returns the first format whose manifest exists in root.
func Detect(root string) (Format, error) {
	for _, f := range Formats {
		if _, err := os.Stat(filepath.Join(root, f.File())); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrManifestNotFound, root)
}

// Resolve returns the named format, detecting it when name is Auto or empty.
func Resolve(root, name string) (Format, error) {
	if name == "" || name == Auto {
		return Detect(root)
	}
	return FormatByName(name)
}

var requirementOperator = regexp.MustCompile(`^\s*(\^|~|=|>=|<=|>|<)?\s*`)

// requirement rewrites a version requirement to version, keeping the
// leading operator. Requirements that are not plain versions are kept.
func requirement(current string, version *semver.Version) (string, bool) {
	op := requirementOperator.FindStringSubmatch(current)
	rest := strings.TrimSpace(current[len(op[0]):])
	if _, err := semver.NewVersion(rest); err != nil {
		return current, false
	}
	return op[1] + version.String(), true
}

func appendUnique(list []string, seen map[string]bool, name string) []string {
	if name == "" || seen[name] {
		return list
	}
	seen[name] = true
	return append(list, name)
}
