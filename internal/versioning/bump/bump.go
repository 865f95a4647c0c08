// Package bump propagates version increments through the dependency graph
// and computes next versions.
package bump

import (
	"github.com/Masterminds/semver/v3"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Bump returns the version after applying inc. Versions below 1.0.0 never
// bump major: 0.0.x only bumps patch, 0.y.z bumps minor for Minor and
// Major. Pre-release and build metadata are dropped. NoIncrement returns
// v unchanged.
func Bump(v *semver.Version, inc domain.Increment) *semver.Version {
	if !inc.Present() {
		return v
	}

	major, minor, patch := v.Major(), v.Minor(), v.Patch()
	switch {
	case major == 0 && minor == 0:
		patch++
	case major == 0 && inc >= domain.Minor:
		minor, patch = minor+1, 0
	case major == 0:
		patch++
	case inc == domain.Major:
		major, minor, patch = major+1, 0, 0
	case inc == domain.Minor:
		minor, patch = minor+1, 0
	default:
		patch++
	}

	return semver.New(major, minor, patch, "", "")
}
