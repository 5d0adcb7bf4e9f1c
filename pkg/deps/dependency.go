package deps

import (
	"context"

	"github.com/matzehuels/uptix/pkg/lockfile"
)

// Dependency is one declaration found in a Nix file.
type Dependency interface {
	// Key identifies the dependency's lock file entry.
	Key() string

	// Type returns the lock file dep_type tag.
	Type() string

	// Matches reports whether pattern selects this dependency.
	Matches(pattern string) bool

	// Lock resolves the dependency and packages the result.
	Lock(ctx context.Context, r Resolvers) (lockfile.Entry, error)

	// TypeDisplay is a short label for listings. selected is the version
	// the user asked for, e.g. a tag or "latest".
	TypeDisplay(selected string) string

	// FriendlyVersion shortens a resolved identifier for display.
	FriendlyVersion(resolved string) string

	isDependency()
}

// FromLockEntry rebuilds the dependency stored under key. Legacy entries
// were only ever written for images, so their key is read as an image
// name. It reports false for unknown dep_type values and payloads that do
// not decode.
func FromLockEntry(key string, e lockfile.Entry) (Dependency, bool) {
	depType := e.Metadata.DepType
	if e.Legacy {
		depType = lockfile.TypeDocker
	}
	switch depType {
	case lockfile.TypeDocker:
		d, err := NewContainerImage(key)
		if err != nil {
			return nil, false
		}
		return d, true
	case lockfile.TypeGitHubBranch:
		return branchFromLock(e)
	case lockfile.TypeGitHubRelease:
		return releaseFromLock(e)
	default:
		return nil, false
	}
}

// Select returns the dependencies matching pattern, in input order.
func Select(deps []Dependency, pattern string) []Dependency {
	var out []Dependency
	for _, d := range deps {
		if d.Matches(pattern) {
			out = append(out, d)
		}
	}
	return out
}
