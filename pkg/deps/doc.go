// Package deps models uptix dependency declarations.
//
// # Declarations
//
// Nix files declare external resources by calling functions in the uptix
// namespace:
//
//	image = uptix.dockerImage "postgres:15";
//	src = pkgs.fetchFromGitHub (uptix.githubRelease {
//	  owner = "home-assistant";
//	  repo = "core";
//	});
//
// [Extract] walks a parsed file and turns each call into a [Dependency].
// The set of dependency kinds is closed: [*ContainerImage],
// [*SourceBranch] and [*SourceRelease].
//
// # Keys and patterns
//
// Every dependency has a [Dependency.Key] that names its lock file entry.
// Container images use the reference as written; GitHub sources use a
// synthesized key such as "$GITHUB_BRANCH$:owner/repo:main$f". Users
// address dependencies with friendlier patterns; see [Select].
//
// # Resolution
//
// [Dependency.Lock] resolves a declaration into a [lockfile.Entry] using
// the clients in [Resolvers]. [FromLockEntry] goes the other way and
// rebuilds a dependency from a stored entry without network access.
package deps
