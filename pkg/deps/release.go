package deps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/uptix/pkg/lockfile"
)

const latestRelease = "latest"

// SourceRelease is a uptix.githubRelease declaration: the latest published
// release of a repository.
type SourceRelease struct {
	GitHubSource
}

func (*SourceRelease) isDependency() {}

// Key implements Dependency.
func (d *SourceRelease) Key() string {
	return fmt.Sprintf("$GITHUB_RELEASE$:%s$%s", d.repoPath(), d.flags())
}

// Type implements Dependency.
func (d *SourceRelease) Type() string { return lockfile.TypeGitHubRelease }

// Matches implements Dependency. A release matches its key or a bare
// "owner/repo".
func (d *SourceRelease) Matches(pattern string) bool {
	if pattern == d.Key() {
		return true
	}
	if strings.Contains(pattern, ":") {
		return false
	}
	parts := strings.Split(pattern, "/")
	return len(parts) == 2 && parts[0] == d.Owner && parts[1] == d.Repo
}

// Lock implements Dependency.
func (d *SourceRelease) Lock(ctx context.Context, r Resolvers) (lockfile.Entry, error) {
	client, err := d.client(r)
	if err != nil {
		return lockfile.Entry{}, err
	}
	rel, err := client.LatestRelease(ctx, d.Owner, d.Repo)
	if err != nil {
		return lockfile.Entry{}, err
	}
	lock, err := d.lock(ctx, r, rel.Tag)
	if err != nil {
		return lockfile.Entry{}, err
	}
	meta := lockfile.Metadata{
		Name:            d.repoPath(),
		SelectedVersion: latestRelease,
		ResolvedVersion: rel.Tag,
		FriendlyVersion: rel.Tag,
		DepType:         lockfile.TypeGitHubRelease,
		Description:     "GitHub release from " + d.repoPath(),
	}
	if !rel.PublishedAt.IsZero() {
		meta.Timestamp = rel.PublishedAt.UTC().Format(time.RFC3339)
	}
	return lockfile.Entry{Metadata: meta, Lock: lock}, nil
}

// TypeDisplay implements Dependency. The default "latest" selector is
// implied and left out.
func (d *SourceRelease) TypeDisplay(selected string) string {
	if selected == "" || selected == latestRelease {
		return lockfile.TypeGitHubRelease
	}
	return fmt.Sprintf("%s (%s)", lockfile.TypeGitHubRelease, selected)
}

// FriendlyVersion implements Dependency. Release tags are already readable.
func (d *SourceRelease) FriendlyVersion(resolved string) string { return resolved }

func releaseFromLock(e lockfile.Entry) (Dependency, bool) {
	l, ok := decodeGitHubLock(e.Lock)
	if !ok {
		return nil, false
	}
	return &SourceRelease{GitHubSource: l.source()}, true
}
