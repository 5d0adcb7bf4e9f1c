package deps

import (
	"context"
	"fmt"

	"github.com/matzehuels/uptix/pkg/lockfile"
)

// SourceBranch is a uptix.githubBranch declaration: the head of a named
// branch.
type SourceBranch struct {
	GitHubSource
	Branch string
}

func (*SourceBranch) isDependency() {}

// Key implements Dependency.
func (d *SourceBranch) Key() string {
	return fmt.Sprintf("$GITHUB_BRANCH$:%s:%s$%s", d.repoPath(), d.Branch, d.flags())
}

// Type implements Dependency.
func (d *SourceBranch) Type() string { return lockfile.TypeGitHubBranch }

// Matches implements Dependency. Branches only match their exact key.
func (d *SourceBranch) Matches(pattern string) bool { return pattern == d.Key() }

// Lock implements Dependency.
func (d *SourceBranch) Lock(ctx context.Context, r Resolvers) (lockfile.Entry, error) {
	client, err := d.client(r)
	if err != nil {
		return lockfile.Entry{}, err
	}
	rev, err := client.BranchHead(ctx, d.Owner, d.Repo, d.Branch)
	if err != nil {
		return lockfile.Entry{}, err
	}
	lock, err := d.lock(ctx, r, rev)
	if err != nil {
		return lockfile.Entry{}, err
	}
	return lockfile.Entry{
		Metadata: lockfile.Metadata{
			Name:            d.repoPath(),
			SelectedVersion: d.Branch,
			ResolvedVersion: rev,
			FriendlyVersion: d.FriendlyVersion(rev),
			DepType:         lockfile.TypeGitHubBranch,
			Description:     fmt.Sprintf("GitHub branch %s of %s", d.Branch, d.repoPath()),
		},
		Lock: lock,
	}, nil
}

// TypeDisplay implements Dependency.
func (d *SourceBranch) TypeDisplay(string) string { return lockfile.TypeGitHubBranch }

// FriendlyVersion implements Dependency. Commit SHAs are shortened to the
// usual seven characters.
func (d *SourceBranch) FriendlyVersion(resolved string) string {
	if len(resolved) > 7 {
		return resolved[:7]
	}
	return resolved
}

func branchFromLock(e lockfile.Entry) (Dependency, bool) {
	l, ok := decodeGitHubLock(e.Lock)
	if !ok || e.Metadata.SelectedVersion == "" {
		return nil, false
	}
	return &SourceBranch{GitHubSource: l.source(), Branch: e.Metadata.SelectedVersion}, true
}
