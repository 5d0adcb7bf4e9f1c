package deps

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/integrations/registry"
	"github.com/matzehuels/uptix/pkg/lockfile"
	"github.com/matzehuels/uptix/pkg/observability"
)

// ContainerImage is a uptix.dockerImage declaration.
type ContainerImage struct {
	// Name is the reference exactly as written in the source.
	Name string
	Ref  registry.Reference
}

// NewContainerImage parses name into a ContainerImage.
func NewContainerImage(name string) (*ContainerImage, error) {
	ref, err := registry.ParseReference(name)
	if err != nil {
		return nil, err
	}
	return &ContainerImage{Name: name, Ref: ref}, nil
}

func (*ContainerImage) isDependency() {}

// Key implements Dependency.
func (d *ContainerImage) Key() string { return d.Name }

// Type implements Dependency.
func (d *ContainerImage) Type() string { return lockfile.TypeDocker }

// Matches implements Dependency. Besides the name as written and its
// canonical name:tag form, images on the default registry also match their
// bare repository name when the pattern has no tag.
func (d *ContainerImage) Matches(pattern string) bool {
	if pattern == d.Name || pattern == d.Ref.String() {
		return true
	}
	return d.Ref.IsDefaultRegistry() && !strings.Contains(pattern, ":") && pattern == d.Ref.Repository
}

// Lock implements Dependency. Metadata enrichment failures are reported
// through hooks and never fail the lock.
func (d *ContainerImage) Lock(ctx context.Context, r Resolvers) (lockfile.Entry, error) {
	if r.Registry == nil {
		return lockfile.Entry{}, errors.New(errors.ErrCodeInternal, "no registry resolver configured")
	}
	res, err := r.Registry.Resolve(ctx, d.Ref)
	if err != nil {
		return lockfile.Entry{}, err
	}
	if res.Digest == "" {
		return lockfile.Entry{}, errors.New(errors.ErrCodeDigestNotFound, "no digest found for %s", d.Ref)
	}
	if res.EnrichErr != nil {
		observability.Resolve().OnEnrichFailed(ctx, d.Key(), res.EnrichErr)
	}

	meta := lockfile.Metadata{
		Name:            d.Ref.Name(),
		SelectedVersion: d.Ref.Tag,
		DepType:         lockfile.TypeDocker,
		Description:     "Docker image " + d.Ref.Name(),
	}
	switch {
	case res.Version != "":
		meta.ResolvedVersion = res.Version
		meta.FriendlyVersion = res.Version
	case res.Created != nil:
		date := res.Created.UTC().Format(time.DateOnly)
		meta.ResolvedVersion = date
		meta.FriendlyVersion = date
	default:
		meta.ResolvedVersion = res.Digest.String()
	}
	if res.Created != nil {
		meta.Timestamp = res.Created.UTC().Format(time.RFC3339)
	}

	lock, err := json.Marshal(res.Digest.String())
	if err != nil {
		return lockfile.Entry{}, errors.Wrap(errors.ErrCodeInternal, err, "encode digest")
	}
	return lockfile.Entry{Metadata: meta, Lock: lock}, nil
}

// TypeDisplay implements Dependency.
func (d *ContainerImage) TypeDisplay(string) string { return lockfile.TypeDocker }

// FriendlyVersion implements Dependency.
func (d *ContainerImage) FriendlyVersion(resolved string) string {
	return registry.FriendlyDigest(resolved)
}
