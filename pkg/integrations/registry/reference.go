package registry

import (
	"regexp"
	"strings"

	"github.com/matzehuels/uptix/pkg/errors"
)

const (
	// DefaultRegistry is used when a reference names no registry host.
	DefaultRegistry = "registry-1.docker.io"

	// DefaultTag is used when a reference carries no tag.
	DefaultTag = "latest"

	officialPrefix = "library/"
)

// defaultRegistryAliases are the names the default registry goes by in
// credential stores.
var defaultRegistryAliases = []string{
	"index.docker.io",
	"docker.io",
	"https://index.docker.io/v1/",
	DefaultRegistry,
}

var (
	hostRe    = regexp.MustCompile(`^[a-zA-Z0-9.-]+(:[0-9]+)?$`)
	segmentRe = regexp.MustCompile(`^[a-z0-9]+(?:(?:[._]|__|-+)[a-z0-9]+)*$`)
	tagRe     = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,127}$`)
)

// Reference is a parsed container image reference.
type Reference struct {
	Registry   string // registry host, e.g. "ghcr.io"
	Repository string // repository path as written, e.g. "postgres" or "grafana/grafana"
	Tag        string
	Digest     string // "@algo:hex" suffix as written; unsupported, see Validate
	Insecure   bool   // talk plain HTTP to the registry; set for loopback hosts
}

// ParseReference splits name into registry, repository and tag.
//
// The first path segment is a registry host only when it contains a dot;
// otherwise it is a namespace on the default registry. A missing tag
// defaults to "latest". The "library/" prefix for official images is not
// added here; see [Reference.RemotePath].
//
// Parsing only fails for names with no repository at all. Names the
// registry API would reject still parse; [Reference.Validate] reports them
// when the image is resolved.
func ParseReference(name string) (Reference, error) {
	ref := Reference{Registry: DefaultRegistry, Tag: DefaultTag}
	rest, dgst, hasDigest := strings.Cut(name, "@")
	if hasDigest {
		ref.Digest = dgst
	}

	if i := strings.LastIndex(rest, ":"); i > strings.LastIndex(rest, "/") {
		ref.Tag = rest[i+1:]
		rest = rest[:i]
	}

	if first, remainder, ok := strings.Cut(rest, "/"); ok && strings.Contains(first, ".") {
		ref.Registry = first
		ref.Insecure = isLoopback(first)
		rest = remainder
	}

	if rest == "" {
		return Reference{}, errors.New(errors.ErrCodeInvalidReference, "invalid image reference %q: empty repository", name)
	}
	ref.Repository = rest
	return ref, nil
}

// Validate checks r against the registry API grammar: a host[:port]
// registry, lowercase path segments and a tag of at most 128 characters.
func (r Reference) Validate() error {
	if r.Digest != "" {
		return errors.New(errors.ErrCodeInvalidReference, "invalid image reference %q: digest references are not supported", r.String()+"@"+r.Digest)
	}
	if !hostRe.MatchString(r.Registry) {
		return errors.New(errors.ErrCodeInvalidReference, "invalid image reference %q: bad registry host %q", r.String(), r.Registry)
	}
	for _, seg := range strings.Split(r.Repository, "/") {
		if !segmentRe.MatchString(seg) {
			return errors.New(errors.ErrCodeInvalidReference, "invalid image reference %q: bad path segment %q", r.String(), seg)
		}
	}
	if !tagRe.MatchString(r.Tag) {
		return errors.New(errors.ErrCodeInvalidReference, "invalid image reference %q: bad tag %q", r.String(), r.Tag)
	}
	return nil
}

// isLoopback reports whether host (with optional port) is a local
// registry, which is spoken to over plain HTTP.
func isLoopback(host string) bool {
	name, _, _ := strings.Cut(host, ":")
	return strings.HasPrefix(name, "127.")
}

// IsDefaultRegistry reports whether r points at the default registry.
func (r Reference) IsDefaultRegistry() bool {
	return r.Registry == DefaultRegistry
}

// RemotePath returns the repository path used on the wire. Single-segment
// repositories on the default registry live under "library/".
func (r Reference) RemotePath() string {
	if r.IsDefaultRegistry() && !strings.Contains(r.Repository, "/") {
		return officialPrefix + r.Repository
	}
	return r.Repository
}

// Name returns the repository qualified with its registry when that
// registry is not the default one.
func (r Reference) Name() string {
	if r.IsDefaultRegistry() {
		return r.Repository
	}
	return r.Registry + "/" + r.Repository
}

// String returns the canonical name:tag form.
func (r Reference) String() string {
	return r.Name() + ":" + r.Tag
}

func (r Reference) baseURL() string {
	scheme := "https"
	if r.Insecure {
		scheme = "http"
	}
	return scheme + "://" + r.Registry
}
