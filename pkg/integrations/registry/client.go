// Package registry resolves container image references against registries
// speaking the Docker Registry HTTP API v2.
//
// Resolution runs in two phases. The manifest is first requested without
// credentials, which is enough for public images on most registries. When
// that fails the client answers the registry's WWW-Authenticate challenge
// with a pull-scoped token request (sending credentials for the registry
// when a [CredentialSource] knows any) and retries.
//
// After the digest is known, [Client.Resolve] makes a best-effort pass over
// the image configuration blob to find a human-readable version label and
// a creation timestamp. Failures in that pass never fail the resolution.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/matzehuels/uptix/pkg/buildinfo"
	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/integrations"
)

// Docker manifest media types. OCI types come from image-spec.
const (
	MediaTypeDockerManifest     = "application/vnd.docker.distribution.manifest.v2+json"
	MediaTypeDockerManifestV1   = "application/vnd.docker.distribution.manifest.v1+prettyjws"
	MediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
)

// manifestMediaTypes is the negotiation preference for digest lookups,
// single-platform first.
var manifestMediaTypes = []string{
	MediaTypeDockerManifest,
	v1.MediaTypeImageManifest,
	MediaTypeDockerManifestV1,
	MediaTypeDockerManifestList,
	v1.MediaTypeImageIndex,
}

// singlePlatformTypes restricts the metadata manifest fetch.
var singlePlatformTypes = []string{
	MediaTypeDockerManifest,
	v1.MediaTypeImageManifest,
}

const versionLabel = "version"

// Client resolves image references. It holds no per-image state and is
// safe for concurrent use.
type Client struct {
	http  *integrations.Client
	creds CredentialSource
}

// NewClient creates a registry client. creds may be nil.
func NewClient(timeout time.Duration, creds CredentialSource) *Client {
	return &Client{
		http:  integrations.NewClient(map[string]string{"User-Agent": buildinfo.UserAgent()}, timeout),
		creds: creds,
	}
}

// WithHTTP replaces the underlying HTTP client.
func (c *Client) WithHTTP(h *integrations.Client) *Client {
	c.http = h
	return c
}

// Resolution is the outcome of resolving one reference.
type Resolution struct {
	Digest digest.Digest

	// Version is the image's version label, empty when unknown.
	Version string
	// Created is the image creation time, nil when unknown.
	Created *time.Time
	// EnrichErr records why Version/Created could not be determined. It is
	// informational only.
	EnrichErr error
}

// Resolve looks up the manifest digest for ref and enriches it with
// version metadata when available.
func (c *Client) Resolve(ctx context.Context, ref Reference) (*Resolution, error) {
	dgst, auth, err := c.Digest(ctx, ref)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Digest: dgst}
	res.Version, res.Created, res.EnrichErr = c.Metadata(ctx, ref, auth)
	return res, nil
}

// Digest performs the two-phase manifest lookup and returns the digest
// together with the Authorization header that succeeded (empty when the
// anonymous request worked).
func (c *Client) Digest(ctx context.Context, ref Reference) (digest.Digest, string, error) {
	if err := ref.Validate(); err != nil {
		return "", "", err
	}
	resp, err := c.manifest(ctx, http.MethodHead, ref, ref.Tag, manifestMediaTypes, "")
	if err != nil {
		return "", "", err
	}
	if resp.OK() {
		dgst, err := c.digestFrom(ctx, ref, resp, "")
		return dgst, "", err
	}

	auth, authErr := c.authorize(ctx, ref, resp)
	if authErr != nil {
		return "", "", fmt.Errorf("manifest %s returned status %d: %w", ref, resp.StatusCode, authErr)
	}

	resp, err = c.manifest(ctx, http.MethodHead, ref, ref.Tag, manifestMediaTypes, auth)
	if err != nil {
		return "", "", err
	}
	if err := integrations.CheckStatus(http.MethodHead, c.manifestURL(ref, ref.Tag), resp); err != nil {
		return "", "", err
	}
	dgst, err := c.digestFrom(ctx, ref, resp, auth)
	return dgst, auth, err
}

// digestFrom reads Docker-Content-Digest, falling back to digesting the
// manifest body when a registry omits the header on HEAD.
func (c *Client) digestFrom(ctx context.Context, ref Reference, resp *integrations.Response, auth string) (digest.Digest, error) {
	if header := resp.Header.Get("Docker-Content-Digest"); header != "" {
		dgst, err := digest.Parse(header)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodePayload, err, "registry returned malformed digest %q for %s", header, ref)
		}
		return dgst, nil
	}

	get, err := c.manifest(ctx, http.MethodGet, ref, ref.Tag, manifestMediaTypes, auth)
	if err != nil {
		return "", err
	}
	if err := integrations.CheckStatus(http.MethodGet, c.manifestURL(ref, ref.Tag), get); err != nil {
		return "", err
	}
	if header := get.Header.Get("Docker-Content-Digest"); header != "" {
		if dgst, err := digest.Parse(header); err == nil {
			return dgst, nil
		}
	}
	if len(get.Body) == 0 {
		return "", errors.New(errors.ErrCodeDigestNotFound, "no digest found for %s", ref)
	}
	return digest.FromBytes(get.Body), nil
}

func (c *Client) manifestURL(ref Reference, reference string) string {
	return fmt.Sprintf("%s/v2/%s/manifests/%s", ref.baseURL(), ref.RemotePath(), reference)
}

func (c *Client) manifest(ctx context.Context, method string, ref Reference, reference string, accept []string, auth string) (*integrations.Response, error) {
	headers := map[string]string{"Accept": acceptHeader(accept)}
	if auth != "" {
		headers["Authorization"] = auth
	}
	return c.http.Do(ctx, method, c.manifestURL(ref, reference), headers)
}

// acceptHeader ranks media types with descending quality values.
func acceptHeader(types []string) string {
	parts := make([]string, len(types))
	for i, t := range types {
		if i == 0 {
			parts[i] = t
			continue
		}
		parts[i] = fmt.Sprintf("%s;q=0.%d", t, 9-i)
	}
	return strings.Join(parts, ", ")
}

// manifestDoc covers both single-platform manifests and indexes.
type manifestDoc struct {
	MediaType string          `json:"mediaType"`
	Config    v1.Descriptor   `json:"config"`
	Manifests []v1.Descriptor `json:"manifests"`
}

// Metadata fetches the image configuration and extracts its version label
// and creation time. auth is the Authorization header returned by
// [Client.Digest]. [Client.Resolve] treats the error as informational.
func (c *Client) Metadata(ctx context.Context, ref Reference, auth string) (string, *time.Time, error) {
	doc, err := c.fetchManifest(ctx, ref, ref.Tag, auth)
	if err != nil {
		return "", nil, err
	}
	if len(doc.Manifests) > 0 {
		doc, err = c.fetchManifest(ctx, ref, doc.Manifests[0].Digest.String(), auth)
		if err != nil {
			return "", nil, err
		}
	}
	if doc.Config.Digest == "" {
		return "", nil, errors.New(errors.ErrCodePayload, "manifest for %s has no config descriptor", ref)
	}

	var img v1.Image
	if err := c.fetchJSON(ctx, fmt.Sprintf("%s/v2/%s/blobs/%s", ref.baseURL(), ref.RemotePath(), doc.Config.Digest), nil, auth, &img); err != nil {
		return "", nil, err
	}

	version := img.Config.Labels[v1.AnnotationVersion]
	if version == "" {
		version = img.Config.Labels[versionLabel]
	}
	return version, img.Created, nil
}

func (c *Client) fetchManifest(ctx context.Context, ref Reference, reference, auth string) (*manifestDoc, error) {
	var doc manifestDoc
	if err := c.fetchJSON(ctx, c.manifestURL(ref, reference), singlePlatformTypes, auth, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) fetchJSON(ctx context.Context, url string, accept []string, auth string, v any) error {
	headers := map[string]string{}
	if len(accept) > 0 {
		headers["Accept"] = acceptHeader(accept)
	}
	if auth != "" {
		headers["Authorization"] = auth
	}
	return c.http.GetWithHeaders(ctx, url, headers, v)
}

// FriendlyDigest shortens a digest to its algorithm and first 12 hex
// characters. Strings that are not digests are returned unchanged.
func FriendlyDigest(s string) string {
	dgst, err := digest.Parse(s)
	if err != nil {
		return s
	}
	encoded := dgst.Encoded()
	if len(encoded) > 12 {
		encoded = encoded[:12]
	}
	return dgst.Algorithm().String() + ":" + encoded
}
