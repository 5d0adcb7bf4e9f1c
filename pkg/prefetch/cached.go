package prefetch

import (
	"context"
	"regexp"

	"github.com/matzehuels/uptix/pkg/cache"
)

var commitRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Cached remembers the hashes of commit revisions. Tags and other
// movable refs are always hashed afresh.
type Cached struct {
	Hasher Hasher
	Cache  cache.Cache
}

// Hash implements Hasher. Cache failures fall through to the wrapped
// hasher.
func (c *Cached) Hash(ctx context.Context, src Source) (string, error) {
	if c.Cache == nil || !commitRe.MatchString(src.Rev) {
		return c.Hasher.Hash(ctx, src)
	}

	key := cache.Key("nix-prefetch-git", src)
	if data, hit, err := c.Cache.Get(ctx, key); err == nil && hit && len(data) > 0 {
		return string(data), nil
	}

	hash, err := c.Hasher.Hash(ctx, src)
	if err != nil {
		return "", err
	}
	_ = c.Cache.Set(ctx, key, []byte(hash), 0)
	return hash, nil
}
