package prefetch

import (
	"context"
	"testing"

	"github.com/matzehuels/uptix/pkg/cache"
)

func TestCached(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	c := &Cached{
		Hasher: HasherFunc(func(_ context.Context, src Source) (string, error) {
			calls++
			return "0hash-" + src.Rev, nil
		}),
		Cache: store,
	}

	commit := Source{Owner: "o", Repo: "r", Rev: "b28012d8b7f8ef54492c66f3a77074391e9818b9"}
	for i := 0; i < 2; i++ {
		got, err := c.Hash(ctx, commit)
		if err != nil {
			t.Fatal(err)
		}
		if got != "0hash-"+commit.Rev {
			t.Errorf("Hash() = %q", got)
		}
	}
	if calls != 1 {
		t.Errorf("hasher ran %d times for a commit, want 1", calls)
	}

	deep := commit
	deep.DeepClone = true
	if _, err := c.Hash(ctx, deep); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("flags should be part of the cache key; hasher ran %d times", calls)
	}

	tag := Source{Owner: "o", Repo: "r", Rev: "v1.0.0"}
	_, _ = c.Hash(ctx, tag)
	_, _ = c.Hash(ctx, tag)
	if calls != 4 {
		t.Errorf("tags should not be cached; hasher ran %d times", calls)
	}
}

func TestCachedWithoutCache(t *testing.T) {
	calls := 0
	c := &Cached{Hasher: HasherFunc(func(context.Context, Source) (string, error) {
		calls++
		return "0h", nil
	})}
	src := Source{Owner: "o", Repo: "r", Rev: "b28012d8b7f8ef54492c66f3a77074391e9818b9"}
	_, _ = c.Hash(context.Background(), src)
	_, _ = c.Hash(context.Background(), src)
	if calls != 2 {
		t.Errorf("hasher ran %d times, want 2", calls)
	}
}
