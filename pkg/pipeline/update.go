package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/uptix/pkg/deps"
	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/lockfile"
)

// Rebuild resolves every declared dependency into a new lock file. The
// first failure cancels the remaining resolutions and is returned as a
// [*ResolveError]; no partial lock file is produced.
func (r *Runner) Rebuild(ctx context.Context, declared []deps.Dependency) (*lockfile.File, error) {
	entries := make([]lockfile.Entry, len(declared))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.Jobs)
	for i, d := range declared {
		g.Go(func() error {
			entry, err := r.resolve(groupCtx, d)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := lockfile.New()
	for i, d := range declared {
		if err := f.Merge(d.Key(), entries[i]); err != nil {
			return nil, err
		}
	}
	r.Logger.Info("resolved dependencies", "count", len(declared))
	return f, nil
}

// Failure is a dependency that could not be resolved during a selective
// update.
type Failure struct {
	Key string
	Err error
}

// Report describes a selective update.
type Report struct {
	Matched []string  // keys selected by the pattern
	Updated []string  // keys merged into the lock file
	Failed  []Failure // keys left as they were
}

// Selective resolves the dependencies matching pattern and merges them into
// store. Declared dependencies are searched first; when none match, the
// entries already in store are reconstructed and searched instead. No
// match at all is an [errors.ErrCodeNotFound] error.
//
// A failing dependency does not stop the others. It is listed in the report
// and its stored entry stays untouched.
func (r *Runner) Selective(ctx context.Context, declared []deps.Dependency, store *lockfile.File, pattern string) (*Report, error) {
	if err := errors.ValidatePattern(pattern); err != nil {
		return nil, err
	}

	matched := deps.Select(declared, pattern)
	if len(matched) == 0 {
		matched = deps.Select(Stored(store), pattern)
	}
	if len(matched) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "Dependency '%s' not found", pattern)
	}

	r.Logger.Info("selected dependencies", "pattern", pattern, "count", len(matched))
	return r.Update(ctx, matched, store)
}

// Update resolves selected and merges every success into store. Failures
// are collected in the report; they never abort the other resolutions.
func (r *Runner) Update(ctx context.Context, selected []deps.Dependency, store *lockfile.File) (*Report, error) {
	report := &Report{Matched: make([]string, len(selected))}
	for i, d := range selected {
		report.Matched[i] = d.Key()
	}

	entries := make([]lockfile.Entry, len(selected))
	errs := make([]error, len(selected))

	var g errgroup.Group
	g.SetLimit(r.Jobs)
	for i, d := range selected {
		g.Go(func() error {
			entries[i], errs[i] = r.resolve(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	for i, d := range selected {
		if errs[i] != nil {
			r.Logger.Warn("resolution failed", "key", d.Key(), "err", errs[i])
			report.Failed = append(report.Failed, Failure{Key: d.Key(), Err: errs[i]})
			continue
		}
		if err := store.Merge(d.Key(), entries[i]); err != nil {
			return nil, err
		}
		report.Updated = append(report.Updated, d.Key())
	}
	return report, nil
}

// Stored reconstructs the dependencies recorded in f, in key order.
// Entries that cannot be reconstructed are skipped.
func Stored(f *lockfile.File) []deps.Dependency {
	var out []deps.Dependency
	for _, key := range f.Keys() {
		entry, ok := f.Get(key)
		if !ok {
			continue
		}
		if d, ok := deps.FromLockEntry(key, entry); ok {
			out = append(out, d)
		}
	}
	return out
}
