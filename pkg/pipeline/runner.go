package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/uptix/pkg/deps"
	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/lockfile"
	"github.com/matzehuels/uptix/pkg/observability"
)

// DefaultJobs bounds concurrent resolutions. Registries rate limit
// anonymous pulls, so it stays small.
const DefaultJobs = 4

// Runner executes the update stages against a fixed set of resolvers.
//
// The Runner holds no per-run state. Multiple goroutines can use the same
// Runner with different inputs.
type Runner struct {
	Resolvers deps.Resolvers
	Jobs      int
	Logger    *log.Logger
}

// NewRunner creates a runner. jobs <= 0 means [DefaultJobs]; a nil logger
// means log.Default().
func NewRunner(r deps.Resolvers, jobs int, logger *log.Logger) *Runner {
	if jobs <= 0 {
		jobs = DefaultJobs
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Resolvers: r, Jobs: jobs, Logger: logger}
}

// Collect reads files in order and returns their declarations in source
// order. It stops at the first file that cannot be read or that holds an
// invalid declaration.
func (r *Runner) Collect(ctx context.Context, files []string) ([]deps.Dependency, error) {
	hooks := observability.Resolve()
	var out []deps.Dependency
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := os.ReadFile(file)
		if err != nil {
			err = errors.Wrap(errors.ErrCodeIO, err, "read %s", file)
			hooks.OnExtract(ctx, file, 0, err)
			return nil, err
		}
		found, err := deps.ExtractSource(file, string(src))
		hooks.OnExtract(ctx, file, len(found), err)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}

	r.Logger.Debug("collected declarations", "files", len(files), "dependencies", len(out))
	return out, nil
}

// Commit writes f to path.
func (r *Runner) Commit(ctx context.Context, f *lockfile.File, path string) error {
	err := f.Save(path)
	observability.Resolve().OnLockWrite(ctx, path, f.Len(), err)
	if err != nil {
		return err
	}
	r.Logger.Info("wrote lock file", "path", path, "entries", f.Len())
	return nil
}

// resolve locks a single dependency and reports it through the hooks.
func (r *Runner) resolve(ctx context.Context, d deps.Dependency) (lockfile.Entry, error) {
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, d.Type(), d.Key())
	start := time.Now()

	entry, err := d.Lock(ctx, r.Resolvers)

	elapsed := time.Since(start)
	hooks.OnResolveComplete(ctx, d.Type(), d.Key(), elapsed, err)
	if err != nil {
		return lockfile.Entry{}, &ResolveError{Key: d.Key(), Err: err}
	}
	r.Logger.Debug("resolved", "key", d.Key(), "version", entry.Version(), "duration", elapsed)
	return entry, nil
}

// ResolveError ties a resolution failure to the dependency key.
type ResolveError struct {
	Key string
	Err error
}

func (e *ResolveError) Error() string { return e.Key + ": " + e.Err.Error() }

func (e *ResolveError) Unwrap() error { return e.Err }
