// Package pipeline runs the uptix update flow that the CLI commands share.
//
// The flow has three stages:
//
//  1. Collect: read Nix files and extract their uptix declarations
//  2. Resolve: look every selected declaration up against its registry
//  3. Commit: merge the results into the lock file and write it
//
// Two update strategies sit on top of these stages. [Runner.Rebuild]
// resolves every declaration into a fresh lock file and fails the whole run
// on the first error. [Runner.Selective] resolves only the dependencies
// matching a pattern and merges them into an existing lock file; entries it
// does not touch keep their exact bytes.
//
// # Usage
//
//	runner := pipeline.NewRunner(deps.NewResolvers(opts), 4, logger)
//	declared, err := runner.Collect(ctx, files)
//	if err != nil {
//	    return err
//	}
//	lock, err := runner.Rebuild(ctx, declared)
//	if err != nil {
//	    return err
//	}
//	return runner.Commit(ctx, lock, "uptix.lock")
package pipeline
