// Package pkg provides the libraries behind uptix, a tool that pins the
// upstream dependencies declared in Nix files.
//
// # Overview
//
// A Nix configuration declares dependencies by calling helpers such as
// uptix.dockerImage "postgres:15" or uptix.githubRelease { ... }. uptix
// finds those calls, resolves each one against its upstream (a container
// registry or GitHub) and records the result in a deterministic lock file,
// uptix.lock, which the Nix side reads back.
//
// The pkg directory is organized into these areas:
//
//  1. [nix] - Lossless Nix parser exposing a syntax tree with byte spans
//  2. [deps] - Dependency model, extraction from syntax trees and resolvers
//  3. [integrations] - HTTP clients for container registries and GitHub
//  4. [prefetch] - Content hashing through nix-prefetch-git
//  5. [lockfile] - Reading, merging and atomically writing uptix.lock
//  6. [pipeline] - Orchestration (collect, resolve, commit)
//
// # Architecture
//
// The data flow for a full update:
//
//	*.nix files ([source] discovery)
//	         ↓
//	    [nix] package (parse)
//	         ↓
//	    [deps] package (extract declarations)
//	         ↓
//	    [deps] resolvers ([integrations/registry], [integrations/github], [prefetch])
//	         ↓
//	    [lockfile] package (merge + save)
//
// # Quick Start
//
// Rebuild a lock file from a directory of Nix files:
//
//	files, _ := source.Discover(".", nil)
//	runner := pipeline.NewRunner(deps.NewResolvers(deps.Options{}), 0, nil)
//	declared, _ := runner.Collect(ctx, files)
//	lock, _ := runner.Rebuild(ctx, declared)
//	_ = runner.Commit(ctx, lock, lockfile.DefaultPath)
//
// # Supporting Packages
//
//   - [errors] - Coded errors with user-facing messages
//   - [observability] - Hooks for resolution and HTTP events
//   - [httputil] - Retry helpers for transient failures
//   - [cache] - Key-value cache for prefetch hashes
//   - [buildinfo] - Version information and user agent
//
// [nix]: github.com/matzehuels/uptix/pkg/nix
// [deps]: github.com/matzehuels/uptix/pkg/deps
// [integrations]: github.com/matzehuels/uptix/pkg/integrations
// [integrations/registry]: github.com/matzehuels/uptix/pkg/integrations/registry
// [integrations/github]: github.com/matzehuels/uptix/pkg/integrations/github
// [prefetch]: github.com/matzehuels/uptix/pkg/prefetch
// [lockfile]: github.com/matzehuels/uptix/pkg/lockfile
// [pipeline]: github.com/matzehuels/uptix/pkg/pipeline
// [source]: github.com/matzehuels/uptix/pkg/source
// [errors]: github.com/matzehuels/uptix/pkg/errors
// [observability]: github.com/matzehuels/uptix/pkg/observability
// [httputil]: github.com/matzehuels/uptix/pkg/httputil
// [cache]: github.com/matzehuels/uptix/pkg/cache
// [buildinfo]: github.com/matzehuels/uptix/pkg/buildinfo
package pkg
