// Package prefetch computes Nix content hashes for GitHub sources.
//
// The hash is what fetchFromGitHub and fetchgit expect in their sha256
// attribute, so it has to be produced by the same tool Nix uses. [Hasher]
// keeps that tool behind an interface so resolution logic can be tested
// with a fake.
package prefetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/matzehuels/uptix/pkg/errors"
)

// Source identifies a repository revision and the fetch flags that affect
// its hash.
type Source struct {
	Owner           string
	Repo            string
	Rev             string
	FetchSubmodules bool
	DeepClone       bool
	LeaveDotGit     bool
}

// URL returns the clone URL passed to the hashing tool.
func (s Source) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/", s.Owner, s.Repo)
}

// Hasher computes the Nix hash of a source.
type Hasher interface {
	Hash(ctx context.Context, src Source) (string, error)
}

// HasherFunc adapts a function to [Hasher].
type HasherFunc func(ctx context.Context, src Source) (string, error)

// Hash implements Hasher.
func (f HasherFunc) Hash(ctx context.Context, src Source) (string, error) {
	return f(ctx, src)
}

// DefaultCommand is the executable NixPrefetchGit runs when Command is empty.
const DefaultCommand = "nix-prefetch-git"

// NixPrefetchGit hashes sources with nix-prefetch-git. Invocations are
// serialized since concurrent runs share the Nix store and temp dirs.
type NixPrefetchGit struct {
	Command string

	mu sync.Mutex
}

// Hash implements Hasher.
func (n *NixPrefetchGit) Hash(ctx context.Context, src Source) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	name := n.Command
	if name == "" {
		name = DefaultCommand
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, Args(src)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.Wrap(errors.ErrCodeHashTool, err, "%s %s@%s: %s", name, src.URL(), src.Rev, msg)
	}
	return ParseOutput(stdout.Bytes())
}

// Args builds the nix-prefetch-git command line for src. A deep clone
// always keeps .git, matching fetchgit.
func Args(src Source) []string {
	var args []string
	if src.DeepClone {
		args = append(args, "--deepClone")
	} else {
		args = append(args, "--no-deepClone")
	}
	if src.FetchSubmodules {
		args = append(args, "--fetch-submodules")
	}
	if src.LeaveDotGit || src.DeepClone {
		args = append(args, "--leave-dotGit")
	}
	return append(args, "--quiet", "--rev", src.Rev, src.URL())
}

type output struct {
	SHA256 string `json:"sha256"`
}

// ParseOutput extracts the hash from nix-prefetch-git's JSON output.
func ParseOutput(data []byte) (string, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.Wrap(errors.ErrCodePayload, err, "decode nix-prefetch-git output")
	}
	if out.SHA256 == "" {
		return "", errors.New(errors.ErrCodePayload, "nix-prefetch-git output has no sha256")
	}
	return out.SHA256, nil
}
