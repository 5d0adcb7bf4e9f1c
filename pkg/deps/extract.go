package deps

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/nix"
)

// Namespace is the attribute set every declaration function lives in.
const Namespace = "uptix."

// Declaration function names.
const (
	FuncDockerImage   = "uptix.dockerImage"
	FuncGitHubBranch  = "uptix.githubBranch"
	FuncGitHubRelease = "uptix.githubRelease"
)

const (
	dockerHelp = `here is an example of valid usage:

  uptix.dockerImage "postgres:15"`

	branchHelp = `here is an example of valid usage:

  uptix.githubBranch {
    owner = "luizribeiro";
    repo = "uptix";
    branch = "main";
  }`

	releaseHelp = `here is an example of valid usage:

  uptix.githubRelease {
    owner = "luizribeiro";
    repo = "uptix";
  }`
)

type constructor func(x *extractor, fn string, arg *nix.Node) (Dependency, error)

var constructors = map[string]constructor{
	FuncDockerImage:   (*extractor).dockerImage,
	FuncGitHubBranch:  (*extractor).githubBranch,
	FuncGitHubRelease: (*extractor).githubRelease,
}

// ExtractSource parses src and extracts its declarations. file is used for
// error messages.
func ExtractSource(file, src string) ([]Dependency, error) {
	root, err := nix.Parse(src)
	if err != nil {
		var offset int
		var se *nix.SyntaxError
		if stderrors.As(err, &se) {
			offset = se.Offset
		}
		return nil, errors.Wrap(errors.ErrCodeSyntax, err, "%s", location(file, src, offset))
	}
	return Extract(file, src, root)
}

// Extract returns the declarations in root in depth-first source order.
// It stops at the first malformed declaration. Members of the namespace
// that are not declaration functions are skipped.
func Extract(file, src string, root *nix.Node) ([]Dependency, error) {
	x := &extractor{file: file, src: src}
	if err := x.visit(root); err != nil {
		return nil, err
	}
	return x.deps, nil
}

type extractor struct {
	file string
	src  string
	deps []Dependency
}

func (x *extractor) visit(n *nix.Node) error {
	if n == nil {
		return nil
	}
	if n.Kind() == nix.KindApply {
		if fn := n.FirstChild(); fn != nil && fn.Kind() == nix.KindSelect && strings.HasPrefix(fn.Text(), Namespace) {
			if build, ok := constructors[fn.Text()]; ok {
				arg := fn.NextSibling()
				if arg == nil {
					return nil
				}
				dep, err := build(x, fn.Text(), arg)
				if err != nil {
					return err
				}
				x.deps = append(x.deps, dep)
				return nil
			}
		}
	}
	for _, c := range n.Children() {
		if err := x.visit(c); err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) expectKind(fn string, arg *nix.Node, kind nix.Kind, help string) error {
	if arg.Kind() == kind {
		return nil
	}
	offset, length := arg.Span()
	return &errors.ArgumentError{
		Function:    fn,
		File:        x.file,
		Source:      x.src,
		ArgumentPos: errors.Position{Offset: offset, Length: length},
		Expected:    kind.String(),
		Help:        help,
	}
}

// invalid reports a bad value inside an otherwise well-shaped declaration.
func (x *extractor) invalid(n *nix.Node, format string, args ...any) error {
	offset, _ := n.Span()
	return errors.New(errors.ErrCodeInvalidDeclaration, "%s: %s", location(x.file, x.src, offset), fmt.Sprintf(format, args...))
}

func (x *extractor) dockerImage(fn string, arg *nix.Node) (Dependency, error) {
	if err := x.expectKind(fn, arg, nix.KindString, dockerHelp); err != nil {
		return nil, err
	}
	name, ok := arg.StringValue()
	if !ok {
		return nil, x.invalid(arg, "%s does not accept interpolated strings", fn)
	}
	d, err := NewContainerImage(name)
	if err != nil {
		return nil, x.invalid(arg, "%s", errors.UserMessage(err))
	}
	return d, nil
}

func (x *extractor) githubBranch(fn string, arg *nix.Node) (Dependency, error) {
	if err := x.expectKind(fn, arg, nix.KindAttrSet, branchHelp); err != nil {
		return nil, err
	}
	decl, err := x.record(fn, arg)
	if err != nil {
		return nil, err
	}
	if decl.Branch == "" {
		return nil, x.invalid(arg, "%s requires a branch", fn)
	}
	return &SourceBranch{GitHubSource: decl.source(), Branch: decl.Branch}, nil
}

func (x *extractor) githubRelease(fn string, arg *nix.Node) (Dependency, error) {
	if err := x.expectKind(fn, arg, nix.KindAttrSet, releaseHelp); err != nil {
		return nil, err
	}
	decl, err := x.record(fn, arg)
	if err != nil {
		return nil, err
	}
	if decl.Branch != "" {
		return nil, x.invalid(arg, "%s does not take a branch; use %s", fn, FuncGitHubBranch)
	}
	return &SourceRelease{GitHubSource: decl.source()}, nil
}

// declaration is the attribute set accepted by the GitHub functions.
type declaration struct {
	Owner           string `json:"owner"`
	Repo            string `json:"repo"`
	Branch          string `json:"branch"`
	FetchSubmodules bool   `json:"fetchSubmodules"`
	DeepClone       bool   `json:"deepClone"`
	LeaveDotGit     bool   `json:"leaveDotGit"`
	OverrideScheme  string `json:"override_scheme"`
	OverrideDomain  string `json:"override_domain"`
	OverrideHash    string `json:"override_nix_sha256"`
}

func (d declaration) source() GitHubSource {
	return GitHubSource{
		Owner:           d.Owner,
		Repo:            d.Repo,
		FetchSubmodules: d.FetchSubmodules,
		DeepClone:       d.DeepClone,
		LeaveDotGit:     d.LeaveDotGit,
		OverrideScheme:  d.OverrideScheme,
		OverrideDomain:  d.OverrideDomain,
		OverrideHash:    d.OverrideHash,
	}
}

// record converts an attribute set into a declaration by way of its JSON
// form, so attribute types are checked by the decoder.
func (x *extractor) record(fn string, set *nix.Node) (declaration, error) {
	value, err := x.value(set)
	if err != nil {
		return declaration{}, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return declaration{}, errors.Wrap(errors.ErrCodeInternal, err, "encode %s arguments", fn)
	}

	var decl declaration
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&decl); err != nil {
		return declaration{}, x.invalid(set, "bad arguments for %s: %v", fn, err)
	}

	if err := errors.ValidateGitHubName("owner", decl.Owner); err != nil {
		return declaration{}, x.invalid(set, "%s", errors.UserMessage(err))
	}
	if err := errors.ValidateGitHubName("repo", decl.Repo); err != nil {
		return declaration{}, x.invalid(set, "%s", errors.UserMessage(err))
	}
	if decl.OverrideScheme != "" {
		if err := errors.ValidateScheme(decl.OverrideScheme); err != nil {
			return declaration{}, x.invalid(set, "%s", errors.UserMessage(err))
		}
	}
	if decl.OverrideDomain != "" {
		if err := errors.ValidateHost(decl.OverrideDomain); err != nil {
			return declaration{}, x.invalid(set, "%s", errors.UserMessage(err))
		}
	}
	return decl, nil
}

// value converts a literal Nix expression into its JSON-compatible Go
// value.
func (x *extractor) value(n *nix.Node) (any, error) {
	switch n.Kind() {
	case nix.KindString:
		s, ok := n.StringValue()
		if !ok {
			return nil, x.invalid(n, "interpolated strings are not supported here")
		}
		return s, nil
	case nix.KindLiteral:
		switch {
		case n.IsInteger():
			v, err := strconv.ParseInt(n.Text(), 10, 64)
			if err != nil {
				return nil, x.invalid(n, "bad integer %s", n.Text())
			}
			return v, nil
		case n.IsFloat():
			v, err := strconv.ParseFloat(n.Text(), 64)
			if err != nil {
				return nil, x.invalid(n, "bad number %s", n.Text())
			}
			return v, nil
		}
	case nix.KindIdent:
		switch n.Text() {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
	case nix.KindAttrSet:
		return x.attrs(n)
	}
	return nil, x.invalid(n, "unsupported value %s (%s)", n.Text(), n.Kind())
}

func (x *extractor) attrs(set *nix.Node) (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range set.Children() {
		if kv.Kind() != nix.KindKeyValue {
			return nil, x.invalid(kv, "expected key = value, found %s", kv.Kind())
		}
		path, value := kv.FirstChild(), kv.FirstChild().NextSibling()

		var names []string
		for _, part := range path.Children() {
			name, err := x.attrName(part)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}

		v, err := x.value(value)
		if err != nil {
			return nil, err
		}

		target := out
		for _, name := range names[:len(names)-1] {
			next, ok := target[name].(map[string]any)
			if !ok {
				if _, exists := target[name]; exists {
					return nil, x.invalid(path, "attribute %s already defined", name)
				}
				next = make(map[string]any)
				target[name] = next
			}
			target = next
		}
		last := names[len(names)-1]
		if _, exists := target[last]; exists {
			return nil, x.invalid(path, "attribute %s already defined", last)
		}
		target[last] = v
	}
	return out, nil
}

func (x *extractor) attrName(n *nix.Node) (string, error) {
	switch n.Kind() {
	case nix.KindIdent:
		return n.Text(), nil
	case nix.KindString:
		if s, ok := n.StringValue(); ok {
			return s, nil
		}
	}
	return "", x.invalid(n, "dynamic attribute names are not supported here")
}

// location formats offset in src as file:line:col.
func location(file, src string, offset int) string {
	line, col := errors.LineCol(src, offset)
	return fmt.Sprintf("%s:%d:%d", file, line, col)
}
