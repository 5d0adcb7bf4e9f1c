package nix

import (
	"strings"
	"testing"

	"github.com/matzehuels/uptix/pkg/errors"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return root
}

func find(root *Node, kind Kind) []*Node {
	var out []*Node
	root.Walk(func(n *Node) bool {
		if n.Kind() == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

func TestParseApplySpans(t *testing.T) {
	root := mustParse(t, `{ hass = uptix.githubBranch 42; }`)

	applies := find(root, KindApply)
	if len(applies) != 1 {
		t.Fatalf("got %d apply nodes, want 1", len(applies))
	}
	fn := applies[0].FirstChild()
	if fn.Kind() != KindSelect {
		t.Fatalf("function kind = %v, want NODE_SELECT", fn.Kind())
	}
	if fn.Text() != "uptix.githubBranch" {
		t.Errorf("function text = %q", fn.Text())
	}

	arg := fn.NextSibling()
	if arg == nil {
		t.Fatal("argument missing")
	}
	off, length := arg.Span()
	if off != 28 || length != 2 {
		t.Errorf("argument span = (%d, %d), want (28, 2)", off, length)
	}
	if !arg.IsInteger() {
		t.Errorf("argument kind = %v, want integer literal", arg.Kind())
	}
	if arg.NextSibling() != nil {
		t.Error("argument should be the last child")
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain", `"postgres:15"`, "postgres:15"},
		{"escapes", `"a\"b\n"`, "a\"b\n"},
		{"dollar escape", `"$${x}"`, "${x}"},
		{"indented", "''\n    hello\n      world\n  ''", "hello\n  world\n"},
		{"indented escape", "''a'''b''$c''", "a''b$c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.src)
			got, ok := root.FirstChild().StringValue()
			if !ok {
				t.Fatalf("StringValue() not ok for %v", root.FirstChild().Kind())
			}
			if got != tt.want {
				t.Errorf("StringValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInterpolation(t *testing.T) {
	root := mustParse(t, `"prefix-${uptix.dockerImage "redis:7"}-suffix"`)

	str := root.FirstChild()
	if _, ok := str.StringValue(); ok {
		t.Error("interpolated string should not have a plain value")
	}
	applies := find(root, KindApply)
	if len(applies) != 1 {
		t.Fatalf("got %d apply nodes inside interpolation, want 1", len(applies))
	}
	if got := applies[0].Text(); got != `uptix.dockerImage "redis:7"` {
		t.Errorf("apply text = %q", got)
	}
}

func TestParseModule(t *testing.T) {
	src := `
# A NixOS module
{ config, lib, pkgs, ... }:

let
  inherit (lib) mkIf;
  cfg = config.services.foo;
  ports = [ 80 443 ];
  url = https://example.com/foo;
  src = ./files/default.conf;
in
{
  /* containers */
  virtualisation.oci-containers.containers.db = mkIf cfg.enable {
    image = uptix.dockerImage "postgres:15";
    ports = map (p: "${toString p}:${toString p}") ports;
  };
  services.home-assistant.package = (pkgs.home-assistant.override {
    extraPackages = ps: with ps; [ psycopg2 ];
  }).overrideAttrs (old: rec {
    src = pkgs.fetchFromGitHub (uptix.githubRelease {
      owner = "home-assistant";
      repo = "core";
    });
    doCheck = !old.doCheck or false && 1 + 2 * 3 > 4;
  });
  enabled = if cfg ? enable then cfg.enable else false;
  merged = { a = 1; } // { b = -2.5; };
  assertion = assert true; "ok";
}
`
	root := mustParse(t, src)

	var calls []string
	for _, n := range find(root, KindApply) {
		if fn := n.FirstChild(); fn.Kind() == KindSelect && strings.HasPrefix(fn.Text(), "uptix.") {
			calls = append(calls, fn.Text())
		}
	}
	want := []string{"uptix.dockerImage", "uptix.githubRelease"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	if lambdas := find(root, KindLambda); len(lambdas) != 4 {
		t.Errorf("got %d lambdas, want 4", len(lambdas))
	}
	if paths := find(root, KindPath); len(paths) != 1 {
		t.Errorf("got %d paths, want 1", len(paths))
	}
	if has := find(root, KindHasAttr); len(has) != 1 {
		t.Errorf("got %d has-attr nodes, want 1", len(has))
	}
}

func TestParseEmpty(t *testing.T) {
	root := mustParse(t, "  # only a comment\n")
	if len(root.Children()) != 0 {
		t.Errorf("empty source should produce a childless root")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		`{ a = 1; `,
		`"unterminated`,
		`{ a = ; }`,
		`let a = 1; a`,
		`[ 1 2`,
		`/* open`,
		`1 2 )`,
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			if err == nil {
				t.Fatalf("Parse(%q) = nil error", src)
			}
			if !errors.Is(err, errors.ErrCodeSyntax) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeSyntax)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindAttrSet.String() != "NODE_ATTR_SET" {
		t.Errorf("KindAttrSet = %s", KindAttrSet)
	}
	if KindString.String() != "NODE_STRING" {
		t.Errorf("KindString = %s", KindString)
	}
	if Kind(999).String() != "NODE_UNKNOWN" {
		t.Errorf("unknown kind = %s", Kind(999))
	}
}
