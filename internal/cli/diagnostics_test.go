package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/pipeline"
)

func TestRenderArgumentErrorTabs(t *testing.T) {
	src := "{\n\timg = uptix.dockerImage { name = \"x\"; };\n}"
	offset := strings.Index(src, "{ name")
	err := &errors.ArgumentError{
		Function:    "uptix.dockerImage",
		File:        "tabs.nix",
		Source:      src,
		ArgumentPos: errors.Position{Offset: offset, Length: len(`{ name = "x"; }`)},
		Expected:    "NODE_STRING",
	}

	var buf bytes.Buffer
	PrintError(&buf, err)
	out := buf.String()

	if !strings.Contains(out, "tabs.nix:2:26") {
		t.Errorf("missing location:\n%s", out)
	}
	if !strings.Contains(out, "| \t"+strings.Repeat(" ", 24)+strings.Repeat("^", 15)) {
		t.Errorf("caret not aligned under argument:\n%s", out)
	}
	if strings.Contains(out, "help:") {
		t.Errorf("help printed without help text:\n%s", out)
	}
}

func TestPrintErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.Wrap(errors.ErrCodeIO, bytes.ErrTooLarge, "read a.nix"))
	if !strings.Contains(buf.String(), "read a.nix: bytes.Buffer: too large") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("nil error printed %q", buf.String())
	}
}

func TestPrintErrorNamesDependency(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "hash tool",
			err:  &pipeline.ResolveError{Key: "$GITHUB_RELEASE$:o/r$", Err: errors.New(errors.ErrCodeHashTool, "nix-prefetch-git failed")},
			want: []string{"$GITHUB_RELEASE$:o/r$: ", "nix-prefetch-git failed"},
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("update: %w", &pipeline.ResolveError{Key: "postgres:15", Err: errors.Wrap(errors.ErrCodeRegistry, bytes.ErrTooLarge, "fetch manifest")}),
			want: []string{"postgres:15: ", "fetch manifest", "too large"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tt.err)
			for _, s := range tt.want {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("output = %q, want it to contain %q", buf.String(), s)
				}
			}
		})
	}
}
