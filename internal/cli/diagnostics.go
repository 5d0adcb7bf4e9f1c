package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/pipeline"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitCorruptLock = 2
	ExitInterrupted = 130
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, errors.ErrCodeLockCorrupt):
		return ExitCorruptLock
	default:
		return ExitFailure
	}
}

// PrintError writes err for a human. Declarations with a badly shaped
// argument get a source excerpt with the argument underlined.
func PrintError(w io.Writer, err error) {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return
	}
	var argErr *errors.ArgumentError
	if stderrors.As(err, &argErr) {
		renderArgumentError(w, argErr)
		return
	}
	var resolveErr *pipeline.ResolveError
	if stderrors.As(err, &resolveErr) {
		printError(w, "%s: %s", resolveErr.Key, errors.UserMessage(resolveErr.Err))
		return
	}
	printError(w, "%s", errors.UserMessage(err))
}

// renderArgumentError prints:
//
//	error: unexpected argument for uptix.githubBranch
//	  --> hosts/ha.nix:2:28
//	   |
//	 2 |   hass = uptix.githubBranch 42;
//	   |                             ^^ expected NODE_ATTR_SET
//	   |
//	help: here is an example of valid usage: ...
func renderArgumentError(w io.Writer, e *errors.ArgumentError) {
	line, col := e.LineCol()
	text := sourceLine(e.Source, line)
	num := strconv.Itoa(line)
	pad := strings.Repeat(" ", len(num))

	width := e.ArgumentPos.Length
	if rest := len(text) - (col - 1); width > rest {
		width = rest
	}
	if width < 1 {
		width = 1
	}

	fmt.Fprintln(w, StyleError.Render("error")+": unexpected argument for "+e.Function)
	fmt.Fprintf(w, "%s %s %s\n", pad, styleGutter.Render("-->"), styleLocation.Render(fmt.Sprintf("%s:%d:%d", e.File, line, col)))
	fmt.Fprintf(w, "%s %s\n", pad, styleGutter.Render("|"))
	fmt.Fprintf(w, "%s %s %s\n", styleGutter.Render(num), styleGutter.Render("|"), text)
	fmt.Fprintf(w, "%s %s %s%s %s\n", pad, styleGutter.Render("|"),
		caretIndent(text, col),
		StyleError.Render(strings.Repeat("^", width)),
		StyleError.Render("expected "+e.Expected))
	fmt.Fprintf(w, "%s %s\n", pad, styleGutter.Render("|"))
	if e.Help != "" {
		fmt.Fprintln(w, styleHelp.Render("help")+": "+e.Help)
	}
}

// sourceLine returns the 1-based line of src without its newline.
func sourceLine(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// caretIndent blanks text up to col. Tabs are kept so the caret lines up
// with the echoed source.
func caretIndent(text string, col int) string {
	n := col - 1
	if n > len(text) {
		n = len(text)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if text[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
