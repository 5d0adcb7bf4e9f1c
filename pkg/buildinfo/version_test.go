package buildinfo

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v0.4.0"
	if got := UserAgent(); got != "uptix/v0.4.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "uptix/v0.4.0")
	}
	if !strings.Contains(Template(), "v0.4.0") {
		t.Errorf("Template() = %q, missing version", Template())
	}
}
