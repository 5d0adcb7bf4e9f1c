package errors

import (
	"testing"
)

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"image", "postgres", false},
		{"image with tag", "postgres:15", false},
		{"owner repo", "luizribeiro/uptix", false},
		{"internal key", "$GITHUB_RELEASE$:luizribeiro/uptix$", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 600)), true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePattern(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePattern(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGitHubName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "uptix", false},
		{"dash and dot", "home-assistant.io", false},
		{"underscore", "my_repo", false},

		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "a/b", true},
		{"space", "a b", true},
		{"query", "a?b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGitHubName("repo", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGitHubName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidDeclaration) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidDeclaration)
			}
		})
	}
}

func TestValidateSchemeAndHost(t *testing.T) {
	if err := ValidateScheme("https"); err != nil {
		t.Errorf("ValidateScheme(https) = %v", err)
	}
	if err := ValidateScheme("ftp"); err == nil {
		t.Error("ValidateScheme(ftp) = nil, want error")
	}

	for _, host := range []string{"api.github.com", "127.0.0.1:8080", "localhost"} {
		if err := ValidateHost(host); err != nil {
			t.Errorf("ValidateHost(%q) = %v", host, err)
		}
	}
	for _, host := range []string{"", "evil.com/path", "a@b", "a b"} {
		if err := ValidateHost(host); err == nil {
			t.Errorf("ValidateHost(%q) = nil, want error", host)
		}
	}
}
