package lockfile

import (
	"bytes"
	"encoding/json"
)

// Dependency type tags stored in Metadata.DepType.
const (
	TypeDocker        = "docker"
	TypeGitHubBranch  = "github-branch"
	TypeGitHubRelease = "github-release"
)

// Metadata describes a locked dependency independently of its kind.
type Metadata struct {
	Name            string `json:"name"`
	SelectedVersion string `json:"selected_version,omitempty"`
	ResolvedVersion string `json:"resolved_version,omitempty"`
	FriendlyVersion string `json:"friendly_version,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
	DepType         string `json:"dep_type"`
	Description     string `json:"description"`
}

// Entry is one value of the lock file. Lock is kind-specific and opaque to
// this package.
type Entry struct {
	Metadata Metadata        `json:"metadata"`
	Lock     json.RawMessage `json:"lock"`

	// Legacy is set for entries stored as a bare string.
	Legacy bool `json:"-"`
}

// Version returns the most human-readable version the entry records.
func (e Entry) Version() string {
	if e.Legacy {
		var s string
		_ = json.Unmarshal(e.Lock, &s)
		return s
	}
	switch {
	case e.Metadata.FriendlyVersion != "":
		return e.Metadata.FriendlyVersion
	case e.Metadata.ResolvedVersion != "":
		return e.Metadata.ResolvedVersion
	default:
		return string(e.Lock)
	}
}

// Type returns the dependency type tag, or "legacy" for bare entries.
func (e Entry) Type() string {
	if e.Legacy {
		return "legacy"
	}
	return e.Metadata.DepType
}

func decodeEntry(raw json.RawMessage) (Entry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Entry{}, err
		}
		return Entry{Lock: json.RawMessage(trimmed), Legacy: true}, nil
	}

	var e Entry
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&e); err != nil {
		return Entry{}, err
	}
	if len(e.Lock) == 0 || e.Metadata.DepType == "" {
		return Entry{}, errMissingFields
	}
	var lock bytes.Buffer
	if err := json.Compact(&lock, e.Lock); err != nil {
		return Entry{}, err
	}
	e.Lock = lock.Bytes()
	return e, nil
}

// encodeEntry renders e the way it sits inside the lock file object: two
// space indent nested one level deep, HTML characters left alone.
func encodeEntry(e Entry) (json.RawMessage, error) {
	if e.Legacy {
		return e.Lock, nil
	}
	data, err := marshalNoEscape(e)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "  ", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
