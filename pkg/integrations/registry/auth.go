package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/cpuguy83/dockercfg"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/integrations"
)

// Credentials authenticate token requests against a registry.
type Credentials struct {
	Username string
	Password string
}

// CredentialSource looks up credentials for a registry host.
type CredentialSource interface {
	Lookup(host string) (Credentials, bool)
}

// Chain tries each source in order and returns the first hit.
type Chain []CredentialSource

// Lookup implements CredentialSource.
func (c Chain) Lookup(host string) (Credentials, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if creds, ok := src.Lookup(host); ok {
			return creds, true
		}
	}
	return Credentials{}, false
}

// EnvCredentials reads DOCKER_USERNAME and DOCKER_PASSWORD. They only apply
// to the default registry.
type EnvCredentials struct{}

// Lookup implements CredentialSource.
func (EnvCredentials) Lookup(host string) (Credentials, bool) {
	if host != DefaultRegistry {
		return Credentials{}, false
	}
	user, pass := os.Getenv("DOCKER_USERNAME"), os.Getenv("DOCKER_PASSWORD")
	if user == "" || pass == "" {
		return Credentials{}, false
	}
	return Credentials{Username: user, Password: pass}, true
}

// DockerConfig reads credentials from a Docker CLI config file. An empty
// Path means $DOCKER_CONFIG/config.json or ~/.docker/config.json.
type DockerConfig struct {
	Path string
}

// Lookup implements CredentialSource. For the default registry every known
// alias is tried.
func (d DockerConfig) Lookup(host string) (Credentials, bool) {
	var cfg dockercfg.Config
	var err error
	if d.Path == "" {
		cfg, err = dockercfg.LoadDefaultConfig()
	} else {
		err = dockercfg.FromFile(d.Path, &cfg)
	}
	if err != nil {
		return Credentials{}, false
	}

	hosts := []string{host}
	if host == DefaultRegistry {
		hosts = defaultRegistryAliases
	}
	for _, h := range hosts {
		_, inAuths := cfg.AuthConfigs[h]
		_, hasHelper := cfg.CredentialHelpers[h]
		if !inAuths && !hasHelper {
			continue
		}
		user, pass, err := cfg.GetRegistryCredentials(h)
		if err == nil && pass != "" {
			return Credentials{Username: user, Password: pass}, true
		}
	}

	if cfg.CredentialsStore != "" {
		user, pass, err := cfg.GetRegistryCredentials(dockercfg.ResolveRegistryHost(host))
		if err == nil && pass != "" {
			return Credentials{Username: user, Password: pass}, true
		}
	}
	return Credentials{}, false
}

// challenge is a parsed WWW-Authenticate header.
type challenge struct {
	scheme string
	params map[string]string
}

// parseChallenge parses `Bearer realm="...",service="...",scope="..."`.
func parseChallenge(header string) (challenge, bool) {
	header = strings.TrimSpace(header)
	scheme, rest, _ := strings.Cut(header, " ")
	if scheme == "" {
		return challenge{}, false
	}
	c := challenge{scheme: strings.ToLower(scheme), params: map[string]string{}}

	for rest = strings.TrimSpace(rest); rest != ""; rest = strings.TrimLeft(strings.TrimSpace(rest), ",") {
		key, after, ok := strings.Cut(rest, "=")
		if !ok {
			break
		}
		key = strings.ToLower(strings.TrimSpace(key))
		var value string
		if strings.HasPrefix(after, `"`) {
			end := strings.Index(after[1:], `"`)
			if end < 0 {
				return challenge{}, false
			}
			value = after[1 : end+1]
			rest = after[end+2:]
		} else {
			value, rest, _ = strings.Cut(after, ",")
		}
		c.params[key] = strings.TrimSpace(value)
	}
	return c, true
}

type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// authorize answers the challenge carried by a failed response and returns
// an Authorization header value. When the failed response carries no
// challenge, one is requested from the /v2/ endpoint.
func (c *Client) authorize(ctx context.Context, ref Reference, failed *integrations.Response) (string, error) {
	header := ""
	if failed != nil {
		header = failed.Header.Get("WWW-Authenticate")
	}
	if header == "" {
		resp, err := c.http.Do(ctx, http.MethodGet, ref.baseURL()+"/v2/", nil)
		if err != nil {
			return "", err
		}
		header = resp.Header.Get("WWW-Authenticate")
	}

	ch, ok := parseChallenge(header)
	if !ok {
		return "", errors.New(errors.ErrCodeUnauthorized, "registry %s sent no authentication challenge", ref.Registry)
	}

	creds, hasCreds := Credentials{}, false
	if c.creds != nil {
		creds, hasCreds = c.creds.Lookup(ref.Registry)
	}

	switch ch.scheme {
	case "basic":
		if !hasCreds {
			return "", errors.New(errors.ErrCodeUnauthorized, "registry %s requires credentials", ref.Registry)
		}
		return "Basic " + basicAuth(creds), nil
	case "bearer":
		return c.bearerToken(ctx, ref, ch, creds, hasCreds)
	default:
		return "", errors.New(errors.ErrCodeUnauthorized, "registry %s: unsupported auth scheme %q", ref.Registry, ch.scheme)
	}
}

func (c *Client) bearerToken(ctx context.Context, ref Reference, ch challenge, creds Credentials, hasCreds bool) (string, error) {
	realm := ch.params["realm"]
	if realm == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "registry %s: bearer challenge without realm", ref.Registry)
	}
	u, err := url.Parse(realm)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnauthorized, err, "registry %s: bad token realm %q", ref.Registry, realm)
	}
	q := u.Query()
	if svc := ch.params["service"]; svc != "" {
		q.Set("service", svc)
	}
	q.Set("scope", "repository:"+ref.RemotePath()+":pull")
	u.RawQuery = q.Encode()

	var headers map[string]string
	if hasCreds {
		headers = map[string]string{"Authorization": "Basic " + basicAuth(creds)}
	}

	resp, err := c.http.Do(ctx, http.MethodGet, u.String(), headers)
	if err != nil {
		return "", err
	}
	if err := integrations.CheckStatus(http.MethodGet, u.String(), resp); err != nil {
		return "", errors.Wrap(errors.ErrCodeUnauthorized, err, "token request for %s", ref.RemotePath())
	}

	var tok tokenResponse
	if err := json.Unmarshal(resp.Body, &tok); err != nil {
		return "", errors.Wrap(errors.ErrCodePayload, err, "decode token response")
	}
	token := tok.Token
	if token == "" {
		token = tok.AccessToken
	}
	if token == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "token response for %s carried no token", ref.RemotePath())
	}
	return "Bearer " + token, nil
}

func basicAuth(creds Credentials) string {
	return base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
}
