// Package github resolves GitHub branch heads and latest releases through
// the REST API.
//
// # Usage
//
//	client := github.NewClient(github.DefaultBaseURL, os.Getenv("GITHUB_TOKEN"), 10*time.Second)
//
//	sha, err := client.BranchHead(ctx, "home-assistant", "core", "dev")
//	rel, err := client.LatestRelease(ctx, "home-assistant", "core")
//
// # Authentication
//
// A token is optional. Without one, the API allows 60 requests per hour;
// with one, 5000. The token is sent as a bearer Authorization header.
//
// # Enterprise hosts
//
// The base URL is built as {scheme}://{domain} so declarations can point at
// a GitHub Enterprise API host through override_scheme and override_domain.
package github
