// Package integrations provides HTTP clients for the services uptix
// resolves dependencies against.
//
// # Overview
//
// Each service has its own subpackage:
//
//   - [registry]: container registries speaking the Docker Registry v2 API
//   - [github]: the GitHub REST API (branch heads and latest releases)
//
// # Shared Infrastructure
//
// The [Client] type provides the HTTP plumbing used by both: default
// headers (User-Agent, Accept, Authorization), a bounded request timeout,
// retries for transient failures via [httputil.Retry], status mapping into
// the [errors] taxonomy, and [observability.HTTPHooks] events.
//
// Nothing is cached. Every request goes to the network.
//
// [registry]: github.com/matzehuels/uptix/pkg/integrations/registry
// [github]: github.com/matzehuels/uptix/pkg/integrations/github
// [httputil.Retry]: github.com/matzehuels/uptix/pkg/httputil.Retry
// [errors]: github.com/matzehuels/uptix/pkg/errors
// [observability.HTTPHooks]: github.com/matzehuels/uptix/pkg/observability.HTTPHooks
package integrations
