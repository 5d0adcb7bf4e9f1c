package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolveHooks{}
	r.OnExtract(ctx, "default.nix", 2, nil)
	r.OnResolveStart(ctx, "docker", "postgres:15")
	r.OnResolveComplete(ctx, "docker", "postgres:15", time.Second, nil)
	r.OnEnrichFailed(ctx, "postgres:15", nil)
	r.OnLockWrite(ctx, "uptix.lock", 1, nil)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "HEAD", "registry-1.docker.io", "/v2/library/postgres/manifests/15")
	h.OnResponse(ctx, "HEAD", "registry-1.docker.io", "/v2/library/postgres/manifests/15", 200, time.Second)
	h.OnError(ctx, "GET", "api.github.com", "/repos/a/b/releases/latest", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	if Resolve() != customResolve {
		t.Error("SetResolveHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Reset() should restore NoopResolveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testResolveHooks{}
	SetResolveHooks(custom)
	SetResolveHooks(nil)

	if Resolve() != custom {
		t.Error("SetResolveHooks(nil) should be ignored")
	}

	Reset()
}

type testResolveHooks struct{ NoopResolveHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
