package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/ratelimit/core/rule"
)

const staticConfig = `
log:
  level: error
server:
  mode: test
policies:
  open:
    type: allow
  closed:
    type: and
    rules:
      - type: allow
      - type: deny
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ruled.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ruled "+Version)
	assert.Contains(t, out, "commit "+GitCommit)
}

func TestCheckCommand(t *testing.T) {
	path := writeConfig(t, staticConfig)

	out, err := run(t, "check", "--config", path, "open", "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice\tallowed\nbob\tallowed\n", out)

	out, err = run(t, "check", "-c", path, "closed", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice\tdenied\n", out)
}

func TestCheckCommandErrors(t *testing.T) {
	path := writeConfig(t, staticConfig)

	_, err := run(t, "check", "--config", path, "missing", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy missing not found")

	_, err = run(t, "check", "--config", path, "open")
	require.Error(t, err, "a key is required")

	_, err = run(t, "check", "--config", filepath.Join(t.TempDir(), "none.yaml"), "open", "a")
	require.Error(t, err)
}

func TestCheckCommandRequiresRedis(t *testing.T) {
	path := writeConfig(t, `
log:
  level: error
policies:
  api:
    type: token_bucket
    capacity: 1
    rate: 1
`)
	_, err := run(t, "check", "--config", path, "api", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires redis")
}

func TestCheckCommandWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeConfig(t, `
log:
  level: error
redis:
  addrs: ["`+mr.Addr()+`"]
  protocol: 2
policies:
  hourly:
    type: sliding_window
    window: 1h
    limit: 1
`)

	out, err := run(t, "check", "--config", path, "hourly", "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice\tallowed\nbob\tallowed\n", out)

	out, err = run(t, "check", "--config", path, "hourly", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice\tdenied\n", out)

	var keys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "{ratelimit:hourly:alice}") {
			keys = append(keys, k)
		}
	}
	assert.NotEmpty(t, keys)
}

func TestCheckCommandStorageError(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeConfig(t, `
log:
  level: error
redis:
  addrs: ["`+mr.Addr()+`"]
  protocol: 2
  max_retries: -1
policies:
  api:
    type: token_bucket
    capacity: 5
    rate: 1
`)

	rt, err := newRuntime(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.close(t.Context()) })

	mr.SetError("LOADING redis is loading the dataset in memory")
	_, err = rt.engine.Check(t.Context(), "api", rule.Key("alice"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOADING")
	mr.SetError("")
}

func TestRouter(t *testing.T) {
	path := writeConfig(t, staticConfig+`
  guarded:
    type: allow
`)
	rt, err := newRuntime(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.close(t.Context()) })

	srv, err := rt.server()
	require.NoError(t, err)
	h := srv.Handler()

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/v1/policies", http.StatusOK, `"closed","guarded","open"`},
		{"/v1/check/open/alice", http.StatusOK, `"allowed":true`},
		{"/v1/check/closed/alice", http.StatusOK, `"allowed":false`},
		{"/v1/check/missing/alice", http.StatusNotFound, "policy missing not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRouterGuard(t *testing.T) {
	path := writeConfig(t, staticConfig+`
  server_guard:
    type: deny
`)
	rt, err := newRuntime(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.close(t.Context()) })

	rt.cfg.Server.Guard = GuardConfig{Policy: "server_guard", Key: "header:X-Api-Key", SkipPaths: []string{"/v1/policies"}}
	r, err := rt.router()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/policies", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/check/open/alice", nil)
	req.Header.Set("X-Api-Key", "k1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/check/open/alice", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing key header")
}

func TestGuardKeyFunc(t *testing.T) {
	tests := []struct {
		guard   GuardConfig
		wantErr bool
	}{
		{GuardConfig{Key: "ip"}, false},
		{GuardConfig{Key: "header:X-Api-Key"}, false},
		{GuardConfig{Key: "header:"}, true},
		{GuardConfig{Key: "jwt", JWTSecret: "s3cret"}, false},
		{GuardConfig{Key: "jwt"}, true},
		{GuardConfig{Key: "cookie"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.guard.Key, func(t *testing.T) {
			fn, err := tt.guard.keyFunc()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, fn)
		})
	}

	mw, err := GuardConfig{}.build(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, mw, "guard disabled without a policy")
}

func TestReloadKeepsPoliciesOnError(t *testing.T) {
	path := writeConfig(t, staticConfig)
	rt, err := newRuntime(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.close(t.Context()) })

	require.NoError(t, os.WriteFile(path, []byte(staticConfig+`
  broken:
    type: not
`), 0o644))
	require.NoError(t, rt.conf.Reload())
	rt.reload()
	assert.Equal(t, []string{"closed", "open"}, rt.engine.Policies())

	require.NoError(t, os.WriteFile(path, []byte(staticConfig+`
  extra:
    type: allow
`), 0o644))
	require.NoError(t, rt.conf.Reload())
	rt.reload()
	assert.Equal(t, []string{"closed", "extra", "open"}, rt.engine.Policies())
}
