package redis

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/ratelimit/log"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Single(mr.Addr()), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewAppliesDefaults(t *testing.T) {
	client, _ := newTestClient(t)

	assert.Equal(t, 5*time.Second, client.config.DialTimeout)
	assert.Equal(t, 3, client.config.MaxRedirects)
	assert.Equal(t, "single", client.config.Mode())
	assert.Equal(t, "ratelimit:api:burst", client.Key("api", "burst"))
	assert.NotNil(t, client.Stats())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(context.Background(), &Config{})
	assert.ErrorIs(t, err, ErrEmptyAddrs)
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), &Config{Addrs: []string{addr}, MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestOptionsOverrideConfig(t *testing.T) {
	client, _ := newTestClient(t, WithKeyPrefix("rl"), WithPoolSize(4))
	assert.Equal(t, "rl:k", client.Key("k"))
	assert.Equal(t, 4, client.config.PoolSize)
}

func TestConfigModes(t *testing.T) {
	assert.True(t, Single("a:1").IsSingle())
	assert.True(t, Cluster("a:1", "b:1").IsCluster())
	assert.True(t, Sentinel("master", "a:1").IsSentinel())
	assert.Equal(t, "sentinel", Sentinel("master", "a:1", "b:1").Mode())
	assert.False(t, (&Config{}).Enabled())
}

func TestDebugHookLogsCommands(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriter(&buf)
	client, _ := newTestClient(t, WithDebug(time.Hour), WithLogger(logger))

	require.NoError(t, client.UniversalClient().Set(context.Background(), "k", "v", 0).Err())
	assert.Contains(t, buf.String(), "redis command success")
}

func TestHealthChecker(t *testing.T) {
	client, mr := newTestClient(t)
	hc := NewHealthChecker(client.UniversalClient(), 20*time.Millisecond, nil)

	assert.False(t, hc.IsHealthy())
	assert.Equal(t, "not checked yet", hc.Status().ErrorMessage)

	hc.Start()
	defer hc.Stop()
	assert.True(t, hc.WaitForHealthy(context.Background(), time.Second))

	mr.SetError("LOADING")
	status := hc.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.NotEmpty(t, status.ErrorMessage)
}
