package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ovpnsync/internal/config"
	"ovpnsync/internal/types"
)

func testConfig(t *testing.T, echo string) (*config.Config, string, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(echo))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	source := filepath.Join(dir, "client.ovpn")
	dest := filepath.Join(dir, "published.ovpn")
	require.NoError(t, os.WriteFile(source, []byte("client\nremote 1.2.3.4 1194\n"), 0600))

	return &config.Config{
		Source:      source,
		Destination: dest,
		Interval:    time.Hour,
		RetryDelay:  time.Minute,
		Resolver:    config.ResolverConfig{URL: srv.URL, Timeout: time.Second},
	}, source, dest
}

func TestRunOnce(t *testing.T) {
	cfg, source, dest := testConfig(t, "5.6.7.8")

	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	out, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.True(t, out.Published)

	for _, path := range []string{source, dest} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "client\nremote 5.6.7.8 1194\n", string(data))
	}
}

func TestRunUntilCancelled(t *testing.T) {
	cfg, _, dest := testConfig(t, "5.6.7.8")
	cfg.Status = config.StatusConfig{Enabled: true, Listen: "127.0.0.1:0", Metrics: true}

	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Syncer().Status().Stage == types.StageSleeping
	}, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, dest)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, types.StageIdle, a.Syncer().Status().Stage)
}

func TestNewRejectsBadDestination(t *testing.T) {
	cfg, _, _ := testConfig(t, "5.6.7.8")
	cfg.Destination = "dropbox::"

	_, err := New(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
