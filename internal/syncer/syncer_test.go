package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"ovpnsync/internal/metrics"
	"ovpnsync/internal/publish"
	"ovpnsync/internal/resolver"
	"ovpnsync/internal/types"
)

type publishCall struct {
	source    string
	dest      publish.Destination
	overwrite bool
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, source string, dest publish.Destination, overwrite bool) (publish.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{source: source, dest: dest, overwrite: overwrite})
	if f.err != nil {
		return publish.Receipt{}, f.err
	}
	return publish.Receipt{Target: "/srv/dropbox/" + dest.Path, Copied: overwrite}, nil
}

type fakeNotifier struct {
	changes []*types.AddressChange
}

func (f *fakeNotifier) NotifyAddressChange(change *types.AddressChange) {
	f.changes = append(f.changes, change)
}

func staticResolver(addr string) resolver.Resolver {
	return resolver.Func(func(context.Context) (string, error) { return addr, nil })
}

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.ovpn")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testOptions(source string) Options {
	return Options{
		Source:      source,
		Destination: publish.Destination{Kind: publish.KindExternalFolder, Path: "vpn/client.ovpn"},
		Interval:    10 * time.Minute,
		RetryDelay:  time.Minute,
	}
}

func TestRunOnceUpdatesAndPublishes(t *testing.T) {
	path := writeProfile(t, "client\nremote 1.2.3.4 1194\n")
	pub := &fakePublisher{}
	notifier := &fakeNotifier{}

	s := New(testOptions(path), staticResolver("5.6.7.8"), pub, zaptest.NewLogger(t),
		WithNotifier(notifier), WithMetrics(metrics.New()))

	out := s.RunOnce(context.Background())
	require.NoError(t, out.Err)
	assert.True(t, out.OK())
	assert.True(t, out.Changed)
	assert.True(t, out.Published)
	assert.Equal(t, "1.2.3.4", out.Recorded)
	assert.Equal(t, "5.6.7.8", out.Address)
	assert.Equal(t, types.KindNone, out.Kind())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "client\nremote 5.6.7.8 1194\n", string(data))

	require.Len(t, pub.calls, 1)
	assert.Equal(t, path, pub.calls[0].source)
	assert.True(t, pub.calls[0].overwrite)

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, "1.2.3.4", notifier.changes[0].Previous)
	assert.Equal(t, "5.6.7.8", notifier.changes[0].Current)
	assert.Equal(t, "dropbox::vpn/client.ovpn", notifier.changes[0].Destination)
	assert.Equal(t, "/srv/dropbox/vpn/client.ovpn", notifier.changes[0].Published)
	assert.Equal(t, "/srv/dropbox/vpn/client.ovpn", out.Target)
}

func TestRunOnceUnchangedPublishesWithoutOverwrite(t *testing.T) {
	path := writeProfile(t, "remote 5.6.7.8\n")
	pub := &fakePublisher{}
	notifier := &fakeNotifier{}

	s := New(testOptions(path), staticResolver("5.6.7.8"), pub, zaptest.NewLogger(t), WithNotifier(notifier))

	out := s.RunOnce(context.Background())
	require.NoError(t, out.Err)
	assert.False(t, out.Changed)
	require.Len(t, pub.calls, 1)
	assert.False(t, pub.calls[0].overwrite)
	assert.Empty(t, notifier.changes)
}

func TestRunOnceFailures(t *testing.T) {
	t.Run("resolution", func(t *testing.T) {
		path := writeProfile(t, "remote 1.2.3.4\n")
		pub := &fakePublisher{}
		failing := resolver.Func(func(context.Context) (string, error) {
			return "", types.NewError(types.KindResolution, "resolver.Resolve", errors.New("dial tcp: timeout"))
		})

		out := New(testOptions(path), failing, pub, zaptest.NewLogger(t)).RunOnce(context.Background())
		assert.Equal(t, types.StageResolving, out.Stage)
		assert.Equal(t, types.KindResolution, out.Kind())
		assert.Empty(t, pub.calls)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "remote 1.2.3.4\n", string(data))
	})

	t.Run("config parsing", func(t *testing.T) {
		path := writeProfile(t, "remote vpn.example.com\n")
		pub := &fakePublisher{}

		out := New(testOptions(path), staticResolver("5.6.7.8"), pub, zaptest.NewLogger(t)).RunOnce(context.Background())
		assert.Equal(t, types.StageReconciling, out.Stage)
		assert.ErrorIs(t, out.Err, types.ErrConfigParsing)
		assert.Empty(t, pub.calls)
	})

	t.Run("malformed resolver reply", func(t *testing.T) {
		path := writeProfile(t, "remote 1.2.3.4 1194\n")
		pub := &fakePublisher{}

		out := New(testOptions(path), staticResolver("5.6.7.8\n"), pub, zaptest.NewLogger(t)).RunOnce(context.Background())
		assert.Equal(t, types.StageReconciling, out.Stage)
		assert.Equal(t, types.KindResolution, out.Kind())
		assert.False(t, out.Changed)
		assert.Empty(t, pub.calls)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "remote 1.2.3.4 1194\n", string(data))
	})

	t.Run("publish", func(t *testing.T) {
		path := writeProfile(t, "remote 1.2.3.4\n")
		pub := &fakePublisher{err: errors.New("dropbox is not installed")}

		out := New(testOptions(path), staticResolver("5.6.7.8"), pub, zaptest.NewLogger(t)).RunOnce(context.Background())
		assert.Equal(t, types.StagePublishing, out.Stage)
		assert.Equal(t, types.KindPublish, out.Kind())
		assert.True(t, out.Changed, "the profile was still rewritten")
	})
}

func TestRunBacksOffAfterFailure(t *testing.T) {
	path := writeProfile(t, "remote 1.2.3.4\n")
	core, logs := observer.New(zapcore.InfoLevel)

	calls := 0
	res := resolver.Func(func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection reset")
		}
		return "5.6.7.8", nil
	})

	pub := &fakePublisher{}
	s := New(testOptions(path), res, pub, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waits []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		if len(waits) == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	s.Run(ctx)

	assert.Equal(t, []time.Duration{time.Minute, 10 * time.Minute, 10 * time.Minute}, waits)
	require.Len(t, pub.calls, 2)
	assert.True(t, pub.calls[0].overwrite)
	assert.False(t, pub.calls[1].overwrite)

	failures := logs.FilterMessageSnippet("Retrying in 1 minute.").All()
	require.Len(t, failures, 1)
	assert.True(t, strings.HasPrefix(failures[0].Message, "ResolutionError encountered while resolving:\n"))
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)

	assert.Equal(t, 2, logs.FilterMessage("Waiting 10 minutes until next check.").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("IP address updated to 5.6.7.8").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("IP address is still 5.6.7.8").Len())
}

func TestStatusSnapshot(t *testing.T) {
	path := writeProfile(t, "remote 1.2.3.4\n")
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	s := New(testOptions(path), staticResolver("5.6.7.8"), &fakePublisher{}, zaptest.NewLogger(t))
	s.now = func() time.Time { return now }

	st := s.Status()
	assert.Equal(t, types.StageIdle, st.Stage)
	assert.Equal(t, path, st.Source)

	s.RunOnce(context.Background())
	st = s.Status()
	assert.Equal(t, int64(1), st.Cycles)
	assert.Equal(t, int64(0), st.Failures)
	assert.Equal(t, "5.6.7.8", st.Address)
	assert.True(t, st.Changed)
	assert.Equal(t, now, st.LastSuccessAt)
	assert.Empty(t, st.LastError)

	s.resolver = resolver.Func(func(context.Context) (string, error) { return "", errors.New("no route to host") })
	s.RunOnce(context.Background())
	st = s.Status()
	assert.Equal(t, int64(2), st.Cycles)
	assert.Equal(t, int64(1), st.Failures)
	assert.Equal(t, types.KindResolution, st.LastErrorKind)
	assert.Contains(t, st.LastError, "no route to host")
	assert.Equal(t, now, st.LastSuccessAt)
}

func TestOutcomeDuration(t *testing.T) {
	path := writeProfile(t, "remote 1.2.3.4\n")
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	s := New(testOptions(path), staticResolver("5.6.7.8"), &fakePublisher{}, zaptest.NewLogger(t))
	s.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	out := s.RunOnce(context.Background())
	require.NoError(t, out.Err)
	assert.Equal(t, clock, out.Finished)
	assert.Equal(t, out.Finished.Sub(out.Started), out.Duration())
	assert.Greater(t, out.Duration(), time.Duration(0))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
