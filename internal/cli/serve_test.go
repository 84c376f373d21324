package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/fv/internal/config"
	fverrors "github.com/rileyhilliard/fv/internal/errors"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	fake := useFakeSubscriber(t)
	cfg := config.DefaultConfig()
	cfg.Serve.Addr = "127.0.0.1:0"
	cfg.Render.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var status syncBuffer
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, &status) }()

	require.Eventually(t, func() bool { return fake.Subscribed(cfg.Feed.Topic) }, time.Second, 5*time.Millisecond)
	fake.PublishString(cfg.Feed.Topic, "1.5")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
	assert.Contains(t, fake.CallLog(), "disconnect")
	assert.Contains(t, status.String(), cfg.Feed.Topic)
}

func TestRunServe_ConnectFailure(t *testing.T) {
	fake := useFakeSubscriber(t)
	fake.ConnectErr = assert.AnError
	cfg := config.DefaultConfig()
	cfg.Serve.Addr = "127.0.0.1:0"

	var status syncBuffer
	err := runServe(context.Background(), cfg, &status)
	require.Error(t, err)
	assert.True(t, fverrors.IsCode(err, fverrors.ErrConnect))
}

func TestRunServe_LostConnectionStopsServer(t *testing.T) {
	fake := useFakeSubscriber(t)
	cfg := config.DefaultConfig()
	cfg.Broker.Reconnect = false
	cfg.Serve.Addr = "127.0.0.1:0"
	cfg.Render.Interval = 5 * time.Millisecond

	var status syncBuffer
	done := make(chan error, 1)
	go func() { done <- runServe(context.Background(), cfg, &status) }()

	require.Eventually(t, func() bool { return fake.Subscribed(cfg.Feed.Topic) }, time.Second, 5*time.Millisecond)
	fake.DropConnection(assert.AnError)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, fverrors.IsCode(err, fverrors.ErrConnect))
	case <-time.After(2 * time.Second):
		t.Fatal("runServe kept serving after the connection was lost")
	}
}
