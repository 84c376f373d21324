package publish_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/publish"
	pubtesting "github.com/rileyhilliard/fv/internal/publish/testing"
)

func counter() publish.Generator {
	n := 0
	return publish.GeneratorFunc(func(time.Time) ([]byte, error) {
		n++
		return []byte{byte('0' + n)}, nil
	})
}

func TestRun_PublishesCount(t *testing.T) {
	pub := pubtesting.NewFakePublisher()
	var seen []int

	n, err := publish.Run(context.Background(), pub, counter(), publish.RunOptions{
		Topic:     "1/testPoints/sinus",
		Interval:  time.Millisecond,
		Count:     3,
		OnPublish: func(n int, _ []byte) { seen = append(seen, n) },
	})

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, seen)

	msgs := pub.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "1/testPoints/sinus", msgs[0].Topic)
	assert.Equal(t, feed.AtMostOnce, msgs[0].QoS)
	assert.Equal(t, "1", string(msgs[0].Payload))
	assert.Equal(t, "3", string(msgs[2].Payload))
	assert.True(t, pub.Disconnected())
}

func TestRun_StopsOnCancel(t *testing.T) {
	pub := pubtesting.NewFakePublisher()
	ctx, cancel := context.WithCancel(context.Background())

	n, err := publish.Run(ctx, pub, counter(), publish.RunOptions{
		Topic:    "t",
		Interval: time.Millisecond,
		OnPublish: func(n int, _ []byte) {
			if n == 2 {
				cancel()
			}
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, pub.Disconnected())
}

func TestRun_ConnectFailure(t *testing.T) {
	pub := pubtesting.NewFakePublisher()
	pub.ConnectErr = stderrors.New("connection refused")

	n, err := publish.Run(context.Background(), pub, counter(), publish.RunOptions{Topic: "t", Count: 1})

	require.Error(t, err)
	assert.Zero(t, n)
	assert.True(t, errors.IsCode(err, errors.ErrConnect))
	assert.Empty(t, pub.Messages())
	assert.False(t, pub.Disconnected(), "never connected, nothing to disconnect")
}

func TestRun_PublishFailure(t *testing.T) {
	pub := pubtesting.NewFakePublisher()
	pub.PublishErr = stderrors.New("not authorized")
	pub.FailAfter = 1

	n, err := publish.Run(context.Background(), pub, counter(), publish.RunOptions{
		Topic:    "t",
		Interval: time.Millisecond,
		Count:    5,
	})

	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, errors.IsCode(err, errors.ErrPublish))
	assert.Contains(t, err.Error(), "not authorized")
}

func TestRun_GeneratorFailure(t *testing.T) {
	pub := pubtesting.NewFakePublisher()
	gen := publish.GeneratorFunc(func(time.Time) ([]byte, error) {
		return nil, stderrors.New("boom")
	})

	_, err := publish.Run(context.Background(), pub, gen, publish.RunOptions{Topic: "t", Count: 1})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrPublish))
}
