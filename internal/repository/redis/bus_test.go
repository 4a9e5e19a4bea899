package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ghbridge/internal/bus"
)

func TestBus_ChannelPrefixRoundTrip(t *testing.T) {
	b := &Bus{cfg: Config{Prefix: "ghbridge:"}}

	ch := b.channel("comment.created")
	assert.Equal(t, "ghbridge:comment.created", ch)

	topic, ok := b.topic(ch)
	require.True(t, ok)
	assert.Equal(t, "comment.created", topic)

	_, ok = b.topic("other:comment.created")
	assert.False(t, ok)
}

func TestNewBus_RejectsBadURL(t *testing.T) {
	_, err := NewBus(context.Background(), Config{URL: "://nope"}, nil)
	require.Error(t, err)
}

func TestBus_ClosedRejectsOperations(t *testing.T) {
	b := &Bus{router: bus.NewRouter(nil)}
	b.closed.Store(true)

	assert.ErrorIs(t, b.Publish(context.Background(), bus.Message{EventName: "x"}), bus.ErrClosed)
	assert.ErrorIs(t, b.Subscribe(context.Background(), "x"), bus.ErrClosed)
	_, err := b.RequestReply(context.Background(), bus.Message{EventName: "x"})
	assert.ErrorIs(t, err, bus.ErrClosed)
}
