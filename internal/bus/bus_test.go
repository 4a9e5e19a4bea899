package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_DeliversOnlySubscribedTopics(t *testing.T) {
	b := NewMemory(nil, time.Second)
	ctx := context.Background()

	var mu sync.Mutex
	var got []string
	b.OnMessage("comment.*", func(_ context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg.EventName)
		return nil
	})
	require.NoError(t, b.Subscribe(ctx, "comment.*"))

	for _, topic := range []string{"comment.created", "issue.closed", "comment.edited"} {
		msg, err := NewMessage(topic, "test", map[string]string{"k": "v"})
		require.NoError(t, err)
		require.NoError(t, b.Publish(ctx, msg))
	}

	assert.Equal(t, []string{"comment.created", "comment.edited"}, got)
}

func TestMemory_HandlerErrorDoesNotStopOthers(t *testing.T) {
	b := NewMemory(nil, time.Second)
	ctx := context.Background()
	require.NoError(t, b.Subscribe(ctx, "issue.closed"))

	calls := 0
	b.OnMessage("issue.closed", func(context.Context, Message) error { return errors.New("boom") })
	b.OnMessage("issue.*", func(context.Context, Message) error { calls++; return nil })

	msg, err := NewMessage("issue.closed", "test", struct{}{})
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, msg))
	assert.Equal(t, 1, calls)
}

func TestMemory_RequestReply(t *testing.T) {
	b := NewMemory(nil, time.Second)
	ctx := context.Background()
	require.NoError(t, b.Subscribe(ctx, TopicOAuthResponse))
	b.OnMessage(TopicOAuthResponse, func(ctx context.Context, req Message) error {
		var q struct{ State string }
		if err := req.Decode(&q); err != nil {
			return err
		}
		return Respond(ctx, b, req, "responder", q.State == "known")
	})

	for state, want := range map[string]bool{"known": true, "unknown": false} {
		req, err := NewMessage(TopicOAuthResponse, "test", map[string]string{"state": state})
		require.NoError(t, err)

		resp, err := b.RequestReply(ctx, req)
		require.NoError(t, err)

		var found bool
		require.NoError(t, resp.Decode(&found))
		assert.Equal(t, want, found, state)
		assert.Equal(t, ResponseTopic(TopicOAuthResponse), resp.EventName)
	}
}

func TestMemory_RequestReplyTimesOut(t *testing.T) {
	b := NewMemory(nil, 20*time.Millisecond)
	req, err := NewMessage(TopicOAuthResponse, "test", map[string]string{})
	require.NoError(t, err)

	_, err = b.RequestReply(context.Background(), req)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestMemory_Closed(t *testing.T) {
	b := NewMemory(nil, time.Second)
	require.NoError(t, b.Close())
	err := b.Publish(context.Background(), Message{EventName: "x"})
	require.ErrorIs(t, err, ErrClosed)
}

func TestRouter_RejectsBadPattern(t *testing.T) {
	r := NewRouter(nil)
	_, err := r.AddPattern("comment.[")
	require.Error(t, err)
}
