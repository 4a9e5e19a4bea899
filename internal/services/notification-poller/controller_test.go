package notification_poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/domain/notification"
)

func publish(t *testing.T, b bus.Bus, topic string, data any) {
	t.Helper()
	msg, err := bus.NewMessage(topic, "rooms", data)
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), msg))
}

func TestController_EnableThenPollThenDisable(t *testing.T) {
	h := newHarness(t, Config{})
	require.NoError(t, NewController(h.bus, h.poller, nil).Register(context.Background()))
	h.gh.feeds["u1"] = []notification.Notification{{ID: "42", Reason: notification.ReasonComment}}

	publish(t, h.bus, bus.TopicNotificationsEnable, map[string]any{
		"userId": "u1", "roomId": "r1", "since": 0, "token": "u1",
	})
	assert.Equal(t, []string{"u1"}, h.poller.Queue())

	h.steps(1)

	fetches := h.gh.fetchesOf("u1")
	require.Len(t, fetches, 1)
	assert.True(t, fetches[0].since.IsZero())

	got := h.out.all()
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RoomID)
	assert.Equal(t, t0.UnixMilli(), got[0].LastReadTimestamp)
	require.Len(t, got[0].Events, 1)
	assert.Equal(t, "42", got[0].Events[0].ID)
	assert.Equal(t, []string{"u1"}, h.poller.Queue())

	publish(t, h.bus, bus.TopicNotificationsDisable, map[string]any{"userId": "u1"})
	_, ok := h.poller.Stream("u1")
	assert.False(t, ok)
}

func TestController_DropsInvalidCommands(t *testing.T) {
	h := newHarness(t, Config{})
	require.NoError(t, NewController(h.bus, h.poller, nil).Register(context.Background()))

	publish(t, h.bus, bus.TopicNotificationsEnable, map[string]any{"userId": "u1", "roomId": "r1"})
	publish(t, h.bus, bus.TopicNotificationsEnable, map[string]any{"userId": "", "roomId": "r1", "token": "t"})
	publish(t, h.bus, bus.TopicNotificationsEnable, []int{1, 2})
	publish(t, h.bus, bus.TopicNotificationsDisable, map[string]any{})

	assert.Empty(t, h.poller.Queue())
}

func TestController_SinceSetsInitialLowerBound(t *testing.T) {
	h := newHarness(t, Config{})
	require.NoError(t, NewController(h.bus, h.poller, nil).Register(context.Background()))

	since := t0.Add(-time.Hour)
	publish(t, h.bus, bus.TopicNotificationsEnable, map[string]any{
		"userId": "u1", "roomId": "r1", "since": since.UnixMilli(), "token": "u1",
	})
	h.steps(1)

	fetches := h.gh.fetchesOf("u1")
	require.Len(t, fetches, 1)
	assert.True(t, fetches[0].since.Equal(since))
	assert.Equal(t, t0, fetches[0].at, "an hour-old bound needs no wait")
}
