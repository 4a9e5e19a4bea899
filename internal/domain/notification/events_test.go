package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch_EmptyEventsEncodeAsArray(t *testing.T) {
	b := NewBatch("r1", time.UnixMilli(1700000000000), nil)
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":"r1","lastReadTimestamp":1700000000000,"events":[]}`, string(raw))
}

func TestEnableEvent_SinceTime(t *testing.T) {
	assert.True(t, EnableEvent{}.SinceTime().IsZero())
	assert.Equal(t, int64(42), EnableEvent{Since: 42}.SinceTime().UnixMilli())

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, EnableEvent{Since: want.UnixMilli()}.SinceTime())
}

func TestNotification_DecodesGitHubShapeAndKeepsUnknownReason(t *testing.T) {
	raw := `{
		"id": "1", "reason": "ci_activity", "unread": true,
		"updated_at": "2024-01-02T03:04:05Z", "last_read_at": null,
		"url": "https://api.github.com/notifications/threads/1",
		"subject": {"title": "t", "url": "https://api.github.com/repos/o/r/issues/1",
			"latest_comment_url": null, "type": "Issue"},
		"repository": {"full_name": "o/r"}
	}`
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))

	assert.Equal(t, Reason("ci_activity"), n.Reason)
	assert.False(t, n.Reason.Known())
	assert.True(t, ReasonMention.Known())
	assert.Nil(t, n.LastReadAt)
	assert.Empty(t, n.Subject.LatestCommentURL)
	assert.Nil(t, n.Subject.URLData)

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "url_data")
}
