package webhook_gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ghbridge/internal/bus"
)

func TestClassifyTuple_Table(t *testing.T) {
	cases := []struct {
		action     string
		hasComment bool
		hasIssue   bool
		want       string
	}{
		{"created", true, true, bus.TopicCommentCreated},
		{"created", true, false, bus.TopicCommentCreated},
		{"created", false, true, ""},
		{"edited", true, true, bus.TopicCommentEdited},
		{"edited", true, false, bus.TopicCommentEdited},
		{"edited", false, true, bus.TopicIssueEdited},
		{"edited", false, false, ""},
		{"closed", true, true, bus.TopicIssueClosed},
		{"closed", false, true, bus.TopicIssueClosed},
		{"closed", true, false, ""},
		{"reopened", false, true, bus.TopicIssueReopened},
		{"reopened", false, false, ""},
		{"labeled", false, true, ""},
		{"deleted", true, true, ""},
		{"", true, true, ""},
	}
	for _, c := range cases {
		got, ok := ClassifyTuple(c.action, c.hasComment, c.hasIssue)
		assert.Equal(t, c.want != "", ok, "%+v", c)
		assert.Equal(t, c.want, got, "%+v", c)
	}
}

func TestClassify_ReadsPresenceFromPayload(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"action":"edited","issue":{"number":3},"comment":null}`), &e))
	name, ok := Classify(e)
	require.True(t, ok)
	assert.Equal(t, bus.TopicIssueEdited, name)

	require.NoError(t, json.Unmarshal([]byte(`{"action":"labeled","issue":{"number":3}}`), &e))
	_, ok = Classify(e)
	assert.False(t, ok)
}
