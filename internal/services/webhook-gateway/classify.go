package webhook_gateway

import (
	"encoding/json"

	"github.com/NordCoder/ghbridge/internal/bus"
)

// Event is the part of a webhook payload classification looks at. Only the
// presence of the nested objects matters, so they stay raw.
type Event struct {
	Action     string          `json:"action"`
	Issue      json.RawMessage `json:"issue,omitempty"`
	Comment    json.RawMessage `json:"comment,omitempty"`
	Repository json.RawMessage `json:"repository,omitempty"`
	Sender     json.RawMessage `json:"sender,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// ClassifyTuple maps (action, has comment, has issue) to a bus topic.
// Rules are checked in order and the first match wins.
func ClassifyTuple(action string, hasComment, hasIssue bool) (string, bool) {
	switch {
	case action == "created" && hasComment:
		return bus.TopicCommentCreated, true
	case action == "edited" && hasComment:
		return bus.TopicCommentEdited, true
	case action == "edited" && hasIssue:
		return bus.TopicIssueEdited, true
	case action == "closed" && hasIssue:
		return bus.TopicIssueClosed, true
	case action == "reopened" && hasIssue:
		return bus.TopicIssueReopened, true
	}
	return "", false
}

func Classify(e Event) (string, bool) {
	return ClassifyTuple(e.Action, present(e.Comment), present(e.Issue))
}
