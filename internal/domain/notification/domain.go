package notification

import (
	"encoding/json"
	"time"
)

type Reason string

const (
	ReasonAssign         Reason = "assign"
	ReasonAuthor         Reason = "author"
	ReasonComment        Reason = "comment"
	ReasonInvitation     Reason = "invitation"
	ReasonManual         Reason = "manual"
	ReasonMention        Reason = "mention"
	ReasonReviewRequired Reason = "review_required"
	ReasonSecurityAlert  Reason = "security_alert"
	ReasonStateChange    Reason = "state_change"
	ReasonSubscribed     Reason = "subscribed"
	ReasonTeamMention    Reason = "team_mention"
)

// Known reports whether r is one of the reasons GitHub documents.
// Unknown reasons are still passed through unchanged.
func (r Reason) Known() bool {
	switch r {
	case ReasonAssign, ReasonAuthor, ReasonComment, ReasonInvitation, ReasonManual,
		ReasonMention, ReasonReviewRequired, ReasonSecurityAlert, ReasonStateChange,
		ReasonSubscribed, ReasonTeamMention:
		return true
	}
	return false
}

type Subject struct {
	Title            string `json:"title"`
	URL              string `json:"url,omitempty"`
	LatestCommentURL string `json:"latest_comment_url,omitempty"`
	Type             string `json:"type"`

	// Resolved resources. Absent when enrichment did not succeed.
	URLData              json.RawMessage `json:"url_data,omitempty"`
	LatestCommentURLData json.RawMessage `json:"latest_comment_url_data,omitempty"`
}

type Notification struct {
	ID         string          `json:"id"`
	Reason     Reason          `json:"reason"`
	Unread     bool            `json:"unread"`
	UpdatedAt  time.Time       `json:"updated_at"`
	LastReadAt *time.Time      `json:"last_read_at"`
	URL        string          `json:"url"`
	Subject    Subject         `json:"subject"`
	Repository json.RawMessage `json:"repository,omitempty"`
}
