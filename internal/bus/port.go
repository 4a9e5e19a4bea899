package bus

import (
	"context"
	"errors"
)

const (
	TopicCommentCreated = "comment.created"
	TopicCommentEdited  = "comment.edited"
	TopicIssueEdited    = "issue.edited"
	TopicIssueClosed    = "issue.closed"
	TopicIssueReopened  = "issue.reopened"

	TopicOAuthResponse = "oauth.response"
	TopicOAuthTokens   = "oauth.tokens"

	TopicNotificationsEnable  = "notifications.user.enable"
	TopicNotificationsDisable = "notifications.user.disable"
	TopicNotificationsEvents  = "notifications.user.events"
)

var (
	ErrClosed  = errors.New("bus closed")
	ErrTimeout = errors.New("bus request timed out")
)

type Handler func(ctx context.Context, msg Message) error

// Bus is the pub/sub and request/response channel shared by all services.
// Subscribe controls which topics reach this process; OnMessage binds handlers
// to topics (patterns allowed) among those delivered.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context, pattern string) error
	OnMessage(topic string, h Handler)
	// RequestReply publishes msg and blocks until the matching response
	// arrives, the bus request timeout elapses or ctx is done.
	RequestReply(ctx context.Context, msg Message) (Message, error)
	Close() error
}
