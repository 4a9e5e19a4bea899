package webhook_gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultMethodNotAllowed = "method_not_allowed"
	resultTooLarge         = "too_large"
	resultForbidden        = "forbidden"
	resultDuplicate        = "duplicate"
	resultBadRequest       = "bad_request"
	resultUnclassified     = "unclassified"
	resultForwarded        = "forwarded"
	resultPublishFailed    = "publish_failed"
	resultInternalError    = "internal_error"
)

var (
	webhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_requests_total",
		Help: "Webhook deliveries by outcome",
	}, []string{"result"})

	oauthCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_callbacks_total",
		Help: "OAuth callbacks by HTTP status",
	}, []string{"code"})
)
