package notification_poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pollOK            = "ok"
	pollFetchFailed   = "fetch_failed"
	pollPublishFailed = "publish_failed"
	pollDiscarded     = "discarded"
)

var (
	mPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_polls_total", Help: "Notification polls by outcome",
	}, []string{"result"})
	mNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poller_notifications_total", Help: "Notifications published in batches",
	})
	mEnrichFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poller_enrich_failures_total", Help: "Failed subject resolutions",
	})
	mGhostDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poller_ghost_drops_total", Help: "Rotation entries dropped for removed users",
	})
	mWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poller_wait_seconds",
		Help:    "Time spent waiting for a user's minimum poll interval",
		Buckets: []float64{0.5, 1, 5, 10, 20, 30, 45},
	})
	mUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poller_users", Help: "Registered users",
	})
	mQueue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poller_queue_length", Help: "Rotation length including ghost entries",
	})
)
