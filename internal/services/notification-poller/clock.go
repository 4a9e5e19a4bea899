package notification_poller

import (
	"time"

	"github.com/NordCoder/ghbridge/internal/domain/notification"
)

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the wall clock.
var SystemClock notification.Clock = systemClock{}
