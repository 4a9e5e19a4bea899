package notification_poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/domain/notification"
	"github.com/NordCoder/ghbridge/internal/obs"
)

const (
	DefaultMinInterval  = 45 * time.Second
	DefaultEmptyBackoff = 5 * time.Second
	DefaultSender       = "GithubWebhooks"
)

var ErrAlreadyRunning = errors.New("poller: already running")

type Config struct {
	MinInterval  time.Duration
	EmptyBackoff time.Duration
	// CallTimeout bounds each fetch, resolution and publish.
	CallTimeout       time.Duration
	EnrichConcurrency int
	EnrichCacheTTL    time.Duration
	Sender            string
}

type Deps struct {
	Bus    bus.Bus
	NewAPI notification.APIFactory
	Clock  notification.Clock
	Log    *zap.Logger
}

// Poller visits registered users one at a time in rotation order, never
// polling a user more often than MinInterval, and publishes each user's
// enriched notifications as one batch.
type Poller struct {
	cfg    Config
	bus    bus.Bus
	newAPI notification.APIFactory
	clock  notification.Clock
	log    *zap.Logger

	mu       sync.Mutex
	reg      *Registry
	rot      *Rotation
	running  bool
	stopping bool
	stop     chan struct{}
	done     chan struct{}
}

func New(cfg Config, deps Deps) *Poller {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.EmptyBackoff <= 0 {
		cfg.EmptyBackoff = DefaultEmptyBackoff
	}
	if cfg.EnrichConcurrency < 1 {
		cfg.EnrichConcurrency = 1
	}
	if cfg.Sender == "" {
		cfg.Sender = DefaultSender
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	done := make(chan struct{})
	close(done)
	return &Poller{
		cfg:    cfg,
		bus:    deps.Bus,
		newAPI: deps.NewAPI,
		clock:  deps.Clock,
		log:    obs.Component(deps.Log, "poller"),
		reg:    NewRegistry(),
		rot:    NewRotation(),
		done:   done,
	}
}

// AddUser registers e.UserID or replaces its stream. A new user joins the tail
// of the rotation; a known user keeps its place. A removed user whose entry is
// still queued takes that entry back instead of joining the tail.
func (p *Poller) AddUser(e notification.EnableEvent) {
	s := &UserStream{
		UserID:            e.UserID,
		RoomID:            e.RoomID,
		API:               p.newAPI(e.Token),
		LastReadTimestamp: e.SinceTime(),
	}
	if p.cfg.EnrichCacheTTL > 0 {
		s.resolved = cache.New(p.cfg.EnrichCacheTTL, 2*p.cfg.EnrichCacheTTL)
	}

	p.mu.Lock()
	existed := p.reg.Put(s)
	if !existed {
		p.rot.PushBack(e.UserID)
	}
	p.gauges()
	p.mu.Unlock()

	p.log.Info("user enabled",
		zap.String("user_id", e.UserID),
		zap.String("room_id", e.RoomID),
		zap.Bool("replaced", existed))
}

// RemoveUser forgets the user at once. Its rotation entry stays until the
// loop reaches it.
func (p *Poller) RemoveUser(userID string) {
	p.mu.Lock()
	removed := p.reg.Delete(userID)
	p.gauges()
	p.mu.Unlock()

	if removed {
		p.log.Info("user disabled", zap.String("user_id", userID))
	}
}

// Stream returns a copy of the user's current stream.
func (p *Poller) Stream(userID string) (UserStream, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.reg.Get(userID)
	if !ok {
		return UserStream{}, false
	}
	return *s, true
}

// Queue returns the rotation order, ghosts included.
func (p *Poller) Queue() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rot.Snapshot()
}

// Start runs the loop in its own goroutine.
func (p *Poller) Start(ctx context.Context) error {
	stop, err := p.begin()
	if err != nil {
		return err
	}
	go p.loop(ctx, stop)
	return nil
}

// Run runs the loop in the calling goroutine until Stop or ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	stop, err := p.begin()
	if err != nil {
		return err
	}
	p.loop(ctx, stop)
	return nil
}

// Stop keeps new iterations from starting and wakes the loop if it sleeps.
// A call already in flight is not interrupted; Done reports when it returned.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running && !p.stopping {
		p.stopping = true
		close(p.stop)
	}
}

func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Poller) begin() (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil, ErrAlreadyRunning
	}
	p.running = true
	p.stopping = false
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	return p.stop, nil
}

func (p *Poller) loop(ctx context.Context, stop <-chan struct{}) {
	p.log.Info("poller started",
		zap.Duration("min_interval", p.cfg.MinInterval),
		zap.Int("enrich_concurrency", p.cfg.EnrichConcurrency))
	defer func() {
		p.mu.Lock()
		p.running = false
		close(p.done)
		p.mu.Unlock()
		p.log.Info("poller stopped")
	}()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}
		p.step(ctx, stop)
	}
}

// step performs one rotation turn: pop, wait out the interval, poll, requeue.
func (p *Poller) step(ctx context.Context, stop <-chan struct{}) {
	p.mu.Lock()
	id, ok := p.rot.PopFront()
	if !ok {
		p.mu.Unlock()
		p.sleep(ctx, stop, p.cfg.EmptyBackoff)
		return
	}
	s, live := p.reg.Get(id)
	if !live {
		p.gauges()
		p.mu.Unlock()
		mGhostDrops.Inc()
		p.log.Debug("dropped removed user from rotation", zap.String("user_id", id))
		return
	}
	snap := *s
	p.mu.Unlock()

	if wait := p.cfg.MinInterval - p.clock.Now().Sub(snap.LastReadTimestamp); wait > 0 {
		mWait.Observe(wait.Seconds())
		if !p.sleep(ctx, stop, wait) {
			p.requeue(id)
			return
		}
		p.mu.Lock()
		cur, live := p.reg.Get(id)
		if !live {
			p.gauges()
		}
		p.mu.Unlock()
		if !live {
			mGhostDrops.Inc()
			return
		}
		if cur != s {
			// Re-registered while waiting; its new timestamp decides next turn.
			p.requeue(id)
			return
		}
	}

	p.poll(ctx, s, snap)
	p.requeue(id)
}

func (p *Poller) poll(ctx context.Context, s *UserStream, snap UserStream) {
	ctx, span := otel.Tracer("notification-poller").Start(context.WithoutCancel(ctx), "poller.poll")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", snap.UserID))
	log := obs.WithTrace(ctx, p.log).With(zap.String("user_id", snap.UserID))

	fctx, cancel := p.callContext(ctx)
	raw, err := snap.API.ListNotifications(fctx, snap.LastReadTimestamp)
	cancel()
	if err != nil {
		mPolls.WithLabelValues(pollFetchFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		log.Warn("fetch notifications failed", zap.Error(err))
		return
	}

	now := p.clock.Now()
	if !p.advance(s, now) {
		mPolls.WithLabelValues(pollDiscarded).Inc()
		log.Debug("user left during fetch; result discarded")
		return
	}

	events := p.enrich(ctx, snap, raw, log)

	if !p.current(s) {
		mPolls.WithLabelValues(pollDiscarded).Inc()
		log.Debug("user left during enrichment; batch discarded")
		return
	}
	if err := p.publish(ctx, notification.NewBatch(snap.RoomID, now, events)); err != nil {
		mPolls.WithLabelValues(pollPublishFailed).Inc()
		span.RecordError(err)
		log.Warn("publish batch failed", zap.Error(err))
		return
	}
	mPolls.WithLabelValues(pollOK).Inc()
	mNotifications.Add(float64(len(events)))
	span.SetAttributes(attribute.Int("notifications", len(events)))
	log.Debug("batch published", zap.Int("notifications", len(events)))
}

func (p *Poller) publish(ctx context.Context, b notification.Batch) error {
	msg, err := bus.NewMessage(bus.TopicNotificationsEvents, p.cfg.Sender, b)
	if err != nil {
		return fmt.Errorf("build batch message: %w", err)
	}
	pctx, cancel := p.callContext(ctx)
	defer cancel()
	return p.bus.Publish(pctx, msg)
}

// advance moves the stream's timestamp to now, unless s was removed or
// replaced meanwhile.
func (p *Poller) advance(s *UserStream, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.reg.Get(s.UserID); !ok || cur != s {
		return false
	}
	s.LastReadTimestamp = now
	return true
}

func (p *Poller) current(s *UserStream) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.reg.Get(s.UserID)
	return ok && cur == s
}

func (p *Poller) requeue(id string) {
	p.mu.Lock()
	p.rot.PushBack(id)
	p.gauges()
	p.mu.Unlock()
}

// sleep waits d on the poller clock and reports false if woken by Stop.
func (p *Poller) sleep(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	select {
	case <-p.clock.After(d):
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (p *Poller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.CallTimeout)
}

// gauges must be called with p.mu held.
func (p *Poller) gauges() {
	mUsers.Set(float64(p.reg.Len()))
	mQueue.Set(float64(p.rot.Len()))
}
