package notification_poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/domain/notification"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeClock jumps forward by d whenever the poller sleeps, so steps run
// synchronously while time still passes.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// blockingClock never fires; only Stop wakes a sleeping loop.
type blockingClock struct{}

func (blockingClock) Now() time.Time                       { return t0 }
func (blockingClock) After(time.Duration) <-chan time.Time { return nil }

type fetch struct {
	user  string
	since time.Time
	at    time.Time
}

// fakeGitHub serves every user's API and records what was asked of it.
type fakeGitHub struct {
	mu       sync.Mutex
	clock    notification.Clock
	feeds    map[string][]notification.Notification
	fail     map[string]error
	broken   map[string]bool
	fetches  []fetch
	resolves []string
	onFetch  func(user string)
}

func newFakeGitHub(clock notification.Clock) *fakeGitHub {
	return &fakeGitHub{
		clock:  clock,
		feeds:  map[string][]notification.Notification{},
		fail:   map[string]error{},
		broken: map[string]bool{},
	}
}

// factory treats the token as the user identity.
func (f *fakeGitHub) factory(token string) notification.API { return &fakeAPI{gh: f, user: token} }

func (f *fakeGitHub) fetchesOf(user string) []fetch {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fetch
	for _, x := range f.fetches {
		if x.user == user {
			out = append(out, x)
		}
	}
	return out
}

func (f *fakeGitHub) order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.fetches))
	for _, x := range f.fetches {
		out = append(out, x.user)
	}
	return out
}

type fakeAPI struct {
	gh   *fakeGitHub
	user string
}

func (a *fakeAPI) ListNotifications(_ context.Context, since time.Time) ([]notification.Notification, error) {
	a.gh.mu.Lock()
	a.gh.fetches = append(a.gh.fetches, fetch{user: a.user, since: since, at: a.gh.clock.Now()})
	feed, err, hook := a.gh.feeds[a.user], a.gh.fail[a.user], a.gh.onFetch
	a.gh.mu.Unlock()
	if hook != nil {
		hook(a.user)
	}
	return feed, err
}

func (a *fakeAPI) Resolve(_ context.Context, url string) (json.RawMessage, error) {
	a.gh.mu.Lock()
	defer a.gh.mu.Unlock()
	a.gh.resolves = append(a.gh.resolves, url)
	if a.gh.broken[url] {
		return nil, errors.New("404 Not Found")
	}
	return json.RawMessage(`{"url":"` + url + `"}`), nil
}

type batches struct {
	mu  sync.Mutex
	got []notification.Batch
}

func (b *batches) all() []notification.Batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]notification.Batch(nil), b.got...)
}

func captureBatches(t *testing.T, b bus.Bus) *batches {
	t.Helper()
	out := &batches{}
	require.NoError(t, b.Subscribe(context.Background(), bus.TopicNotificationsEvents))
	b.OnMessage(bus.TopicNotificationsEvents, func(_ context.Context, msg bus.Message) error {
		var batch notification.Batch
		if err := msg.Decode(&batch); err != nil {
			return err
		}
		out.mu.Lock()
		out.got = append(out.got, batch)
		out.mu.Unlock()
		return nil
	})
	return out
}

type harness struct {
	clock  *fakeClock
	gh     *fakeGitHub
	bus    *bus.Memory
	out    *batches
	poller *Poller
	stop   chan struct{}
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	clock := newFakeClock(t0)
	gh := newFakeGitHub(clock)
	b := bus.NewMemory(nil, time.Second)
	h := &harness{
		clock: clock,
		gh:    gh,
		bus:   b,
		out:   captureBatches(t, b),
		stop:  make(chan struct{}),
	}
	h.poller = New(cfg, Deps{Bus: b, NewAPI: gh.factory, Clock: clock})
	return h
}

func (h *harness) add(user, room string, since time.Time) {
	var ms int64
	if !since.IsZero() {
		ms = since.UnixMilli()
	}
	h.poller.AddUser(notification.EnableEvent{UserID: user, RoomID: room, Since: ms, Token: user})
}

func (h *harness) steps(n int) {
	for i := 0; i < n; i++ {
		h.poller.step(context.Background(), h.stop)
	}
}
