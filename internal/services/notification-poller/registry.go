package notification_poller

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/NordCoder/ghbridge/internal/domain/notification"
)

// UserStream is one registered user's polling state.
type UserStream struct {
	UserID            string
	RoomID            string
	API               notification.API
	LastReadTimestamp time.Time

	resolved *cache.Cache
}

// Registry holds at most one stream per user id. It is not synchronized;
// the Poller guards it together with the Rotation.
type Registry struct {
	streams map[string]*UserStream
}

func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]*UserStream)}
}

// Put stores s and reports whether the user was already registered.
func (r *Registry) Put(s *UserStream) bool {
	_, existed := r.streams[s.UserID]
	r.streams[s.UserID] = s
	return existed
}

func (r *Registry) Get(userID string) (*UserStream, bool) {
	s, ok := r.streams[userID]
	return s, ok
}

func (r *Registry) Delete(userID string) bool {
	_, ok := r.streams[userID]
	delete(r.streams, userID)
	return ok
}

func (r *Registry) Len() int { return len(r.streams) }

// Rotation is the FIFO polling order. It may hold ids that are no longer in
// the Registry; those are dropped when they reach the head. An id is never
// queued twice.
type Rotation struct {
	ids    []string
	queued map[string]struct{}
}

func NewRotation() *Rotation {
	return &Rotation{queued: make(map[string]struct{})}
}

// PushBack appends id unless it is already queued, and reports whether it did.
func (q *Rotation) PushBack(id string) bool {
	if _, ok := q.queued[id]; ok {
		return false
	}
	q.queued[id] = struct{}{}
	q.ids = append(q.ids, id)
	return true
}

func (q *Rotation) PopFront() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}
	id := q.ids[0]
	q.ids[0] = ""
	q.ids = q.ids[1:]
	delete(q.queued, id)
	return id, true
}

func (q *Rotation) Len() int { return len(q.ids) }

func (q *Rotation) Snapshot() []string { return append([]string(nil), q.ids...) }
