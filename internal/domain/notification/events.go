package notification

import "time"

// EnableEvent registers (or re-registers) a user for polling.
type EnableEvent struct {
	UserID string `json:"userId" validate:"required"`
	RoomID string `json:"roomId" validate:"required"`
	// Since is the initial lower bound in unix milliseconds; 0 means none.
	Since int64  `json:"since" validate:"gte=0"`
	Token string `json:"token" validate:"required"`
}

func (e EnableEvent) SinceTime() time.Time {
	if e.Since <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Since).UTC()
}

type DisableEvent struct {
	UserID string `json:"userId" validate:"required"`
}

// Batch is published once per successful poll, even when Events is empty.
type Batch struct {
	RoomID            string         `json:"roomId"`
	LastReadTimestamp int64          `json:"lastReadTimestamp"`
	Events            []Notification `json:"events"`
}

func NewBatch(roomID string, lastRead time.Time, events []Notification) Batch {
	if events == nil {
		events = []Notification{}
	}
	return Batch{RoomID: roomID, LastReadTimestamp: lastRead.UnixMilli(), Events: events}
}
