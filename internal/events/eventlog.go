// Package events provides the progression journal: an in-memory, append-only
// log of the notable things that happened to the player.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a progression event.
type EventType string

const (
	EventTypeUserRegistered   EventType = "USER_REGISTERED"
	EventTypeLevelUp          EventType = "LEVEL_UP"
	EventTypeUpgradePurchased EventType = "UPGRADE_PURCHASED"
	EventTypeSkinPurchased    EventType = "SKIN_PURCHASED"
	EventTypeSkinEquipped     EventType = "SKIN_EQUIPPED"
	EventTypeOfflineEarnings  EventType = "OFFLINE_EARNINGS"
	EventTypeStateReset       EventType = "STATE_RESET"
)

// DefaultCapacity bounds how many events the log keeps in memory.
const DefaultCapacity = 1024

// GameEvent represents an immutable record of something that happened.
type GameEvent struct {
	Seq       uint64      `json:"seq"`
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"` // Username, or "SYSTEM"
	Payload   interface{} `json:"payload"`  // Event-specific data
}

// EventLog keeps the most recent events; older ones are dropped once the
// capacity is reached. Sequence numbers keep increasing across drops.
type EventLog struct {
	mu       sync.RWMutex
	events   []GameEvent
	capacity int
	nextSeq  uint64
}

// NewEventLog creates a new event log. A non-positive capacity uses DefaultCapacity.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &EventLog{
		events:   make([]GameEvent, 0, 64),
		capacity: capacity,
		nextSeq:  1,
	}
}

// Append adds a new event and returns it with Seq, ID and Timestamp filled in.
func (el *EventLog) Append(event GameEvent) GameEvent {
	el.mu.Lock()
	defer el.mu.Unlock()

	event.Seq = el.nextSeq
	el.nextSeq++
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.events = append(el.events, event)
	if over := len(el.events) - el.capacity; over > 0 {
		el.events = append(el.events[:0:0], el.events[over:]...)
	}
	return event
}

// Since returns all retained events with Seq greater than seq, oldest first.
func (el *EventLog) Since(seq uint64) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Seq > seq {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all retained events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of every retained event.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return append([]GameEvent(nil), el.events...)
}

// LastSeq returns the sequence number of the newest event, 0 if none.
func (el *EventLog) LastSeq() uint64 {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.nextSeq - 1
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
