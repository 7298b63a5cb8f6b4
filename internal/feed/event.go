// Package feed is a WebSocket client for the live listing, status and trade
// event stream.
package feed

import (
	"time"

	"unicorn-dashboard/internal/domain"
)

// EventType names a feed event.
type EventType string

const (
	EventListing EventType = "listing" // new unicorn
	EventStatus  EventType = "status"  // lifecycle change
	EventTrade   EventType = "trade"   // completed trade
)

// Channels lists every event type a client can subscribe to.
var Channels = []EventType{EventListing, EventStatus, EventTrade}

// Event is one decoded feed message. Exactly the payload matching Type is set.
type Event struct {
	Type   EventType `json:"type"`
	SentAt time.Time `json:"sent_at"`

	Unicorn   *domain.Unicorn     `json:"unicorn,omitempty"`
	UnicornID string              `json:"unicorn_id,omitempty"`
	Status    domain.Status       `json:"status,omitempty"`
	Trade     *domain.TradeRecord `json:"trade,omitempty"`
}

// Valid reports whether the payload matches the type.
func (e Event) Valid() bool {
	switch e.Type {
	case EventListing:
		return e.Unicorn != nil
	case EventStatus:
		return e.UnicornID != "" && e.Status != ""
	case EventTrade:
		return e.Trade != nil
	}
	return false
}

// Wire messages other than events.

type subscribeRequest struct {
	Type     string      `json:"type"` // "subscribe"
	ID       uint64      `json:"id"`
	Channels []EventType `json:"channels"`
}

type envelope struct {
	Type    string `json:"type"`
	ID      uint64 `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}
