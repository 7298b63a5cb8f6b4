package domain

import "time"

// ActivityCategory classifies a feed entry.
type ActivityCategory string

const (
	ActivityListing      ActivityCategory = "listing"
	ActivityTrade        ActivityCategory = "trade"
	ActivityBid          ActivityCategory = "bid"
	ActivityAlert        ActivityCategory = "alert"
	ActivityRegistration ActivityCategory = "registration"
)

// String returns the string representation of ActivityCategory.
func (c ActivityCategory) String() string {
	return string(c)
}

// ActivityEntry is one line of the bounded activity feed.
type ActivityEntry struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	Description string           `json:"description"`
	Category    ActivityCategory `json:"category"`
	RecordID    string           `json:"record_id,omitempty"` // empty for breed-level alerts
}
