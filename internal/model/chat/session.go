package chat

import "time"

// Session captures one anonymous conversation from start to end.
type Session struct {
	ID        string    `json:"id"`
	Goal      string    `json:"goal,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
