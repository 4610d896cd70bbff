package models

import "time"

// GameEvent is one durable row in the action log consumed by the replay and
// statistics read paths.
type GameEvent struct {
	UserID    string
	GroupUID  string
	Action    string
	Result    string
	Payload   string
	Round     int
	CreatedAt time.Time
}
