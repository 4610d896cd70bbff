package models

import "time"

// User is the durable account row backing a player's credits and statistics.
type User struct {
	UserID    string
	Name      string
	Credits   int64
	Earnings  int64
	Losses    int64
	CreatedAt time.Time
}
