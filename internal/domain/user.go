package domain

import "time"

// User represents a pool participant.
type User struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}
