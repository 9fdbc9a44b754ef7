package models

import "time"

// Identity is what a verified token proves about its bearer.
type Identity struct {
	Email     string
	ExpiresAt time.Time
	TokenID   string
}
