package models

import (
	"time"

	"golang.org/x/oauth2"
)

// Session holds one authenticated user's state between requests.
// Tokens live here only for the lifetime of the session; nothing is
// persisted.
type Session struct {
	ID                  string
	UserID              string
	FullName            string
	ProfileURL          string
	FreelancerReference string
	Token               *oauth2.Token
	TenantID            string
	TenantIDs           []string
	CreatedAt           time.Time
}
