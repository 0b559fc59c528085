package models

import "time"

// Visibility controls who can read a conversation. Only the owner can read a
// private conversation; nothing in this service mutates visibility after
// creation.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat is a persisted conversation. The id is caller-supplied and stable
// across turns; owner, title and creation time are set exactly once by the
// first turn that references the id (first-write-wins).
type Chat struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Title      string     `json:"title" db:"title"`
	Visibility Visibility `json:"visibility" db:"visibility"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Message is one entry in a conversation. CreatedAt is assigned by the store
// at persistence time, never by the caller, and is non-decreasing within a
// conversation. A conversation may end with a user message that has no
// assistant reply - a turn whose backend call failed.
type Message struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
