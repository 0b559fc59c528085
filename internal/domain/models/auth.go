package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claims shape issued by the session provider. Only the
// subject is required; everything else is informational.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// UserID returns the user id from the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// Identity is the resolved caller of a request. The zero value is anonymous;
// resolution never fails a request, it just leaves the identity anonymous.
type Identity struct {
	UserID string
}

// Anonymous is the identity of an unauthenticated request.
var Anonymous = Identity{}

// Authenticated reports whether the identity carries a user id.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
