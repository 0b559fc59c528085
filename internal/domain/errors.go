package domain

import "errors"

// Sentinel errors for the request pipeline - match with errors.Is().
// Handlers map these onto HTTP status codes; anything that doesn't match
// (store failures, encoding failures) surfaces as a generic 500.
var (
	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or incomplete caller input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated indicates the request carried no resolvable identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotOwner indicates the caller is authenticated but does not own the
	// conversation. Checked only after existence, so a nonexistent id reports
	// ErrNotFound regardless of ownership.
	ErrNotOwner = errors.New("not the conversation owner")

	// ErrConfig indicates the generation backend is missing credentials or a
	// target model. Detectable without a network call, and checked before any
	// persistence so a misconfigured deployment never creates partial state.
	ErrConfig = errors.New("generation backend not configured")

	// ErrUpstream indicates the generation backend failed: transport error,
	// non-JSON payload, or a payload without a completion. A turn that fails
	// here leaves the user message persisted with no reply, which is a valid
	// resting state for the conversation.
	ErrUpstream = errors.New("generation backend failed")
)
