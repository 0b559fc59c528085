package config

const (
	// MaxChatIDLength is the maximum length for a caller-supplied
	// conversation id. Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxChatIDLength = 255

	// MaxTurnMessages is the maximum number of context messages accepted in
	// a single turn request. The backend only consumes the last user
	// message, so anything larger is almost certainly a client bug.
	MaxTurnMessages = 200

	// MaxMessageContentLength is the maximum length for a single message's
	// content.
	MaxMessageContentLength = 32768

	// DefaultMaxTokens caps the generated reply when the model catalog does
	// not specify a limit.
	DefaultMaxTokens = 150
)
