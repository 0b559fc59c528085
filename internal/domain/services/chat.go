package services

import (
	"context"

	"chatrelay/internal/domain/models"
)

// TurnMessage is one caller-supplied entry of the prior conversation context.
// The id is optional; the service generates one for the persisted user
// message when it is absent.
type TurnMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the input for a single chat turn. Messages is the ordered
// turn context as supplied by the caller; the service selects the last
// user-role entry by position, not by timestamp. SelectedChatModel is an
// alias resolved through the model catalog and passed through to the
// generation backend.
type TurnRequest struct {
	ChatID            string          `json:"id"`
	Messages          []TurnMessage   `json:"messages"`
	SelectedChatModel string          `json:"selectedChatModel"`
	Caller            models.Identity `json:"-"`
}

// TurnResponse carries the generated reply.
type TurnResponse struct {
	Message string `json:"message"`
}

// ChatService orchestrates chat turns and conversation lifecycle.
type ChatService interface {
	// CreateTurn runs one turn: authenticate, pick the user message, persist
	// it (creating the conversation on first use), call the generation
	// backend once, persist the reply, return it. Failure after the user
	// message is persisted leaves it in place; nothing is rolled back or
	// retried.
	CreateTurn(ctx context.Context, req *TurnRequest) (*TurnResponse, error)

	// DeleteChat deletes a conversation and all its messages. Only the owner
	// may delete; existence is checked before ownership so a nonexistent id
	// reports domain.ErrNotFound even to a non-owner.
	DeleteChat(ctx context.Context, chatID string, caller models.Identity) error

	// ListChats retrieves the caller's conversations, newest first.
	ListChats(ctx context.Context, caller models.Identity) ([]models.Chat, error)

	// ListMessages retrieves the messages of a conversation readable by the
	// caller (the owner, or anyone for a non-private conversation).
	ListMessages(ctx context.Context, chatID string, caller models.Identity) ([]models.Message, error)
}

// TextGenerator is the generation backend consumed by the chat service.
type TextGenerator interface {
	// Ready reports whether the backend is fully configured. It never makes
	// a network call. A non-nil error wraps domain.ErrConfig.
	Ready() error

	// Generate produces a reply for the prompt in a single attempt. An empty
	// model selects the backend's configured default. Errors wrap
	// domain.ErrUpstream (or domain.ErrConfig when unconfigured).
	Generate(ctx context.Context, prompt, model string) (string, error)
}
