package repositories

import (
	"context"

	"chatrelay/internal/domain/models"
)

// ChatRepository is the conversation store consumed by the chat service.
type ChatRepository interface {
	// GetChatByID retrieves a conversation by id.
	// Returns domain.ErrNotFound if no conversation exists.
	GetChatByID(ctx context.Context, id string) (*models.Chat, error)

	// SaveChat creates a conversation with first-write-wins semantics: if a
	// conversation with the same id already exists, the insert is a no-op and
	// the existing row is loaded back into chat. Owner, title and creation
	// time are therefore never overwritten by a later turn.
	SaveChat(ctx context.Context, chat *models.Chat) error

	// SaveMessages appends messages to their conversations in order. The
	// store assigns each message's CreatedAt at insert time and writes it
	// back; insertion order preserves the caller's ordering.
	SaveMessages(ctx context.Context, messages []models.Message) error

	// DeleteChatByID removes a conversation and all of its messages.
	// Each statement runs against the transaction in ctx when one is present;
	// callers wrap this in TransactionManager.ExecTx to make the cascade
	// all-or-nothing. Returns domain.ErrNotFound if the conversation does
	// not exist.
	DeleteChatByID(ctx context.Context, id string) error

	// ListChatsByUser retrieves the caller's conversations, newest first.
	// Returns an empty slice if there are none.
	ListChatsByUser(ctx context.Context, userID string) ([]models.Chat, error)

	// ListMessagesByChat retrieves a conversation's messages in persistence
	// order. A trailing user message with no assistant reply is normal.
	ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error)
}
