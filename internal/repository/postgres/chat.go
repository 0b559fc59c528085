package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatrelay/internal/domain"
	"chatrelay/internal/domain/models"
	"chatrelay/internal/domain/repositories"
)

// PostgresChatRepository implements the ChatRepository interface using PostgreSQL
type PostgresChatRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatRepository creates a new PostgresChatRepository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &PostgresChatRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetChatByID retrieves a conversation by id
func (r *PostgresChatRepository) GetChatByID(ctx context.Context, id string) (*models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, visibility, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Chats)

	var chat models.Chat
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Visibility,
		&chat.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}

	return &chat, nil
}

// SaveChat creates a conversation with first-write-wins semantics. Two
// concurrent first turns against the same id both reach this insert; the
// primary key decides the winner and the loser reads the winner's row back.
func (r *PostgresChatRepository) SaveChat(ctx context.Context, chat *models.Chat) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, visibility, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		chat.ID,
		chat.UserID,
		chat.Title,
		chat.Visibility,
	)
	if err != nil {
		return fmt.Errorf("save chat: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Lost the race (or the chat already existed): surface the existing
		// row so the caller sees the fields that actually won.
		existing, err := r.GetChatByID(ctx, chat.ID)
		if err != nil {
			return fmt.Errorf("load existing chat: %w", err)
		}
		*chat = *existing
		return nil
	}

	// Read back the store-assigned creation time
	created, err := r.GetChatByID(ctx, chat.ID)
	if err != nil {
		return fmt.Errorf("load created chat: %w", err)
	}
	chat.CreatedAt = created.CreatedAt

	return nil
}

// SaveMessages appends messages in order. created_at is assigned by the
// store, so timestamps are non-decreasing in insertion order. A repeated
// message id (the deterministic "-bot" id of a re-run turn) replaces the
// earlier row instead of failing the turn.
func (r *PostgresChatRepository) SaveMessages(ctx context.Context, messages []models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, created_at = EXCLUDED.created_at
		RETURNING created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	for i := range messages {
		msg := &messages[i]
		err := executor.QueryRow(ctx, query,
			msg.ID,
			msg.ChatID,
			msg.Role,
			msg.Content,
		).Scan(&msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("save message %s: %w", msg.ID, err)
		}
	}

	return nil
}

// DeleteChatByID removes a conversation and its messages. Run inside
// TransactionManager.ExecTx so the cascade is all-or-nothing.
func (r *PostgresChatRepository) DeleteChatByID(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	deleteMessages := fmt.Sprintf(`DELETE FROM %s WHERE chat_id = $1`, r.tables.Messages)
	if _, err := executor.Exec(ctx, deleteMessages, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	deleteChat := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Chats)
	tag, err := executor.Exec(ctx, deleteChat, id)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListChatsByUser retrieves a user's conversations, newest first
func (r *PostgresChatRepository) ListChatsByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, visibility, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		err := rows.Scan(
			&chat.ID,
			&chat.UserID,
			&chat.Title,
			&chat.Visibility,
			&chat.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	// Return empty slice instead of nil
	if chats == nil {
		chats = []models.Chat{}
	}

	return chats, nil
}

// ListMessagesByChat retrieves a conversation's messages in persistence order
func (r *PostgresChatRepository) ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, role, content, created_at
		FROM %s
		WHERE chat_id = $1
		ORDER BY created_at, id
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	if messages == nil {
		messages = []models.Message{}
	}

	return messages, nil
}
