package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"chatrelay/internal/catalog"
	"chatrelay/internal/config"
	"chatrelay/internal/domain"
	"chatrelay/internal/domain/models"
	"chatrelay/internal/domain/repositories"
	"chatrelay/internal/domain/services"
)

// Service implements the ChatService interface. It holds no per-request
// state; everything durable lives in the repository. Concurrent turns
// against the same conversation are not coordinated here - the store's
// first-write-wins insert resolves racing creations, and interleaved message
// appends are accepted as-is.
type Service struct {
	chatRepo  repositories.ChatRepository
	txManager repositories.TransactionManager
	generator services.TextGenerator
	catalog   *catalog.Registry
	logger    *slog.Logger
}

// NewService creates the chat orchestration service
func NewService(
	chatRepo repositories.ChatRepository,
	txManager repositories.TransactionManager,
	generator services.TextGenerator,
	catalog *catalog.Registry,
	logger *slog.Logger,
) services.ChatService {
	return &Service{
		chatRepo:  chatRepo,
		txManager: txManager,
		generator: generator,
		catalog:   catalog,
		logger:    logger,
	}
}

// CreateTurn runs one chat turn.
//
// Ordering is load-bearing: the backend configuration is checked before any
// write so a misconfigured deployment never creates a partial conversation,
// and the user message is durable before the backend call so a failed or
// crashed turn leaves a readable conversation with no reply.
func (s *Service) CreateTurn(ctx context.Context, req *services.TurnRequest) (*services.TurnResponse, error) {
	if !req.Caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	if err := s.validateTurnRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	userMsg := lastUserMessage(req.Messages)
	if userMsg == nil {
		return nil, fmt.Errorf("%w: no user message found", domain.ErrValidation)
	}

	if err := s.generator.Ready(); err != nil {
		s.logger.Error("generation backend not configured", "error", err.Error())
		return nil, err
	}

	chat, err := s.chatRepo.GetChatByID(ctx, req.ChatID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		chat = &models.Chat{
			ID:         req.ChatID,
			UserID:     req.Caller.UserID,
			Title:      userMsg.Content,
			Visibility: models.VisibilityPrivate,
			CreatedAt:  time.Now(),
		}
		if err := s.chatRepo.SaveChat(ctx, chat); err != nil {
			return nil, err
		}
		s.logger.Info("chat created",
			"chat_id", chat.ID,
			"user_id", chat.UserID,
		)
	case err != nil:
		return nil, err
	}

	msgID := userMsg.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	userRecord := models.Message{
		ID:      msgID,
		ChatID:  req.ChatID,
		Role:    models.RoleUser,
		Content: userMsg.Content,
	}
	if err := s.chatRepo.SaveMessages(ctx, []models.Message{userRecord}); err != nil {
		return nil, err
	}

	model, ok := s.catalog.Resolve(req.SelectedChatModel)
	if !ok {
		// Unknown alias: let the backend use its configured default
		model = ""
	}

	reply, err := s.generator.Generate(ctx, userMsg.Content, model)
	if err != nil {
		// The user message stays persisted; a conversation ending in an
		// unanswered user message is a valid resting state.
		s.logger.Error("turn generation failed",
			"chat_id", req.ChatID,
			"user_id", req.Caller.UserID,
			"error", err.Error(),
		)
		return nil, err
	}

	assistantRecord := models.Message{
		ID:      req.ChatID + "-bot",
		ChatID:  req.ChatID,
		Role:    models.RoleAssistant,
		Content: reply,
	}
	if err := s.chatRepo.SaveMessages(ctx, []models.Message{assistantRecord}); err != nil {
		return nil, err
	}

	s.logger.Info("turn completed",
		"chat_id", req.ChatID,
		"user_id", req.Caller.UserID,
		"model", req.SelectedChatModel,
	)

	return &services.TurnResponse{Message: reply}, nil
}

// DeleteChat deletes a conversation and cascades to its messages.
//
// Existence is checked before ownership, so deleting a nonexistent id
// reports ErrNotFound even to a non-owner. The reverse leak (an existing
// conversation owned by someone else answers differently than a missing
// one) is accepted and documented, not fixed.
func (s *Service) DeleteChat(ctx context.Context, chatID string, caller models.Identity) error {
	if chatID == "" {
		return fmt.Errorf("%w: chat id is required", domain.ErrValidation)
	}
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}

	chat, err := s.chatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return err
	}

	if chat.UserID != caller.UserID {
		return domain.ErrNotOwner
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.chatRepo.DeleteChatByID(txCtx, chatID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("chat deleted",
		"chat_id", chatID,
		"user_id", caller.UserID,
	)

	return nil
}

// ListChats retrieves the caller's conversations, newest first.
func (s *Service) ListChats(ctx context.Context, caller models.Identity) ([]models.Chat, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.chatRepo.ListChatsByUser(ctx, caller.UserID)
}

// ListMessages retrieves a conversation's messages for a caller allowed to
// read it. A conversation whose last turn failed upstream ends with an
// unanswered user message; that is returned as-is.
func (s *Service) ListMessages(ctx context.Context, chatID string, caller models.Identity) ([]models.Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat id is required", domain.ErrValidation)
	}
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	chat, err := s.chatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if chat.Visibility == models.VisibilityPrivate && chat.UserID != caller.UserID {
		return nil, domain.ErrNotOwner
	}

	return s.chatRepo.ListMessagesByChat(ctx, chatID)
}

// lastUserMessage selects the most recent user message by sequence position,
// last in the supplied ordering regardless of what follows it.
func lastUserMessage(messages []services.TurnMessage) *services.TurnMessage {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return &messages[i]
		}
	}
	return nil
}

func (s *Service) validateTurnRequest(req *services.TurnRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ChatID,
			validation.Required,
			validation.Length(1, config.MaxChatIDLength),
		),
		validation.Field(&req.Messages,
			validation.Required,
			validation.Length(1, config.MaxTurnMessages),
		),
	)
}
