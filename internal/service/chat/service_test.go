package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"chatrelay/internal/catalog"
	"chatrelay/internal/domain"
	"chatrelay/internal/domain/models"
	"chatrelay/internal/domain/repositories"
	"chatrelay/internal/domain/services"
)

// fakeChatRepo is an in-memory ChatRepository that mimics the store's
// semantics: first-write-wins chat creation, store-assigned non-decreasing
// message timestamps, upsert by message id.
type fakeChatRepo struct {
	chats    map[string]models.Chat
	messages []models.Message
	clock    time.Time

	saveChatCalls     int
	saveMessagesCalls int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats: make(map[string]models.Chat),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeChatRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeChatRepo) GetChatByID(ctx context.Context, id string) (*models.Chat, error) {
	chat, ok := f.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	return &chat, nil
}

func (f *fakeChatRepo) SaveChat(ctx context.Context, chat *models.Chat) error {
	f.saveChatCalls++
	if existing, ok := f.chats[chat.ID]; ok {
		*chat = existing
		return nil
	}
	chat.CreatedAt = f.tick()
	f.chats[chat.ID] = *chat
	return nil
}

func (f *fakeChatRepo) SaveMessages(ctx context.Context, messages []models.Message) error {
	f.saveMessagesCalls++
	for i := range messages {
		messages[i].CreatedAt = f.tick()
		replaced := false
		for j := range f.messages {
			if f.messages[j].ID == messages[i].ID {
				f.messages[j] = messages[i]
				replaced = true
				break
			}
		}
		if !replaced {
			f.messages = append(f.messages, messages[i])
		}
	}
	return nil
}

func (f *fakeChatRepo) DeleteChatByID(ctx context.Context, id string) error {
	if _, ok := f.chats[id]; !ok {
		return fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	delete(f.chats, id)
	kept := f.messages[:0]
	for _, msg := range f.messages {
		if msg.ChatID != id {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	return nil
}

func (f *fakeChatRepo) ListChatsByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	chats := []models.Chat{}
	for _, chat := range f.chats {
		if chat.UserID == userID {
			chats = append(chats, chat)
		}
	}
	return chats, nil
}

func (f *fakeChatRepo) ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	messages := []models.Message{}
	for _, msg := range f.messages {
		if msg.ChatID == chatID {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (f *fakeChatRepo) writes() int {
	return f.saveChatCalls + f.saveMessagesCalls
}

func (f *fakeChatRepo) messagesFor(chatID string) []models.Message {
	msgs, _ := f.ListMessagesByChat(context.Background(), chatID)
	return msgs
}

// fakeTxManager runs the function directly; atomicity is the real store's
// concern, the orchestrator only needs the call shape.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeGenerator records the prompt and model it was invoked with.
type fakeGenerator struct {
	reply    string
	err      error
	readyErr error

	calls      int
	lastPrompt string
	lastModel  string
}

func (f *fakeGenerator) Ready() error {
	return f.readyErr
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, model string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastModel = model
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(t *testing.T, repo *fakeChatRepo, gen *fakeGenerator) services.ChatService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	registry, err := catalog.NewRegistry()
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	return NewService(repo, fakeTxManager{}, gen, registry, logger)
}

func turnRequest(chatID, userID string, messages ...services.TurnMessage) *services.TurnRequest {
	return &services.TurnRequest{
		ChatID:   chatID,
		Messages: messages,
		Caller:   models.Identity{UserID: userID},
	}
}

func TestCreateTurn_Unauthenticated(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{reply: "hello"}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "", services.TurnMessage{Role: "user", Content: "hi"})
	req.Caller = models.Anonymous

	_, err := svc.CreateTurn(context.Background(), req)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if repo.writes() != 0 {
		t.Errorf("expected zero store writes, got %d", repo.writes())
	}
	if gen.calls != 0 {
		t.Errorf("expected no backend calls, got %d", gen.calls)
	}
}

func TestCreateTurn_NoUserMessage(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{reply: "hello"}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1",
		services.TurnMessage{Role: "assistant", Content: "previous reply"},
		services.TurnMessage{Role: "system", Content: "be nice"},
	)

	_, err := svc.CreateTurn(context.Background(), req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.writes() != 0 {
		t.Errorf("expected zero store writes, got %d", repo.writes())
	}
}

func TestCreateTurn_SelectsLastUserMessageByPosition(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{reply: "ok"}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1",
		services.TurnMessage{ID: "m1", Role: "user", Content: "first question"},
		services.TurnMessage{ID: "m2", Role: "assistant", Content: "first answer"},
		services.TurnMessage{ID: "m3", Role: "user", Content: "second question"},
		services.TurnMessage{ID: "m4", Role: "assistant", Content: "stale trailing entry"},
	)

	if _, err := svc.CreateTurn(context.Background(), req); err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}

	if gen.lastPrompt != "second question" {
		t.Errorf("expected prompt 'second question', got %q", gen.lastPrompt)
	}
}

func TestCreateTurn_ConfigCheckBeforePersistence(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{
		readyErr: fmt.Errorf("%w: AWS credentials are missing", domain.ErrConfig),
	}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1", services.TurnMessage{Role: "user", Content: "hi"})

	_, err := svc.CreateTurn(context.Background(), req)
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if repo.writes() != 0 {
		t.Errorf("misconfigured backend must not create partial state, got %d writes", repo.writes())
	}
}

func TestCreateTurn_NewChat(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{reply: "hello"}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1", services.TurnMessage{ID: "m1", Role: "user", Content: "hi"})

	resp, err := svc.CreateTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("expected reply 'hello', got %q", resp.Message)
	}

	chat, err := repo.GetChatByID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("chat not created: %v", err)
	}
	if chat.UserID != "u1" {
		t.Errorf("expected owner u1, got %q", chat.UserID)
	}
	if chat.Title != "hi" {
		t.Errorf("expected title from first user message, got %q", chat.Title)
	}
	if chat.Visibility != models.VisibilityPrivate {
		t.Errorf("expected private visibility, got %q", chat.Visibility)
	}

	msgs := repo.messagesFor("c1")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].Role != models.RoleUser || msgs[0].Content != "hi" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].ID != "c1-bot" || msgs[1].Role != models.RoleAssistant || msgs[1].Content != "hello" {
		t.Errorf("unexpected assistant message: %+v", msgs[1])
	}
	if msgs[1].CreatedAt.Before(msgs[0].CreatedAt) {
		t.Errorf("message timestamps must be non-decreasing")
	}
}

func TestCreateTurn_IdempotentCreation(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{reply: "reply"}
	svc := newTestService(t, repo, gen)

	first := turnRequest("c1", "u1", services.TurnMessage{ID: "m1", Role: "user", Content: "opening line"})
	if _, err := svc.CreateTurn(context.Background(), first); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	created, _ := repo.GetChatByID(context.Background(), "c1")

	second := turnRequest("c1", "u1", services.TurnMessage{ID: "m2", Role: "user", Content: "a later question"})
	if _, err := svc.CreateTurn(context.Background(), second); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	after, _ := repo.GetChatByID(context.Background(), "c1")
	if after.Title != created.Title {
		t.Errorf("title changed on second turn: %q -> %q", created.Title, after.Title)
	}
	if after.UserID != created.UserID {
		t.Errorf("owner changed on second turn: %q -> %q", created.UserID, after.UserID)
	}
	if !after.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("creation time changed on second turn")
	}
	if repo.saveChatCalls != 1 {
		t.Errorf("expected a single chat creation, got %d", repo.saveChatCalls)
	}
}

func TestCreateTurn_BackendFailure(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{
		err: fmt.Errorf("%w: invoke model", domain.ErrUpstream),
	}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1", services.TurnMessage{ID: "m1", Role: "user", Content: "hi"})

	_, err := svc.CreateTurn(context.Background(), req)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	// The user message is a valid resting state; no assistant message, no rollback.
	msgs := repo.messagesFor("c1")
	if len(msgs) != 1 {
		t.Fatalf("expected exactly the user message persisted, got %d messages", len(msgs))
	}
	if msgs[0].Role != models.RoleUser {
		t.Errorf("expected user message, got role %q", msgs[0].Role)
	}
	if _, err := repo.GetChatByID(context.Background(), "c1"); err != nil {
		t.Errorf("conversation should exist after failed turn: %v", err)
	}
}

func TestCreateTurn_GeneratesMessageIDWhenMissing(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{reply: "ok"}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1", services.TurnMessage{Role: "user", Content: "no id here"})
	if _, err := svc.CreateTurn(context.Background(), req); err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}

	msgs := repo.messagesFor("c1")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID == "" {
		t.Errorf("user message should get a generated id")
	}
}

func TestCreateTurn_ModelAliasResolution(t *testing.T) {
	tests := []struct {
		name      string
		alias     string
		wantModel string
	}{
		{
			name:      "known alias resolves to bedrock id",
			alias:     "chat-model",
			wantModel: "anthropic.claude-v2",
		},
		{
			name:      "unknown alias falls back to backend default",
			alias:     "experimental-model",
			wantModel: "",
		},
		{
			name:      "empty alias falls back to backend default",
			alias:     "",
			wantModel: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeChatRepo()
			gen := &fakeGenerator{reply: "ok"}
			svc := newTestService(t, repo, gen)

			req := turnRequest("c1", "u1", services.TurnMessage{Role: "user", Content: "hi"})
			req.SelectedChatModel = tt.alias

			if _, err := svc.CreateTurn(context.Background(), req); err != nil {
				t.Fatalf("CreateTurn failed: %v", err)
			}
			if gen.lastModel != tt.wantModel {
				t.Errorf("expected model %q, got %q", tt.wantModel, gen.lastModel)
			}
		})
	}
}

func TestDeleteChat_EmptyID(t *testing.T) {
	repo := newFakeChatRepo()
	svc := newTestService(t, repo, &fakeGenerator{})

	err := svc.DeleteChat(context.Background(), "", models.Identity{UserID: "u1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteChat_Unauthenticated(t *testing.T) {
	repo := newFakeChatRepo()
	repo.chats["c1"] = models.Chat{ID: "c1", UserID: "u1"}
	svc := newTestService(t, repo, &fakeGenerator{})

	err := svc.DeleteChat(context.Background(), "c1", models.Anonymous)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := repo.GetChatByID(context.Background(), "c1"); err != nil {
		t.Errorf("chat must be untouched: %v", err)
	}
}

func TestDeleteChat_NotFoundBeforeOwnership(t *testing.T) {
	repo := newFakeChatRepo()
	svc := newTestService(t, repo, &fakeGenerator{})

	// An authenticated non-owner deleting a nonexistent conversation
	// observes NotFound, never an ownership denial.
	err := svc.DeleteChat(context.Background(), "missing", models.Identity{UserID: "u2"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteChat_NotOwner(t *testing.T) {
	repo := newFakeChatRepo()
	repo.chats["c1"] = models.Chat{ID: "c1", UserID: "u1", Title: "hi"}
	svc := newTestService(t, repo, &fakeGenerator{})

	err := svc.DeleteChat(context.Background(), "c1", models.Identity{UserID: "u2"})
	if !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := repo.GetChatByID(context.Background(), "c1"); err != nil {
		t.Errorf("chat must be unchanged after denied delete: %v", err)
	}
}

func TestDeleteChat_OwnerCascades(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{reply: "hello"}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1", services.TurnMessage{ID: "m1", Role: "user", Content: "hi"})
	if _, err := svc.CreateTurn(context.Background(), req); err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}

	if err := svc.DeleteChat(context.Background(), "c1", models.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}

	if _, err := repo.GetChatByID(context.Background(), "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("chat should be gone, got %v", err)
	}
	if msgs := repo.messagesFor("c1"); len(msgs) != 0 {
		t.Errorf("messages should cascade, %d remain", len(msgs))
	}
}

func TestListChats_Unauthenticated(t *testing.T) {
	repo := newFakeChatRepo()
	svc := newTestService(t, repo, &fakeGenerator{})

	_, err := svc.ListChats(context.Background(), models.Anonymous)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestListMessages_Access(t *testing.T) {
	repo := newFakeChatRepo()
	repo.chats["c1"] = models.Chat{ID: "c1", UserID: "u1", Visibility: models.VisibilityPrivate}
	repo.chats["c2"] = models.Chat{ID: "c2", UserID: "u1", Visibility: models.VisibilityPublic}
	svc := newTestService(t, repo, &fakeGenerator{})

	tests := []struct {
		name    string
		chatID  string
		caller  models.Identity
		wantErr error
	}{
		{"owner reads private", "c1", models.Identity{UserID: "u1"}, nil},
		{"stranger denied private", "c1", models.Identity{UserID: "u2"}, domain.ErrNotOwner},
		{"stranger reads public", "c2", models.Identity{UserID: "u2"}, nil},
		{"anonymous denied", "c1", models.Anonymous, domain.ErrUnauthenticated},
		{"missing chat", "nope", models.Identity{UserID: "u1"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ListMessages(context.Background(), tt.chatID, tt.caller)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListMessages_ToleratesUnansweredTurn(t *testing.T) {
	repo := newFakeChatRepo()
	gen := &fakeGenerator{err: fmt.Errorf("%w: network", domain.ErrUpstream)}
	svc := newTestService(t, repo, gen)

	req := turnRequest("c1", "u1", services.TurnMessage{ID: "m1", Role: "user", Content: "hi"})
	if _, err := svc.CreateTurn(context.Background(), req); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream failure, got %v", err)
	}

	msgs, err := svc.ListMessages(context.Background(), "c1", models.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != models.RoleUser {
		t.Fatalf("expected a single unanswered user message, got %+v", msgs)
	}
}
