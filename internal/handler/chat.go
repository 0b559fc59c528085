package handler

import (
	"log/slog"
	"net/http"

	"chatrelay/internal/domain/services"
	"chatrelay/internal/httputil"
)

// ChatHandler handles chat HTTP requests
// Follows Clean Architecture: handlers only communicate with services, never repositories
type ChatHandler struct {
	chatService services.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService services.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// CreateTurn runs a single chat turn
// POST /api/chat
// Body: { id, messages, selectedChatModel }
func (h *ChatHandler) CreateTurn(w http.ResponseWriter, r *http.Request) {
	var req services.TurnRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Caller = httputil.GetIdentity(r)

	resp, err := h.chatService.CreateTurn(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// DeleteChat deletes a conversation and all its messages
// DELETE /api/chat?id=<chatID>
// A missing id parameter responds 404, matching the API contract rather
// than the usual 400.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("id")
	if chatID == "" {
		httputil.RespondError(w, http.StatusNotFound, "Not Found")
		return
	}

	caller := httputil.GetIdentity(r)
	if err := h.chatService.DeleteChat(r.Context(), chatID, caller); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondText(w, http.StatusOK, "Chat deleted")
}

// History lists the caller's conversations, newest first
// GET /api/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	caller := httputil.GetIdentity(r)

	chats, err := h.chatService.ListChats(r.Context(), caller)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chats)
}

// ListMessages retrieves a conversation's messages
// GET /api/chat/{id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}

	caller := httputil.GetIdentity(r)
	messages, err := h.chatService.ListMessages(r.Context(), chatID, caller)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}
