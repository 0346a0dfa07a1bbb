package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alumni-hub/messaging-service/internal/domain"
	"github.com/alumni-hub/messaging-service/internal/postgres"
	"github.com/alumni-hub/messaging-service/internal/service"
	httpmw "github.com/alumni-hub/messaging-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	messageSvc *service.MessageService
	presence   *service.PresenceTracker
}

func NewHandler(messageSvc *service.MessageService, presence *service.PresenceTracker) *Handler {
	return &Handler{
		messageSvc: messageSvc,
		presence:   presence,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /messages/{username}
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	username := httpmw.UsernameFromCtx(r.Context())
	if username == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing username"})
		return
	}
	recipient := chi.URLParam(r, "username")

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	view, err := h.messageSvc.Send(r.Context(), username, recipient, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyContent), errors.Is(err, domain.ErrSelfMessage):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "recipient not found"})
		default:
			slog.Error("handler.SendMessage:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, itemFromView(*view))
}

// DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	username := httpmw.UsernameFromCtx(r.Context())
	if username == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing username"})
		return
	}
	messageID := chi.URLParam(r, "id")

	err := h.messageSvc.Delete(r.Context(), username, messageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMessageNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "message not found"})
		case errors.Is(err, domain.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, domain.ErrNotMessageOwner):
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "you don't own this message"})
		default:
			slog.Error("handler.DeleteMessage:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /messages?container=&limit=&cursor=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	username := httpmw.UsernameFromCtx(r.Context())
	if username == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing username"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	container := r.URL.Query().Get("container")
	cursor := r.URL.Query().Get("cursor")

	items, next, err := h.messageSvc.ListForUser(r.Context(), username, container, cursor, limit)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrInvalidCursor):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
		case errors.Is(err, domain.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			slog.Error("handler.ListMessages:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	resp := MessagesListResponse{Items: make([]MessageItem, 0, len(items)), NextCursor: next}
	for _, v := range items {
		resp.Items = append(resp.Items, itemFromView(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /messages/thread/{username}
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	username := httpmw.UsernameFromCtx(r.Context())
	if username == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing username"})
		return
	}
	other := chi.URLParam(r, "username")

	items, err := h.messageSvc.Thread(r.Context(), username, other)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			slog.Error("handler.GetThread:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	resp := ThreadResponse{Items: make([]MessageItem, 0, len(items))}
	for _, v := range items {
		resp.Items = append(resp.Items, itemFromView(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /presence
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PresenceResponse{Usernames: h.presence.Online()})
}

func itemFromView(v service.MessageView) MessageItem {
	return MessageItem{
		ID:                   v.ID,
		SenderID:             v.SenderID,
		SenderUsername:       v.SenderUsername,
		SenderDisplayName:    v.SenderDisplayName,
		SenderImageURL:       v.SenderImageURL,
		RecipientID:          v.RecipientID,
		RecipientUsername:    v.RecipientUsername,
		RecipientDisplayName: v.RecipientDisplayName,
		RecipientImageURL:    v.RecipientImageURL,
		Content:              v.Content,
		DateRead:             v.ReadAt,
		MessageSent:          v.SentAt,
	}
}
