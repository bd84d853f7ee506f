package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/services"
)

type ConversationHandler struct {
	convs *services.ConversationService
	log   *zap.Logger
}

func NewConversationHandler(convs *services.ConversationService, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{convs: convs, log: log}
}

type appendMessageRequest struct {
	Content string `json:"content"`
}

// Create starts a conversation and answers its first message.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateConversationInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	res, err := h.convs.Create(r.Context(), req)
	if err != nil {
		convID := ""
		if res != nil {
			convID = res.ConversationID
		}
		respondErrorFor(w, h.log, err, convID)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (h *ConversationHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "conversationID")
	var req appendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	res, err := h.convs.AppendMessage(r.Context(), convID, req.Content)
	if err != nil {
		respondErrorFor(w, h.log, err, convID)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("user_id"))
	if userID == "" {
		respondError(w, h.log, fmt.Errorf("%w: user_id query parameter is required", core.ErrValidation))
		return
	}
	page, err := queryInt(q.Get("page"), 1)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	pageSize, err := queryInt(q.Get("page_size"), 0)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	out, err := h.convs.List(r.Context(), userID, page, pageSize)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.convs.Get(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.convs.Delete(r.Context(), chi.URLParam(r, "conversationID")); err != nil {
		respondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", core.ErrValidation, v)
	}
	return n, nil
}
