package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/core/ingestion_engine"
	"github.com/markdave123-py/botgpt/internal/services"
)

// maxUploadSize bounds multipart uploads.
const maxUploadSize = 32 << 20

type DocumentHandler struct {
	docs *services.DocumentService
	log  *zap.Logger
}

func NewDocumentHandler(docs *services.DocumentService, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, log: log}
}

type createDocumentRequest struct {
	UserID   string `json:"user_id"`
	FileName string `json:"filename"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

// Create stores a document sent as JSON text.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	doc, err := h.docs.Upload(r.Context(), ingestion_engine.IngestInput{
		UserID:   req.UserID,
		FileName: req.FileName,
		MimeType: req.MimeType,
		Content:  req.Content,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// UploadDocument handles a multipart file upload. The file is converted to
// text before chunking; the original is archived when object storage is
// configured.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, h.log, fmt.Errorf("%w: invalid multipart form: %v", core.ErrValidation, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.log, fmt.Errorf("%w: invalid file: %v", core.ErrValidation, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, h.log, fmt.Errorf("%w: reading upload: %v", core.ErrValidation, err))
		return
	}
	if len(data) == 0 {
		respondError(w, h.log, fmt.Errorf("%w: file is empty", core.ErrValidation))
		return
	}

	doc, err := h.docs.Upload(r.Context(), ingestion_engine.IngestInput{
		UserID: r.FormValue("user_id"),
		// strip any client-supplied path components
		FileName: filepath.Base(header.Filename),
		MimeType: header.Header.Get("Content-Type"),
		Raw:      data,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, h.log, fmt.Errorf("%w: user_id query parameter is required", core.ErrValidation))
		return
	}

	documents, err := h.docs.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, documents)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Original streams back the file as it was uploaded.
func (h *DocumentHandler) Original(w http.ResponseWriter, r *http.Request) {
	doc, data, err := h.docs.Original(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Warn("write original", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Delete(r.Context(), chi.URLParam(r, "documentID")); err != nil {
		respondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
