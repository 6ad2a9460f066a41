package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ytfetch/ytfetch/internal/cookies"
	"github.com/ytfetch/ytfetch/internal/domain"
	"github.com/ytfetch/ytfetch/internal/service"
)

// maxCookieUpload bounds the accepted size of a credential upload.
const maxCookieUpload = 1 << 20

// DownloadServiceI is the orchestration boundary this transport adapts.
type DownloadServiceI interface {
	Resolve(ctx context.Context, rawURL string, userID int64) (*domain.VideoMetadata, error)
	Download(ctx context.Context, rawURL, selector string, userID int64) (<-chan domain.ProgressEvent, <-chan *domain.DownloadResult)
	DownloadBatch(ctx context.Context, urls []string, selector string, userID int64) []service.BatchItemResult
}

// ResolveRequest is the body of POST /resolve.
type ResolveRequest struct {
	URL    string `json:"url" validate:"required"`
	UserID int64  `json:"user_id" validate:"required"`
}

// DownloadRequest is the body of POST /download.
type DownloadRequest struct {
	URL      string `json:"url" validate:"required"`
	FormatID string `json:"format_id"`
	UserID   int64  `json:"user_id" validate:"required"`
}

// BatchRequest is the body of POST /download/batch.
type BatchRequest struct {
	URLs     []string `json:"urls" validate:"required,min=1,max=20"`
	FormatID string   `json:"format_id"`
	UserID   int64    `json:"user_id" validate:"required"`
}

// DownloadHandler adapts the download service onto HTTP. It is deliberately
// thin; all orchestration lives in the service.
type DownloadHandler struct {
	svc       DownloadServiceI
	cookies   *cookies.Store
	validator *validator.Validate
	logger    *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler.
func NewDownloadHandler(svc DownloadServiceI, store *cookies.Store, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		svc:       svc,
		cookies:   store,
		validator: validator.New(),
		logger:    logger,
	}
}

// Resolve handles POST /resolve.
func (h *DownloadHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !h.decode(w, r, &req) {
		return
	}

	meta, err := h.svc.Resolve(r.Context(), req.URL, req.UserID)
	if err != nil {
		h.logger.Warn("resolve failed", "url", req.URL, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

// Download handles POST /download. Progress events are consumed in-process;
// the response carries only the terminal result.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if !h.decode(w, r, &req) {
		return
	}

	events, results := h.svc.Download(r.Context(), req.URL, req.FormatID, req.UserID)
	for range events {
	}
	result := <-results

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// DownloadBatch handles POST /download/batch.
func (h *DownloadHandler) DownloadBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	results := h.svc.DownloadBatch(r.Context(), req.URLs, req.FormatID, req.UserID)
	writeJSON(w, http.StatusOK, results)
}

// UploadCookies handles PUT /cookies/{userID}.
func (h *DownloadHandler) UploadCookies(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	contents, err := io.ReadAll(io.LimitReader(r.Body, maxCookieUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := h.cookies.Save(userID, contents); err != nil {
		h.logger.Warn("cookie upload rejected", "user_id", userID, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// CookieStatus handles GET /cookies/{userID}.
func (h *DownloadHandler) CookieStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	present, description := h.cookies.Status(userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"present":     present,
		"description": description,
	})
}

func (h *DownloadHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
