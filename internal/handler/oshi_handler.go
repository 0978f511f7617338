package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/oshi"
)

// OshiServiceInterface は推しハンドラーが必要とするサービスインターフェース。
type OshiServiceInterface interface {
	Snapshot() oshi.Snapshot
	Create(ctx context.Context, form oshi.Form) (model.Oshi, error)
	Update(ctx context.Context, id uuid.UUID, form oshi.Form) (model.Oshi, error)
	Delete(id uuid.UUID) error
}

// OshiHandler は推しのHTTPハンドラー。{id}は端末ローカルのIDを指す。
type OshiHandler struct {
	service OshiServiceInterface
	logger  *slog.Logger
}

// NewOshiHandler はOshiHandlerを生成する。
func NewOshiHandler(service OshiServiceInterface, logger *slog.Logger) *OshiHandler {
	return &OshiHandler{
		service: service,
		logger:  logger,
	}
}

// ListOshis は公開中の推し一覧を返す。
// GET /api/oshis
func (h *OshiHandler) ListOshis(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.service.Snapshot())
}

// CreateOshi は推しを作成する。
// POST /api/oshis
func (h *OshiHandler) CreateOshi(w http.ResponseWriter, r *http.Request) {
	var form oshi.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	o, err := h.service.Create(r.Context(), form)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, o)
}

// UpdateOshi は推しを更新する。
// PUT /api/oshis/{id}
func (h *OshiHandler) UpdateOshi(w http.ResponseWriter, r *http.Request) {
	id, ok := localIDParam(w, r)
	if !ok {
		return
	}

	var form oshi.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	o, err := h.service.Update(r.Context(), id, form)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, o)
}

// DeleteOshi は一覧から推しを取り除く。
// DELETE /api/oshis/{id}
func (h *OshiHandler) DeleteOshi(w http.ResponseWriter, r *http.Request) {
	id, ok := localIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(id); err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func localIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewOshiNotFoundError(raw))
		return uuid.UUID{}, false
	}
	return id, true
}
