package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
)

// CategoryFetcher はカテゴリ一覧を取得する。
type CategoryFetcher interface {
	FetchCategories(ctx context.Context) ([]apiclient.CategoryAPI, error)
}

// CommonHandler は共通マスタのHTTPハンドラー。
type CommonHandler struct {
	categories CategoryFetcher
	logger     *slog.Logger
}

// NewCommonHandler はCommonHandlerを生成する。
func NewCommonHandler(categories CategoryFetcher, logger *slog.Logger) *CommonHandler {
	return &CommonHandler{categories: categories, logger: logger}
}

// ListCategories はサーバーのカテゴリ一覧を返す。
// GET /api/categories
func (h *CommonHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.FetchCategories(r.Context())
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	categories := make([]model.Category, len(list))
	for i, c := range list {
		categories[i] = model.Category{
			ID:          c.ID,
			Slug:        c.Slug,
			Name:        c.Name,
			Description: c.Description,
		}
	}
	middleware.WriteJSON(w, http.StatusOK, categories)
}
