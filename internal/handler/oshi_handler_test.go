package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/oshi"
)

func newOshiRouter(h *OshiHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/oshis", h.ListOshis)
	r.Post("/api/oshis", h.CreateOshi)
	r.Put("/api/oshis/{id}", h.UpdateOshi)
	r.Delete("/api/oshis/{id}", h.DeleteOshi)
	return r
}

func TestOshiHandler_ListOshis(t *testing.T) {
	o := model.NewOshi("ミク", "", "#39C5BB", "")
	svc := &mockOshiService{snapshot: oshi.Snapshot{Oshis: []model.Oshi{o}}}
	var buf bytes.Buffer
	router := newOshiRouter(NewOshiHandler(svc, newTestLogger(&buf)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/oshis", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var snap oshi.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(snap.Oshis) != 1 || snap.Oshis[0].ID != o.ID {
		t.Errorf("oshis = %+v", snap.Oshis)
	}
}

func TestOshiHandler_CreateOshi(t *testing.T) {
	var gotForm oshi.Form
	svc := &mockOshiService{
		createFn: func(ctx context.Context, form oshi.Form) (model.Oshi, error) {
			gotForm = form
			o := model.NewOshi(form.Name, form.Group, form.Color, form.Description)
			o.ServerID = int64Ptr(5)
			return o, nil
		},
	}
	var buf bytes.Buffer
	router := newOshiRouter(NewOshiHandler(svc, newTestLogger(&buf)))

	body := `{"name":"ミク","color":"#39C5BB","urls":["https://example.com"],"categories":["歌"]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/oshis", strings.NewReader(body)))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotForm.Name != "ミク" || len(gotForm.URLs) != 1 || len(gotForm.Categories) != 1 {
		t.Errorf("form = %+v", gotForm)
	}
}

func TestOshiHandler_UpdateOshi_NotSynced(t *testing.T) {
	id := uuid.New()
	var gotID uuid.UUID
	svc := &mockOshiService{
		updateFn: func(ctx context.Context, localID uuid.UUID, form oshi.Form) (model.Oshi, error) {
			gotID = localID
			return model.Oshi{}, model.NewOshiNotSyncedError()
		},
	}
	var buf bytes.Buffer
	router := newOshiRouter(NewOshiHandler(svc, newTestLogger(&buf)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/oshis/"+id.String(), strings.NewReader(`{"name":"x"}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if gotID != id {
		t.Errorf("id = %s, want %s", gotID, id)
	}
}

func TestOshiHandler_DeleteOshi(t *testing.T) {
	existing := uuid.New()
	svc := &mockOshiService{
		deleteFn: func(id uuid.UUID) error {
			if id != existing {
				return model.NewOshiNotFoundError(id.String())
			}
			return nil
		},
	}
	var buf bytes.Buffer
	router := newOshiRouter(NewOshiHandler(svc, newTestLogger(&buf)))

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"削除成功", existing.String(), http.StatusNoContent},
		{"存在しない", uuid.NewString(), http.StatusNotFound},
		{"UUIDでない", "123", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/oshis/"+tt.id, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
