package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/repository"
)

// KeyAuthorizationStatus は通知許可状態の保存キー。
const KeyAuthorizationStatus = "notificationAuthorizationStatus"

// PermissionStore は端末の通知許可状態を保持する。
type PermissionStore struct {
	repo   repository.KeyValueRepository
	logger *slog.Logger

	mu     sync.RWMutex
	status model.AuthorizationStatus
}

// NewPermissionStore は保存済みの許可状態を読み込む。
// 保存値がない、または読み込めない場合はnotDeterminedとする。
func NewPermissionStore(ctx context.Context, repo repository.KeyValueRepository, logger *slog.Logger) *PermissionStore {
	p := &PermissionStore{
		repo:   repo,
		logger: logger,
		status: model.AuthorizationNotDetermined,
	}

	raw, err := repo.Get(ctx, KeyAuthorizationStatus)
	if err != nil {
		logger.Warn("通知許可状態の読み込みに失敗しました", slog.String("error", err.Error()))
		return p
	}
	if raw == nil {
		return p
	}
	if status := model.AuthorizationStatus(raw); status.IsValid() {
		p.status = status
	}
	return p
}

// Status は現在の許可状態を返す。
func (p *PermissionStore) Status() model.AuthorizationStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// IsAuthorized は通知が許可されているかを返す。
func (p *PermissionStore) IsAuthorized() bool {
	return p.Status() == model.AuthorizationAuthorized
}

// RequestAuthorization は許可ダイアログに対するユーザーの回答を記録する。
func (p *PermissionStore) RequestAuthorization(ctx context.Context, granted bool) (model.AuthorizationStatus, error) {
	status := model.AuthorizationDenied
	if granted {
		status = model.AuthorizationAuthorized
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.Set(ctx, KeyAuthorizationStatus, []byte(status)); err != nil {
		return p.status, fmt.Errorf("通知許可状態の保存に失敗しました: %w", err)
	}
	p.status = status

	p.logger.Info("通知許可状態を更新しました", slog.String("status", string(status)))
	return status, nil
}
