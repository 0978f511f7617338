// Package auth はセッションの保持とログイン・新規登録フローを提供する。
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/observable"
	"github.com/hitoshi/lovendar/internal/repository"
)

// 永続化に使うキー。
const (
	KeyAuthToken   = "auth_token"
	KeyCurrentUser = "current_user"
)

// ProfileFetcher はログインユーザーのプロフィールを取得する。
type ProfileFetcher interface {
	GetUserInfo(ctx context.Context) (apiclient.UserInfoResponse, error)
}

// Manager は認証トークンと現在のユーザーを保持し、端末ローカルに永続化する。
// 状態の変更はmutexで直列化し、observable経由で購読者に通知する。
type Manager struct {
	repo    repository.KeyValueRepository
	profile ProfileFetcher
	logger  *slog.Logger

	opMu sync.Mutex // Login/Logout系の操作を直列化する

	mu    sync.RWMutex
	token string
	user  *model.User

	session *observable.Value[model.Session]
}

// NewManager は永続化された状態を読み込んでManagerを生成する。
// トークンとユーザーの両方が読み込めた場合のみログイン済みとして復元する。
// 読み込みに失敗しても未ログイン状態で生成し、エラーは返さない。
func NewManager(ctx context.Context, repo repository.KeyValueRepository, logger *slog.Logger) *Manager {
	m := &Manager{
		repo:    repo,
		logger:  logger,
		session: observable.NewValue(model.Session{}),
	}

	token, user := m.load(ctx)
	if token != "" && user != nil {
		m.token = token
		m.user = user
		m.session.Set(model.Session{Token: token, User: copyUser(user)})
		logger.Info("保存済みのセッションを復元しました", slog.String("email", user.Email))
	}
	return m
}

func (m *Manager) load(ctx context.Context) (string, *model.User) {
	rawToken, err := m.repo.Get(ctx, KeyAuthToken)
	if err != nil {
		m.logger.Warn("認証トークンの読み込みに失敗しました", slog.String("error", err.Error()))
		return "", nil
	}
	if len(rawToken) == 0 {
		return "", nil
	}

	rawUser, err := m.repo.Get(ctx, KeyCurrentUser)
	if err != nil {
		m.logger.Warn("ユーザー情報の読み込みに失敗しました", slog.String("error", err.Error()))
		return "", nil
	}
	if rawUser == nil {
		return "", nil
	}

	var user model.User
	if err := json.Unmarshal(rawUser, &user); err != nil {
		m.logger.Warn("保存済みのユーザー情報をデコードできません", slog.String("error", err.Error()))
		return "", nil
	}
	return string(rawToken), &user
}

// SetProfileFetcher はLoginWithTokenOnlyで使うプロフィール取得元を設定する。
// HTTPクライアントがManagerをトークン供給元として使うため、生成後に注入する。
func (m *Manager) SetProfileFetcher(f ProfileFetcher) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.profile = f
}

// Token は現在のトークンを返す。apiclient.TokenSourceを実装する。
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// CurrentUser は現在のユーザーを返す。未ログインの場合はnilを返す。
func (m *Manager) CurrentUser() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.user)
}

// IsAuthenticated は公開中のセッションがログイン済みかを返す。
func (m *Manager) IsAuthenticated() bool {
	return m.session.Get().IsAuthenticated()
}

// Session は公開中のセッションを返す。
func (m *Manager) Session() model.Session {
	return m.session.Get()
}

// Subscribe はセッション変更の購読を開始する。
func (m *Manager) Subscribe() (<-chan model.Session, func()) {
	return m.session.Subscribe()
}

// Login はトークンとユーザーを保存し、ログイン状態にする。
func (m *Manager) Login(ctx context.Context, token string, user model.User) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.login(ctx, token, user)
}

func (m *Manager) login(ctx context.Context, token string, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := m.repo.Set(ctx, KeyAuthToken, []byte(token)); err != nil {
		return fmt.Errorf("failed to save auth token: %w", err)
	}
	if err := m.repo.Set(ctx, KeyCurrentUser, data); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.user = copyUser(&user)
	m.mu.Unlock()

	m.session.Set(model.Session{Token: token, User: copyUser(&user)})
	m.logger.Info("ログインしました", slog.String("email", user.Email))
	return nil
}

// LoginWithTokenOnly はトークンを保存した上でプロフィールを取得し、ログイン状態にする。
// プロフィール取得または認証情報の保存に失敗した場合はログアウトしてエラーを返す。
func (m *Manager) LoginWithTokenOnly(ctx context.Context, token string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.profile == nil {
		return fmt.Errorf("profile fetcher is not configured")
	}

	if err := m.repo.Set(ctx, KeyAuthToken, []byte(token)); err != nil {
		return fmt.Errorf("failed to save auth token: %w", err)
	}
	// プロフィール取得時にAuthorizationヘッダーを付けるため、公開前にトークンだけ保持する
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	info, err := m.profile.GetUserInfo(ctx)
	if err != nil {
		m.logger.Warn("プロフィールの取得に失敗したためログインを取り消します", slog.String("error", err.Error()))
		m.logout(context.WithoutCancel(ctx))
		return err
	}

	if err := m.login(ctx, token, model.User{Name: info.Name, Email: info.Email}); err != nil {
		m.logger.Warn("認証情報の保存に失敗したためログインを取り消します", slog.String("error", err.Error()))
		m.logout(context.WithoutCancel(ctx))
		return err
	}
	return nil
}

// Logout はメモリ上の状態と永続化された値を削除する。何度呼んでもよい。
func (m *Manager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.logout(ctx)
}

func (m *Manager) logout(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	for _, key := range []string{KeyAuthToken, KeyCurrentUser} {
		if err := m.repo.Delete(ctx, key); err != nil {
			m.logger.Warn("認証情報の削除に失敗しました", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	if m.session.Get().IsAuthenticated() {
		m.logger.Info("ログアウトしました")
	}
	m.session.Set(model.Session{})
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ID != nil {
		id := *u.ID
		c.ID = &id
	}
	return &c
}
