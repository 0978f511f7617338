package auth

import (
	"context"
	"log/slog"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/model"
)

// Credentials はログインAPIの呼び出し口。
type Credentials interface {
	Login(ctx context.Context, email, password string) (apiclient.LoginResponse, error)
	Register(ctx context.Context, name, email, password string) (apiclient.RegisterResponse, error)
}

// InputValidator はフォーム入力を検証する。
type InputValidator interface {
	Validate(s any) error
}

// LoginForm はログイン画面の入力。
type LoginForm struct {
	Email    string `json:"email" label:"メールアドレス" validate:"required"`
	Password string `json:"password" label:"パスワード" validate:"required"`
}

// RegisterForm は新規登録画面の入力。
type RegisterForm struct {
	Name     string `json:"name" label:"名前" validate:"required"`
	Email    string `json:"email" label:"メールアドレス" validate:"required,email"`
	Password string `json:"password" label:"パスワード" validate:"required,min=8"`
}

// Service はログイン・新規登録・ログアウトのフローを提供する。
type Service struct {
	credentials Credentials
	manager     *Manager
	validator   InputValidator
	logger      *slog.Logger
}

// NewService はServiceを生成する。
func NewService(credentials Credentials, manager *Manager, validator InputValidator, logger *slog.Logger) *Service {
	return &Service{
		credentials: credentials,
		manager:     manager,
		validator:   validator,
		logger:      logger,
	}
}

// Login はメールアドレスとパスワードでログインする。
// トークン取得後にプロフィールを取得し、成功した場合のみログイン状態になる。
func (s *Service) Login(ctx context.Context, form LoginForm) (model.Session, error) {
	if err := s.validator.Validate(form); err != nil {
		return model.Session{}, err
	}

	resp, err := s.credentials.Login(ctx, form.Email, form.Password)
	if err != nil {
		s.logger.Warn("ログインに失敗しました", slog.String("email", form.Email), slog.String("error", err.Error()))
		return model.Session{}, err
	}

	if err := s.manager.LoginWithTokenOnly(ctx, resp.Token); err != nil {
		return model.Session{}, err
	}
	return s.manager.Session(), nil
}

// Register は新規登録し、そのままログイン状態にする。
// ユーザー名とメールアドレスは登録APIの応答を使う。
func (s *Service) Register(ctx context.Context, form RegisterForm) (model.Session, error) {
	if err := s.validator.Validate(form); err != nil {
		return model.Session{}, err
	}

	resp, err := s.credentials.Register(ctx, form.Name, form.Email, form.Password)
	if err != nil {
		s.logger.Warn("新規登録に失敗しました", slog.String("email", form.Email), slog.String("error", err.Error()))
		return model.Session{}, err
	}

	user := model.User{Name: resp.Name, Email: resp.Email}
	if err := s.manager.Login(ctx, resp.Token, user); err != nil {
		return model.Session{}, err
	}
	return s.manager.Session(), nil
}

// Logout はログアウトする。
func (s *Service) Logout(ctx context.Context) {
	s.manager.Logout(ctx)
}

// ErrorMessage はログイン画面に表示するエラー文言を返す。
func ErrorMessage(err error) string {
	if apiErr, ok := model.AsAPIError(err); ok {
		return apiErr.Message
	}
	return "エラーが発生しました: " + err.Error()
}
