package auth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/repository"
	"github.com/hitoshi/lovendar/internal/validation"
)

type mockCredentials struct {
	loginFn    func(ctx context.Context, email, password string) (apiclient.LoginResponse, error)
	registerFn func(ctx context.Context, name, email, password string) (apiclient.RegisterResponse, error)
}

func (m *mockCredentials) Login(ctx context.Context, email, password string) (apiclient.LoginResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return apiclient.LoginResponse{}, nil
}

func (m *mockCredentials) Register(ctx context.Context, name, email, password string) (apiclient.RegisterResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return apiclient.RegisterResponse{}, nil
}

func TestService_ImplementsInterface(t *testing.T) {
	var _ Credentials = (*apiclient.AuthClient)(nil)
	var _ InputValidator = (*validation.Validator)(nil)
}

// ログインからプロフィール取得までを実際のHTTPクライアント経由で確認する。
func TestService_Login_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			if r.Header.Get("Authorization") != "" {
				t.Errorf("ログインAPIにAuthorizationが付いている")
			}
			w.Write([]byte(`{"token":"abc"}`))
		case "/api/me":
			if got := r.Header.Get("Authorization"); got != "Bearer abc" {
				t.Errorf("Authorization = %q, want Bearer abc", got)
			}
			w.Write([]byte(`{"name":"ハナコ","email":"a@b.com"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	manager := NewManager(context.Background(), repository.NewMemoryStore().KV(), logger)
	client := apiclient.NewClient(server.Client(), apiclient.StaticBaseURL(server.URL+"/api"), manager, logger, nil)
	manager.SetProfileFetcher(apiclient.NewMeClient(client))
	svc := NewService(apiclient.NewAuthClient(client), manager, validation.New(), logger)

	session, err := svc.Login(context.Background(), LoginForm{Email: "a@b.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	if !session.IsAuthenticated() || session.Token != "abc" {
		t.Errorf("session = %+v, want authenticated with abc", session)
	}
	if !manager.IsAuthenticated() {
		t.Error("Managerがログイン済みになっていない")
	}
	if session.User == nil || session.User.Email != "a@b.com" {
		t.Errorf("User = %+v", session.User)
	}
}

func TestService_Login_Errors(t *testing.T) {
	tests := []struct {
		name     string
		form     LoginForm
		loginErr error
		wantErr  error
	}{
		{"未入力", LoginForm{Email: "", Password: "x"}, nil, nil},
		{"認証失敗", LoginForm{Email: "a@b.com", Password: "x"}, model.ErrUnauthorized, model.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			manager := NewManager(context.Background(), repository.NewMemoryStore().KV(), newTestLogger(&buf))
			called := false
			creds := &mockCredentials{
				loginFn: func(ctx context.Context, email, password string) (apiclient.LoginResponse, error) {
					called = true
					return apiclient.LoginResponse{}, tt.loginErr
				},
			}
			svc := NewService(creds, manager, validation.New(), newTestLogger(&buf))

			_, err := svc.Login(context.Background(), tt.form)
			if err == nil {
				t.Fatal("Login がnilを返した")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && called {
				t.Error("検証エラーなのにAPIが呼ばれた")
			}
			if manager.IsAuthenticated() {
				t.Error("失敗したのにログイン済みになっている")
			}
		})
	}
}

func TestService_Register(t *testing.T) {
	var buf bytes.Buffer
	manager := NewManager(context.Background(), repository.NewMemoryStore().KV(), newTestLogger(&buf))
	creds := &mockCredentials{
		registerFn: func(ctx context.Context, name, email, password string) (apiclient.RegisterResponse, error) {
			return apiclient.RegisterResponse{Name: "ハナコ(サーバー)", Email: email, Token: "t-1"}, nil
		},
	}
	svc := NewService(creds, manager, validation.New(), newTestLogger(&buf))

	session, err := svc.Register(context.Background(), RegisterForm{Name: "ハナコ", Email: "h@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register がエラーを返した: %v", err)
	}

	if session.Token != "t-1" {
		t.Errorf("Token = %q, want t-1", session.Token)
	}
	if session.User == nil || session.User.Name != "ハナコ(サーバー)" || session.User.ID != nil {
		t.Errorf("User = %+v", session.User)
	}
}

func TestService_Register_ShortPassword(t *testing.T) {
	var buf bytes.Buffer
	manager := NewManager(context.Background(), repository.NewMemoryStore().KV(), newTestLogger(&buf))
	creds := &mockCredentials{
		registerFn: func(ctx context.Context, name, email, password string) (apiclient.RegisterResponse, error) {
			t.Error("検証エラーなのにAPIが呼ばれた")
			return apiclient.RegisterResponse{}, nil
		},
	}
	svc := NewService(creds, manager, validation.New(), newTestLogger(&buf))

	_, err := svc.Register(context.Background(), RegisterForm{Name: "ハナコ", Email: "h@example.com", Password: "1234567"})
	if got := ErrorMessage(err); got != "パスワードは8文字以上必要です" {
		t.Errorf("ErrorMessage = %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"NetworkError", model.ErrConflict, "データが重複しています"},
		{"BadRequest", model.NewBadRequestError("メールアドレスは既に使われています"), "メールアドレスは既に使われています"},
		{"その他", errors.New("boom"), "エラーが発生しました: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
