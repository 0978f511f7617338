package apiclient

import (
	"context"
	"net/http"
)

// AuthClient はログイン・新規登録APIのクライアント。どちらも認証不要。
type AuthClient struct {
	client *Client
}

// NewAuthClient はAuthClientを生成する。
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

// Login はメールアドレスとパスワードでログインし、トークンを返す。
func (a *AuthClient) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	return Do[LoginResponse](ctx, a.client, Request{
		Method:   http.MethodPost,
		Endpoint: "/auth/login",
		Body:     LoginRequest{Email: email, Password: password},
	})
}

// Register は新規ユーザーを登録し、名前・メールアドレス・トークンを返す。
func (a *AuthClient) Register(ctx context.Context, name, email, password string) (RegisterResponse, error) {
	return Do[RegisterResponse](ctx, a.client, Request{
		Method:   http.MethodPost,
		Endpoint: "/auth/register",
		Body:     RegisterRequest{Name: name, Email: email, Password: password},
	})
}

// MeClient はログインユーザー情報APIのクライアント。
type MeClient struct {
	client *Client
}

// NewMeClient はMeClientを生成する。
func NewMeClient(client *Client) *MeClient {
	return &MeClient{client: client}
}

// GetUserInfo はログイン中のユーザー情報を取得する。
func (m *MeClient) GetUserInfo(ctx context.Context) (UserInfoResponse, error) {
	return Do[UserInfoResponse](ctx, m.client, Request{
		Method:       http.MethodGet,
		Endpoint:     "/me",
		RequiresAuth: true,
	})
}

// CommonClient は共通情報APIのクライアント。
type CommonClient struct {
	client *Client
}

// NewCommonClient はCommonClientを生成する。
func NewCommonClient(client *Client) *CommonClient {
	return &CommonClient{client: client}
}

// FetchCategories はカテゴリ一覧を取得する。認証不要。
func (c *CommonClient) FetchCategories(ctx context.Context) ([]CategoryAPI, error) {
	resp, err := Do[CommonResponse](ctx, c.client, Request{
		Method:   http.MethodGet,
		Endpoint: "/common",
	})
	if err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// Ping は GET /common が2xxを返すかを確認する。
func (c *CommonClient) Ping(ctx context.Context) error {
	return c.client.Probe(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "/common",
	})
}
