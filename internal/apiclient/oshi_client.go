package apiclient

import (
	"context"
	"net/http"
	"strconv"
)

// OshiClient は推しAPIのクライアント。全て認証必須。
type OshiClient struct {
	client *Client
}

// NewOshiClient はOshiClientを生成する。
func NewOshiClient(client *Client) *OshiClient {
	return &OshiClient{client: client}
}

// List は推し一覧を取得する。
func (o *OshiClient) List(ctx context.Context) ([]OshiAPI, error) {
	resp, err := Do[OshiListResponse](ctx, o.client, Request{
		Method:       http.MethodGet,
		Endpoint:     "/me/oshis",
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Oshis, nil
}

// Create は推しを作成する。
func (o *OshiClient) Create(ctx context.Context, req OshiRequest) (OshiAPI, error) {
	resp, err := Do[OshiResponse](ctx, o.client, Request{
		Method:       http.MethodPost,
		Endpoint:     "/me/oshis/new",
		Body:         req,
		RequiresAuth: true,
	})
	if err != nil {
		return OshiAPI{}, err
	}
	return resp.Oshi, nil
}

// Update は指定IDの推しを更新する。
func (o *OshiClient) Update(ctx context.Context, id int64, req OshiRequest) (OshiAPI, error) {
	resp, err := Do[OshiResponse](ctx, o.client, Request{
		Method:       http.MethodPut,
		Endpoint:     "/me/oshis/" + strconv.FormatInt(id, 10),
		Body:         req,
		RequiresAuth: true,
	})
	if err != nil {
		return OshiAPI{}, err
	}
	return resp.Oshi, nil
}
