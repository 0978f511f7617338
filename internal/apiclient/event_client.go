package apiclient

import (
	"context"
	"net/http"
	"strconv"
)

// EventClient はイベントAPIのクライアント。全て認証必須。
type EventClient struct {
	client *Client
}

// NewEventClient はEventClientを生成する。
func NewEventClient(client *Client) *EventClient {
	return &EventClient{client: client}
}

// List は推しごとにまとめられたイベント一覧を取得する。
func (e *EventClient) List(ctx context.Context) ([]OshiWithEvents, error) {
	resp, err := Do[EventListResponse](ctx, e.client, Request{
		Method:       http.MethodGet,
		Endpoint:     "/me/events",
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Oshis, nil
}

// Detail は指定IDのイベント詳細を取得する。
func (e *EventClient) Detail(ctx context.Context, id int64) (EventDetailAPI, error) {
	resp, err := Do[EventDetailResponse](ctx, e.client, Request{
		Method:       http.MethodGet,
		Endpoint:     "/me/events/" + strconv.FormatInt(id, 10),
		RequiresAuth: true,
	})
	if err != nil {
		return EventDetailAPI{}, err
	}
	return resp.Event, nil
}

// Create はイベントを作成する。
func (e *EventClient) Create(ctx context.Context, data CreateEventData) (EventDetailAPI, error) {
	resp, err := Do[EventDetailResponse](ctx, e.client, Request{
		Method:       http.MethodPost,
		Endpoint:     "/me/events/new",
		Body:         CreateEventRequest{Event: data},
		RequiresAuth: true,
	})
	if err != nil {
		return EventDetailAPI{}, err
	}
	return resp.Event, nil
}

// Update は指定IDのイベントを更新する。
func (e *EventClient) Update(ctx context.Context, id int64, data UpdateEventData) (EventAPI, error) {
	resp, err := Do[EventUpdateResponse](ctx, e.client, Request{
		Method:       http.MethodPut,
		Endpoint:     "/me/events/" + strconv.FormatInt(id, 10),
		Body:         UpdateEventRequest{Event: data},
		RequiresAuth: true,
	})
	if err != nil {
		return EventAPI{}, err
	}
	return resp.Event, nil
}
