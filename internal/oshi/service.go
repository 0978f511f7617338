// Package oshi は推し一覧の同期と作成・更新・削除を提供する。
package oshi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/observable"
	"github.com/hitoshi/lovendar/internal/syncrun"
)

// Remote は推しAPIの呼び出し口。
type Remote interface {
	List(ctx context.Context) ([]apiclient.OshiAPI, error)
	Create(ctx context.Context, req apiclient.OshiRequest) (apiclient.OshiAPI, error)
	Update(ctx context.Context, id int64, req apiclient.OshiRequest) (apiclient.OshiAPI, error)
}

// SessionChecker はログイン状態を返す。
type SessionChecker interface {
	IsAuthenticated() bool
}

// InputValidator はフォーム入力を検証する。
type InputValidator interface {
	Validate(s any) error
}

// Form は推しの追加・編集画面の入力。
// GroupとDescriptionはサーバーに送らず、端末上の表示にのみ使う。
type Form struct {
	Name        string   `json:"name" label:"名前" validate:"required"`
	Group       string   `json:"group"`
	Color       string   `json:"color" label:"カラー" validate:"omitempty,oshicolor"`
	URLs        []string `json:"urls" label:"URL" validate:"dive,http_url"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
}

// Snapshot は公開中の推し一覧。
type Snapshot struct {
	Oshis        []model.Oshi `json:"oshis"`
	ErrorMessage string       `json:"error_message,omitempty"`
	SyncedAt     time.Time    `json:"synced_at"`
}

// Service は推し一覧を保持し、サーバーと同期する。
// 一覧は端末に永続化せず、同期のたびに丸ごと置き換える。
type Service struct {
	remote    Remote
	session   SessionChecker
	validator InputValidator
	tracker   *syncrun.Tracker
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex // 一覧の読み書きを直列化する
	value *observable.Value[Snapshot]
}

// NewService はServiceを生成する。
func NewService(remote Remote, session SessionChecker, validator InputValidator, tracker *syncrun.Tracker, logger *slog.Logger) *Service {
	return &Service{
		remote:    remote,
		session:   session,
		validator: validator,
		tracker:   tracker,
		logger:    logger,
		now:       time.Now,
		value:     observable.NewValue(Snapshot{Oshis: []model.Oshi{}}),
	}
}

// Snapshot は公開中の一覧を返す。
func (s *Service) Snapshot() Snapshot {
	return s.value.Get()
}

// Oshis は公開中の推し一覧を返す。
func (s *Service) Oshis() []model.Oshi {
	return s.value.Get().Oshis
}

// Subscribe は一覧変更の購読を開始する。
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	return s.value.Subscribe()
}

// Find はローカルIDで推しを探す。
func (s *Service) Find(id uuid.UUID) (model.Oshi, bool) {
	for _, o := range s.Oshis() {
		if o.ID == id {
			return o, true
		}
	}
	return model.Oshi{}, false
}

// FindByServerID はサーバーIDで推しを探す。
func (s *Service) FindByServerID(serverID int64) (model.Oshi, bool) {
	for _, o := range s.Oshis() {
		if o.ServerID != nil && *o.ServerID == serverID {
			return o, true
		}
	}
	return model.Oshi{}, false
}

// Sync はサーバーの推し一覧を取得して公開中の一覧を置き換える。
// 未ログインの場合は通信せずに空の一覧を公開する。
func (s *Service) Sync(ctx context.Context) error {
	_, err := s.tracker.Run(ctx, syncrun.Job{
		Authenticated: s.session.IsAuthenticated(),
		Fetch: func(ctx context.Context) (func(), syncrun.Outcome, error) {
			list, err := s.remote.List(ctx)
			if err != nil {
				return nil, syncrun.Outcome{}, err
			}
			oshis := make([]model.Oshi, 0, len(list))
			for _, dto := range list {
				oshis = append(oshis, fromAPI(dto))
			}
			return func() {
				s.mu.Lock()
				defer s.mu.Unlock()
				s.value.Set(Snapshot{Oshis: carryOver(s.value.Get().Oshis, oshis), SyncedAt: s.now()})
			}, syncrun.Outcome{Items: len(oshis)}, nil
		},
		PublishEmpty: func(msg string) {
			s.replace(Snapshot{Oshis: []model.Oshi{}, ErrorMessage: msg, SyncedAt: s.now()})
		},
	})
	return err
}

func (s *Service) replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value.Set(snap)
}

// Create は推しをサーバーに作成し、一覧の末尾に追加する。
func (s *Service) Create(ctx context.Context, form Form) (model.Oshi, error) {
	req, err := s.prepare(form)
	if err != nil {
		return model.Oshi{}, err
	}

	created, err := s.remote.Create(ctx, req)
	if err != nil {
		s.logger.Warn("推しの作成に失敗しました", slog.String("name", form.Name), slog.String("error", err.Error()))
		return model.Oshi{}, err
	}

	o := fromAPI(created)
	o.Group = form.Group
	o.Description = form.Description

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.value.Get()
	next := append(append([]model.Oshi{}, snap.Oshis...), o)
	snap.Oshis = next
	s.value.Set(snap)

	s.logger.Info("推しを作成しました", slog.Int64("oshi_id", created.ID))
	return o, nil
}

// Update はサーバーIDを持つ推しを更新し、一覧の該当要素を置き換える。
func (s *Service) Update(ctx context.Context, id uuid.UUID, form Form) (model.Oshi, error) {
	current, ok := s.Find(id)
	if !ok {
		return model.Oshi{}, model.NewOshiNotFoundError(id.String())
	}
	if current.ServerID == nil {
		return model.Oshi{}, model.NewOshiNotSyncedError()
	}

	req, err := s.prepare(form)
	if err != nil {
		return model.Oshi{}, err
	}

	updated, err := s.remote.Update(ctx, *current.ServerID, req)
	if err != nil {
		s.logger.Warn("推しの更新に失敗しました", slog.Int64("oshi_id", *current.ServerID), slog.String("error", err.Error()))
		return model.Oshi{}, err
	}

	o := fromAPI(updated)
	o.ID = current.ID
	o.Group = form.Group
	o.Description = form.Description

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.value.Get()
	next := make([]model.Oshi, len(snap.Oshis))
	copy(next, snap.Oshis)
	for i := range next {
		if next[i].ID == id {
			next[i] = o
		}
	}
	snap.Oshis = next
	s.value.Set(snap)

	s.logger.Info("推しを更新しました", slog.Int64("oshi_id", updated.ID))
	return o, nil
}

// Delete は一覧から推しを取り除く。サーバーには反映しない。
func (s *Service) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.value.Get()
	next := make([]model.Oshi, 0, len(snap.Oshis))
	for _, o := range snap.Oshis {
		if o.ID != id {
			next = append(next, o)
		}
	}
	if len(next) == len(snap.Oshis) {
		return model.NewOshiNotFoundError(id.String())
	}
	snap.Oshis = next
	s.value.Set(snap)
	return nil
}

// prepare はフォームを正規化・検証し、APIリクエストに変換する。
func (s *Service) prepare(form Form) (apiclient.OshiRequest, error) {
	form.URLs = model.CleanStrings(form.URLs)
	form.Categories = model.CleanStrings(form.Categories)

	if err := s.validator.Validate(form); err != nil {
		return apiclient.OshiRequest{}, err
	}

	color := model.DefaultOshiColor
	if form.Color != "" {
		color, _ = model.NormalizeHexColor(form.Color)
	}

	req := apiclient.OshiRequest{Name: form.Name, Color: color}
	if len(form.URLs) > 0 {
		req.URLs = form.URLs
	}
	if len(form.Categories) > 0 {
		req.Categories = form.Categories
	}
	return req, nil
}

// carryOver は同じサーバーIDの推しについて、ローカルIDと端末上だけの項目を引き継ぐ。
func carryOver(prev, next []model.Oshi) []model.Oshi {
	byServerID := make(map[int64]model.Oshi, len(prev))
	for _, o := range prev {
		if o.ServerID != nil {
			byServerID[*o.ServerID] = o
		}
	}
	for i, o := range next {
		old, ok := byServerID[*o.ServerID]
		if !ok {
			continue
		}
		next[i].ID = old.ID
		next[i].Group = old.Group
		next[i].Description = old.Description
	}
	return next
}

func fromAPI(dto apiclient.OshiAPI) model.Oshi {
	o := model.NewOshi(dto.Name, "", dto.Color, "")
	id := dto.ID
	o.ServerID = &id
	if len(dto.URLs) > 0 {
		o.URLs = append([]string{}, dto.URLs...)
	}
	if len(dto.Categories) > 0 {
		o.Categories = model.CleanStrings(dto.Categories)
	}
	return o
}
