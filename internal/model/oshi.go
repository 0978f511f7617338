// Package model はドメインモデルを定義する。
package model

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultOshiColor は色が未指定の推しに使うカラーコード。
const DefaultOshiColor = "#FF69B4"

// Oshi はユーザーが追いかけている推しを表す。
// IDはUIのリスト識別用に常に存在し、ServerIDはサーバーと同期済みの場合のみ設定される。
type Oshi struct {
	ID          uuid.UUID `json:"id"`
	ServerID    *int64    `json:"server_id,omitempty"`
	Name        string    `json:"name"`
	Group       string    `json:"group"`
	Color       string    `json:"color"`
	URLs        []string  `json:"urls"`
	Categories  []string  `json:"categories"`
	Description string    `json:"description"`
}

// NewOshi はローカルで作成した未同期の推しを生成する。
func NewOshi(name, group, color, description string) Oshi {
	if color == "" {
		color = DefaultOshiColor
	}
	return Oshi{
		ID:          uuid.New(),
		Name:        name,
		Group:       group,
		Color:       color,
		Description: description,
		URLs:        []string{},
		Categories:  []string{},
	}
}

// IsSynced はサーバーIDを持つ場合にtrueを返す。
func (o Oshi) IsSynced() bool {
	return o.ServerID != nil
}

// NormalizeHexColor はHEXカラーコードを "#RRGGBB" 形式に正規化する。
// 3桁表記は6桁に展開する。不正な値の場合はfalseを返す。
func NormalizeHexColor(hex string) (string, bool) {
	s := strings.TrimSpace(hex)
	s = strings.TrimPrefix(s, "#")

	if len(s) == 3 {
		var b strings.Builder
		for _, c := range s {
			b.WriteRune(c)
			b.WriteRune(c)
		}
		s = b.String()
	}
	if len(s) != 6 {
		return "", false
	}
	for _, c := range s {
		if !isHexDigit(c) {
			return "", false
		}
	}
	return "#" + strings.ToUpper(s), true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// CleanStrings は前後の空白を除去し、空文字列と重複を取り除いたスライスを返す。
// 順序は維持する。
func CleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
