// Package model はドメインモデルを定義する。
package model

// Category は共通情報APIから取得する参照専用のカテゴリ。
type Category struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}
