// Package model はドメインモデルを定義する。
package model

// User はログイン中のユーザーを表す。
// サーバーから取得した値はイミュータブルとして扱い、再取得時は丸ごと置き換える。
type User struct {
	ID    *int64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session は認証トークンと現在のユーザーの組を表す。
type Session struct {
	Token string
	User  *User
}

// IsAuthenticated はトークンが存在する場合にtrueを返す。
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}
