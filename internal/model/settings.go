package model

// APIEnvironment は接続先のバックエンド環境を表す。
type APIEnvironment string

const (
	APIEnvironmentLocal      APIEnvironment = "local"
	APIEnvironmentProduction APIEnvironment = "production"
)

// APIEnvironments は選択可能な環境の一覧。
var APIEnvironments = []APIEnvironment{APIEnvironmentLocal, APIEnvironmentProduction}

// BaseURL は環境ごとのAPIベースURLを返す。
func (e APIEnvironment) BaseURL() string {
	switch e {
	case APIEnvironmentProduction:
		return "https://lovender-backend-969255446449.us-central1.run.app/api"
	default:
		return "http://localhost:8080/api"
	}
}

// DisplayName は設定画面向けの表示名を返す。
func (e APIEnvironment) DisplayName() string {
	switch e {
	case APIEnvironmentProduction:
		return "本番環境"
	default:
		return "ローカル環境"
	}
}

// IsValid は定義済みの環境かを判定する。
func (e APIEnvironment) IsValid() bool {
	return e == APIEnvironmentLocal || e == APIEnvironmentProduction
}

// Theme はアプリのカラーテーマ。
type Theme string

const (
	ThemePink    Theme = "pink"
	ThemeSkyBlue Theme = "skyBlue"
	ThemeGreen   Theme = "green"
	ThemeYellow  Theme = "yellow"
)

// Themes は選択可能なテーマの一覧。
var Themes = []Theme{ThemePink, ThemeSkyBlue, ThemeGreen, ThemeYellow}

// DisplayName はテーマの表示名を返す。
func (t Theme) DisplayName() string {
	switch t {
	case ThemeSkyBlue:
		return "スカイブルー"
	case ThemeGreen:
		return "グリーン"
	case ThemeYellow:
		return "イエロー"
	default:
		return "ピンク"
	}
}

// IsValid は定義済みのテーマかを判定する。
func (t Theme) IsValid() bool {
	for _, v := range Themes {
		if v == t {
			return true
		}
	}
	return false
}

// WeekStart は週の開始曜日。値は日曜=1、月曜=2。
type WeekStart int

const (
	WeekStartSunday WeekStart = 1
	WeekStartMonday WeekStart = 2
)

// IsValid は定義済みの値かを判定する。
func (w WeekStart) IsValid() bool {
	return w == WeekStartSunday || w == WeekStartMonday
}

// TimeFormat は時刻の表示形式。
type TimeFormat string

const (
	TimeFormat12h TimeFormat = "12h"
	TimeFormat24h TimeFormat = "24h"
)

// IsValid は定義済みの値かを判定する。
func (f TimeFormat) IsValid() bool {
	return f == TimeFormat12h || f == TimeFormat24h
}

// AuthorizationStatus は端末の通知許可状態。
type AuthorizationStatus string

const (
	AuthorizationNotDetermined AuthorizationStatus = "notDetermined"
	AuthorizationAuthorized    AuthorizationStatus = "authorized"
	AuthorizationDenied        AuthorizationStatus = "denied"
)

// IsValid は定義済みの値かを判定する。
func (s AuthorizationStatus) IsValid() bool {
	switch s {
	case AuthorizationNotDetermined, AuthorizationAuthorized, AuthorizationDenied:
		return true
	}
	return false
}

// Settings は端末に保存されるユーザー設定。
type Settings struct {
	Environment            APIEnvironment `json:"api_environment"`
	Theme                  Theme          `json:"theme"`
	NotificationsEnabled   bool           `json:"notifications_enabled"`
	ReminderMinutes        int            `json:"reminder_minutes"`
	WeekStart              WeekStart      `json:"week_start"`
	TimeFormat             TimeFormat     `json:"time_format"`
	HasCompletedOnboarding bool           `json:"has_completed_onboarding"`
}

// DefaultSettings は未保存時の初期設定を返す。
func DefaultSettings() Settings {
	return Settings{
		Environment:          APIEnvironmentLocal,
		Theme:                ThemePink,
		NotificationsEnabled: true,
		ReminderMinutes:      15,
		WeekStart:            WeekStartSunday,
		TimeFormat:           TimeFormat24h,
	}
}
