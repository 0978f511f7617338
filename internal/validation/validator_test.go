package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/lovendar/internal/model"
)

type registerInput struct {
	Name     string `json:"name" label:"名前" validate:"required"`
	Email    string `json:"email" label:"メールアドレス" validate:"required,email"`
	Password string `json:"password" label:"パスワード" validate:"required,min=8"`
}

type oshiInput struct {
	Name   string   `json:"name" validate:"required"`
	Color  string   `json:"color" validate:"oshicolor"`
	URLs   []string `json:"urls" validate:"dive,url"`
	Timing string   `json:"timing" validate:"omitempty,notification_timing"`
	Type   string   `json:"type" validate:"omitempty,event_type"`
}

func TestValidate_Success(t *testing.T) {
	v := New()

	err := v.Validate(registerInput{Name: "ハナコ", Email: "h@example.com", Password: "password1"})
	if err != nil {
		t.Errorf("Validate がエラーを返した: %v", err)
	}
}

func TestValidate_Messages(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "短いパスワード",
			input: registerInput{Name: "a", Email: "a@b.com", Password: "short"},
			want:  "パスワードは8文字以上必要です",
		},
		{
			name:  "マルチバイトは文字数で数える",
			input: registerInput{Name: "a", Email: "a@b.com", Password: "あいうえおかき"},
			want:  "パスワードは8文字以上必要です",
		},
		{
			name:  "必須",
			input: registerInput{Email: "a@b.com", Password: "password1"},
			want:  "名前は必須です",
		},
		{
			name:  "メール形式",
			input: registerInput{Name: "a", Email: "not-an-email", Password: "password1"},
			want:  "メールアドレスの形式が正しくありません",
		},
		{
			name:  "色",
			input: oshiInput{Name: "ミク", Color: "39C5BB"},
			want:  "colorは#RRGGBB形式で入力してください",
		},
		{
			name:  "URL",
			input: oshiInput{Name: "ミク", Color: "#39C5BB", URLs: []string{"not a url"}},
			want:  "は有効なURLで入力してください",
		},
		{
			name:  "通知タイミング",
			input: oshiInput{Name: "ミク", Color: "#FFF", Timing: "7"},
			want:  "timingの値が選択肢にありません",
		},
		{
			name:  "イベント種類",
			input: oshiInput{Name: "ミク", Color: "#FFF", Type: "party"},
			want:  "typeの値が選択肢にありません",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if err == nil {
				t.Fatal("Validate がnilを返した")
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %T, want *model.APIError", err)
			}
			if apiErr.Code != model.ErrCodeValidation {
				t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeValidation)
			}
			if !strings.Contains(apiErr.Message, tt.want) {
				t.Errorf("Message = %q, want to contain %q", apiErr.Message, tt.want)
			}
		})
	}
}

func TestValidate_MultipleErrorsInFieldOrder(t *testing.T) {
	v := New()

	err := v.Validate(registerInput{Password: "x"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}

	lines := strings.Split(apiErr.Message, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %v, want 3", lines)
	}
	if lines[0] != "名前は必須です" || lines[2] != "パスワードは8文字以上必要です" {
		t.Errorf("lines = %v", lines)
	}
}

func TestValidate_NonStruct(t *testing.T) {
	v := New()

	err := v.Validate("not a struct")
	if err == nil {
		t.Fatal("Validate がnilを返した")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("構造体以外は検証エラーにしない: %v", apiErr)
	}
}
