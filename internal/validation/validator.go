// Package validation はフォーム入力の検証を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/lovendar/internal/model"
)

// Validator はgo-playground/validatorを包み、検証エラーをAPIErrorに変換する。
type Validator struct {
	v *validator.Validate
}

// New はドメイン固有のタグを登録したValidatorを生成する。
//
// 追加タグ:
//   - oshicolor: #RGB または #RRGGBB 形式の色
//   - event_type: 定義済みのイベント種類
//   - notification_timing: 定義済みの通知タイミング
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーメッセージには label タグ、なければ json タグの名前を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "oshicolor", func(fl validator.FieldLevel) bool {
		_, ok := model.NormalizeHexColor(fl.Field().String())
		return ok
	})
	mustRegister(v, "event_type", func(fl validator.FieldLevel) bool {
		return model.EventType(fl.Field().String()).IsValid()
	})
	mustRegister(v, "notification_timing", func(fl validator.FieldLevel) bool {
		return model.NotificationTiming(fl.Field().String()).IsValid()
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation %q: %v", tag, err))
	}
}

// Validate は構造体を検証し、違反があればVALIDATION_FAILEDのAPIErrorを返す。
// メッセージはフィールド定義順に改行で連結する。
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, friendlyMessage(e))
	}
	return model.NewValidationError(strings.Join(messages, "\n"))
}

func friendlyMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return field + "は必須です"
	case "email":
		return field + "の形式が正しくありません"
	case "url", "http_url":
		return field + "は有効なURLで入力してください"
	case "min":
		return fmt.Sprintf("%sは%s文字以上必要です", field, e.Param())
	case "max":
		return fmt.Sprintf("%sは%s文字以内で入力してください", field, e.Param())
	case "oshicolor":
		return field + "は#RRGGBB形式で入力してください"
	case "event_type", "notification_timing", "oneof":
		return field + "の値が選択肢にありません"
	case "gtfield":
		return field + "は開始日時より後にしてください"
	default:
		return field + "が不正です"
	}
}
