package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// 예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11
var telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

// newValidator JSON 태그 이름으로 오류를 보고하는 Validator를 생성하고 커스텀 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("crawler_key", func(fl validator.FieldLevel) bool {
		return isSupportedCrawlerKey(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'crawler_key' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("telegram_bot_token", func(fl validator.FieldLevel) bool {
		return telegramBotTokenRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'telegram_bot_token' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

// checkStruct 구조체를 태그 규칙에 따라 검증하고, 첫 번째 오류를 읽기 쉬운 메시지로 변환합니다.
func checkStruct(v *validator.Validate, s any, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		firstErr := validationErrors[0]
		switch firstErr.Tag() {
		case "crawler_key":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 crawler_key('%v')는 지원하지 않는 크롤러입니다 (지원: %s)", contextName, firstErr.Value(), strings.Join(SupportedCrawlerKeys, ", ")))
		case "telegram_bot_token":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 봇 토큰 형식이 올바르지 않습니다", contextName))
		}
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
	}
	return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
}

// checkUniqueField 슬라이스 내 특정 필드 값이 유일한지 검사합니다.
func checkUniqueField(v *validator.Validate, data any, fieldName, contextName string) error {
	if err := v.Var(data, "unique="+fieldName); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok && validationErrors[0].Tag() == "unique" {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 %s %s가 존재합니다", contextName, fieldName))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유일성 검증에 실패했습니다", contextName))
	}
	return nil
}
