// Package maputil map[string]any 형태의 느슨한 설정 데이터를 구조체로 변환합니다.
package maputil

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode input을 새 T 값으로 디코딩하여 반환합니다.
//
//	opts, err := maputil.Decode[crawler.Selectors](raw, maputil.WithErrorUnused(true))
func Decode[T any](input any, opts ...Option) (*T, error) {
	out := new(T)
	if err := DecodeTo(input, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeTo input을 output에 디코딩합니다.
//
// 기본 동작은 병합(merge)입니다. input에 없는 필드는 output의 기존 값을 유지하므로,
// 기본값이 채워진 구조체 위에 일부 필드만 덮어쓰는 용도로 사용할 수 있습니다.
func DecodeTo[T any](input any, output *T, opts ...Option) error {
	if output == nil {
		return errors.New("디코딩 결과를 저장할 output 포인터가 nil입니다")
	}

	cfg := &decodingConfig{
		tagName:          "json",
		weaklyTypedInput: true,
		squash:           true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.zeroFields {
		var zero T
		*output = zero
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          cfg.tagName,
		WeaklyTypedInput: cfg.weaklyTypedInput,
		ErrorUnused:      cfg.errorUnused,
		Squash:           cfg.squash,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			stringToDurationHookFunc(),
			stringToSliceHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("입력 데이터를 %T(으)로 디코딩하는 데 실패했습니다: %w", output, err)
	}

	return nil
}

type decodingConfig struct {
	tagName          string
	weaklyTypedInput bool
	errorUnused      bool
	squash           bool
	zeroFields       bool
}

// Option 디코딩 동작을 조정합니다.
type Option func(*decodingConfig)

// WithTagName 필드 매핑에 사용할 구조체 태그를 지정합니다. 기본값은 "json"입니다.
func WithTagName(tagName string) Option {
	return func(c *decodingConfig) { c.tagName = tagName }
}

// WithErrorUnused true이면 구조체에 없는 키가 input에 있을 때 에러를 반환합니다.
func WithErrorUnused(enable bool) Option {
	return func(c *decodingConfig) { c.errorUnused = enable }
}

// WithWeaklyTypedInput "12" -> 12 같은 느슨한 타입 변환 허용 여부입니다.
func WithWeaklyTypedInput(enable bool) Option {
	return func(c *decodingConfig) { c.weaklyTypedInput = enable }
}

// WithZeroFields true이면 디코딩 전에 output을 zero value로 초기화합니다.
func WithZeroFields(enable bool) Option {
	return func(c *decodingConfig) { c.zeroFields = enable }
}
