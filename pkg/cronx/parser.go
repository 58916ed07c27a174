// Package cronx robfig/cron 표현식 처리를 위한 공용 헬퍼입니다.
package cronx

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// StandardParser 초 단위를 포함하는 6필드 표현식과 Descriptor(@daily, @every 1h 등)를 해석하는 파서를 반환합니다.
//
//   - "0 0 9 * * *" : 매일 09:00:00
//   - "@every 6h"   : 6시간마다
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate spec이 StandardParser로 해석 가능한 표현식인지 검사합니다.
func Validate(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return fmt.Errorf("cron 표현식이 비어 있습니다")
	}
	if _, err := StandardParser().Parse(spec); err != nil {
		return fmt.Errorf("잘못된 cron 표현식입니다(%q): %w", spec, err)
	}
	return nil
}
