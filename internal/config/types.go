package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/price-tracker/internal/pkg/errors"
	"github.com/darkkaiser/price-tracker/pkg/cronx"
	"github.com/go-playground/validator/v10"
)

// 저장소 드라이버
const (
	StoreDriverMemory = "memory"
	StoreDriverFile   = "file"
	StoreDriverMongo  = "mongo"
)

// SupportedCrawlerKeys 내장 크롤러 프로파일의 키 목록입니다.
var SupportedCrawlerKeys = []string{"atb", "rukavychka"}

// AppConfig 애플리케이션의 모든 설정을 담는 최상위 구조체
type AppConfig struct {
	Debug        bool               `json:"debug"`
	LogDir       string             `json:"log_dir"`
	HTTPFetch    HTTPFetchConfig    `json:"http_fetch"`
	Crawler      CrawlerConfig      `json:"crawler"`
	Markets      []MarketConfig     `json:"markets" validate:"unique=Key"`
	Matching     MatchingConfig     `json:"matching"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
	Store        StoreConfig        `json:"store"`
	Notification NotificationConfig `json:"notification"`
	Report       ReportConfig       `json:"report"`
	AdminAPI     AdminAPIConfig     `json:"admin_api"`
}

func (c *AppConfig) validate(v *validator.Validate) error {
	if err := c.HTTPFetch.validate(v); err != nil {
		return err
	}
	if err := checkStruct(v, c.Crawler, "크롤러"); err != nil {
		return err
	}
	if err := c.validateMarkets(v); err != nil {
		return err
	}
	if err := checkStruct(v, c.Matching, "매칭"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Scheduler, "스케줄러"); err != nil {
		return err
	}
	if err := c.Store.validate(v); err != nil {
		return err
	}
	if err := c.Notification.validate(v); err != nil {
		return err
	}
	if err := c.Report.validate(); err != nil {
		return err
	}
	return c.AdminAPI.validate(v)
}

func (c *AppConfig) validateMarkets(v *validator.Validate) error {
	if err := checkUniqueField(v, c.Markets, "Key", "Market"); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(c.Markets))
	for _, m := range c.Markets {
		if err := checkStruct(v, m, fmt.Sprintf("Market['%s']", m.Key)); err != nil {
			return err
		}

		// 마켓 엔티티는 이름으로 식별되므로 이름도 대소문자 구분 없이 유일해야 합니다.
		lower := strings.ToLower(m.Name)
		if _, dup := names[lower]; dup {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 Market 이름이 존재합니다: '%s'", m.Name))
		}
		names[lower] = struct{}{}
	}
	return nil
}

// EnabledMarkets 활성화된 마켓 설정만 반환합니다.
func (c *AppConfig) EnabledMarkets() []MarketConfig {
	var enabled []MarketConfig
	for _, m := range c.Markets {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}

// VerifyRecommendations 권장 설정을 따르지 않는 항목에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string
	if c.AdminAPI.Enabled && strings.TrimSpace(c.AdminAPI.AdminKey) == "" {
		warnings = append(warnings, "관리 API가 인증 키(admin_key) 없이 활성화되어 있습니다")
	}
	if c.AdminAPI.Enabled && c.AdminAPI.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.AdminAPI.ListenPort))
	}
	if c.Store.Driver == StoreDriverMemory {
		warnings = append(warnings, "메모리 저장소를 사용 중입니다. 프로세스가 종료되면 수집한 데이터가 사라집니다")
	}
	if len(c.EnabledMarkets()) == 0 {
		warnings = append(warnings, "활성화된 마켓이 없습니다. 크롤러가 아무 작업도 하지 않습니다")
	}
	return warnings
}

// HTTPFetchConfig 마켓 페이지를 가져오는 HTTP 클라이언트 설정
type HTTPFetchConfig struct {
	Timeout       time.Duration `json:"timeout" validate:"gt=0"`
	MaxRetries    int           `json:"max_retries" validate:"min=0,max=10"`
	MinRetryDelay time.Duration `json:"min_retry_delay" validate:"gt=0"`
	MaxRetryDelay time.Duration `json:"max_retry_delay" validate:"gtefield=MinRetryDelay"`
	UserAgents    []string      `json:"user_agents"`
	MaxBodyBytes  int64         `json:"max_body_bytes" validate:"gt=0"`
}

func (c *HTTPFetchConfig) validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			switch validationErrors[0].StructField() {
			case "MaxRetries":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 최대 재시도 횟수(max_retries)는 0에서 10 사이여야 합니다: '%v'", validationErrors[0].Value()))
			case "MaxRetryDelay":
				return apperrors.New(apperrors.InvalidInput, "HTTP 최대 재시도 대기 시간(max_retry_delay)은 최소 대기 시간(min_retry_delay)보다 작을 수 없습니다")
			}
		}
		return checkStruct(v, c, "HTTP 요청")
	}
	return nil
}

// CrawlerConfig 크롤러 공통 설정
type CrawlerConfig struct {
	// DetailPageInterval 상세 페이지 요청 사이의 최소 간격입니다. 요청 시작 시각 기준입니다.
	DetailPageInterval time.Duration `json:"detail_page_interval" validate:"gt=0"`
}

// MarketConfig 마켓 하나의 크롤링 설정
type MarketConfig struct {
	Key        string `json:"key" validate:"required"`
	Name       string `json:"name" validate:"required"`
	BaseURL    string `json:"base_url" validate:"required,url"`
	CrawlerKey string `json:"crawler_key" validate:"required,crawler_key"`
	Enabled    bool   `json:"enabled"`

	// Selectors 내장 프로파일의 CSS 선택자를 덮어씁니다. (키: 선택자 필드의 json 이름)
	Selectors map[string]string `json:"selectors"`
}

// MatchingConfig 상품 매칭 설정
type MatchingConfig struct {
	// Threshold 이 값을 초과하는 유사도만 같은 상품으로 인정합니다.
	Threshold int `json:"threshold" validate:"min=0,max=100"`
}

// SchedulerConfig 주기 작업 설정
type SchedulerConfig struct {
	Crawl         CrawlSchedulerConfig `json:"crawl"`
	CategoryRemap RemapSchedulerConfig `json:"category_remap"`
}

// CrawlSchedulerConfig 크롤링 스케줄러 설정
type CrawlSchedulerConfig struct {
	ExecutePeriod    time.Duration `json:"execute_period" validate:"gt=0"`
	UpdatePeriod     time.Duration `json:"update_period" validate:"gt=0"`
	ProgressInterval time.Duration `json:"progress_interval" validate:"gt=0"`
}

// RemapSchedulerConfig 카테고리 재매핑 스케줄러 설정
type RemapSchedulerConfig struct {
	ExecutePeriod time.Duration `json:"execute_period" validate:"gt=0"`
	RetryPeriod   time.Duration `json:"retry_period" validate:"gt=0"`
}

// StoreConfig 저장소 설정
type StoreConfig struct {
	Driver string      `json:"driver" validate:"oneof=memory file mongo"`
	Dir    string      `json:"dir" validate:"required_if=Driver file"`
	Mongo  MongoConfig `json:"mongo"`
}

func (c *StoreConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "저장소"); err != nil {
		return err
	}
	if c.Driver == StoreDriverMongo {
		if strings.TrimSpace(c.Mongo.URI) == "" {
			return apperrors.New(apperrors.InvalidInput, "MongoDB 저장소를 사용하려면 접속 URI(store.mongo.uri)가 필요합니다")
		}
		if strings.TrimSpace(c.Mongo.Database) == "" {
			return apperrors.New(apperrors.InvalidInput, "MongoDB 저장소를 사용하려면 데이터베이스 이름(store.mongo.database)이 필요합니다")
		}
	}
	return nil
}

// MongoConfig MongoDB 접속 설정
type MongoConfig struct {
	URI      string        `json:"uri"`
	Database string        `json:"database"`
	Timeout  time.Duration `json:"timeout" validate:"gt=0"`
}

// NotificationConfig 운영자 알림 설정
type NotificationConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

func (c *NotificationConfig) validate(v *validator.Validate) error {
	if !c.Telegram.Enabled {
		return nil
	}
	return checkStruct(v, c.Telegram, "텔레그램 알림")
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID
type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// ReportConfig 정기 리포트 설정
type ReportConfig struct {
	Enabled  bool   `json:"enabled"`
	TimeSpec string `json:"time_spec"`
}

func (c *ReportConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if err := cronx.Validate(c.TimeSpec); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("리포트 스케줄(time_spec) 설정이 유효하지 않습니다: '%s'", c.TimeSpec))
	}
	return nil
}

// AdminAPIConfig 크롤링 강제 실행 등 운영 명령을 받는 HTTP 서버 설정
type AdminAPIConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenPort int    `json:"listen_port" validate:"min=1,max=65535"`
	AdminKey   string `json:"admin_key"`
}

func (c *AdminAPIConfig) validate(v *validator.Validate) error {
	if !c.Enabled {
		return nil
	}
	if err := v.Struct(c); err != nil {
		return apperrors.New(apperrors.InvalidInput, "관리 API 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
	}
	return nil
}

func isSupportedCrawlerKey(key string) bool {
	return slices.Contains(SupportedCrawlerKeys, key)
}
