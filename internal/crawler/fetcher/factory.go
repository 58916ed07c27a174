package fetcher

import "time"

// Config Fetcher 체인 설정
type Config struct {
	Timeout       time.Duration
	MaxRetries    int
	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration
	UserAgents    []string
	MaxBodyBytes  int64
}

// New 설정에 따라 Fetcher 체인을 조립합니다.
func New(cfg Config) Fetcher {
	return Wrap(NewHTTPFetcher(cfg.Timeout), cfg)
}

// Wrap base 위에 나머지 데코레이터를 씌웁니다.
func Wrap(base Fetcher, cfg Config) Fetcher {
	var f Fetcher = base
	f = NewMaxBytesFetcher(f, cfg.MaxBodyBytes)
	f = NewStatusCodeFetcher(f)
	f = NewRetryFetcher(f, cfg.MaxRetries, cfg.MinRetryDelay, cfg.MaxRetryDelay)
	f = NewUserAgentFetcher(f, cfg.UserAgents)
	return f
}
