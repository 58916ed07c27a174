package config

import "time"

func defaultConfig() AppConfig {
	return AppConfig{
		LogDir: "logs",
		HTTPFetch: HTTPFetchConfig{
			Timeout:       30 * time.Second,
			MaxRetries:    3,
			MinRetryDelay: time.Second,
			MaxRetryDelay: 10 * time.Second,
			MaxBodyBytes:  10 * 1024 * 1024,
		},
		Crawler: CrawlerConfig{
			DetailPageInterval: 150 * time.Millisecond,
		},
		Matching: MatchingConfig{
			Threshold: 80,
		},
		Scheduler: SchedulerConfig{
			Crawl: CrawlSchedulerConfig{
				ExecutePeriod:    30 * time.Minute,
				UpdatePeriod:     6 * time.Hour,
				ProgressInterval: 15 * time.Second,
			},
			CategoryRemap: RemapSchedulerConfig{
				ExecutePeriod: 30 * time.Minute,
				RetryPeriod:   time.Minute,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverMemory,
			Mongo: MongoConfig{
				Database: "price-tracker",
				Timeout:  10 * time.Second,
			},
		},
		Report: ReportConfig{
			TimeSpec: "0 0 9 * * *",
		},
		AdminAPI: AdminAPIConfig{
			ListenPort: 2443,
		},
	}
}
