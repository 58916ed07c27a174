package log

// NewProductionOptions 운영 환경용 설정을 반환합니다.
func NewProductionOptions(appName, dir string) Options {
	return Options{
		Name:  appName,
		Dir:   dir,
		Level: InfoLevel,

		MaxAge:     30,
		MaxSizeMB:  100,
		MaxBackups: 20,

		EnableCriticalLog: true,
		EnableVerboseLog:  true,
		EnableConsoleLog:  false,

		ReportCaller: true,
	}
}

// NewDevelopmentOptions 개발 환경용 설정을 반환합니다. 모든 레벨을 콘솔과 메인 파일에 함께 기록합니다.
func NewDevelopmentOptions(appName, dir string) Options {
	return Options{
		Name:  appName,
		Dir:   dir,
		Level: TraceLevel,

		MaxAge:     1,
		MaxSizeMB:  50,
		MaxBackups: 5,

		EnableCriticalLog: false,
		EnableVerboseLog:  false,
		EnableConsoleLog:  true,

		ReportCaller: true,
	}
}
