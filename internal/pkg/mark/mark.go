// Package mark 알림 메시지에 쓰는 이모지를 한곳에서 관리합니다.
package mark

// Mark 알림 메시지 앞에 붙는 이모지입니다.
type Mark string

const (
	// Success 정상 완료
	Success Mark = "✅"

	// Warning 일부 실패
	Warning Mark = "⚠️"

	// Alert 실패
	Alert Mark = "❌"

	// Report 정기 리포트
	Report Mark = "📊"

	// New 새로 생성
	New Mark = "🆕"

	// Modified 갱신
	Modified Mark = "🔁"

	// Removed 판매 종료로 삭제
	Removed Mark = "🚫"
)

// WithSpace 앞에 구분용 공백을 붙여 반환합니다. 빈 마크는 빈 문자열입니다.
func (m Mark) WithSpace() string {
	if m == "" {
		return ""
	}
	return " " + string(m)
}

func (m Mark) String() string {
	return string(m)
}
