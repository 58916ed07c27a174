package fetcher

import "io"

// 재사용을 위해 읽어 버리는 최대 본문 크기. 이보다 큰 응답의 커넥션은 재사용하지 않습니다.
const maxDrainBytes = 64 * 1024

func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	defer body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
}
