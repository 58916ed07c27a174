// Package middleware 관리 API 서버가 사용하는 Echo 미들웨어를 제공합니다.
package middleware

const component = "api.middleware"
