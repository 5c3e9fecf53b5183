package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// contextKeyRequestID はGinコンテキストにリクエストIDを格納するためのキー。
const contextKeyRequestID = "request_id"

// headerKeyRequestID はリクエストIDを応答に付与するHTTPヘッダーキー。
const headerKeyRequestID = "X-Request-ID"

// RequestID はリクエストごとに一意のIDを払い出すGinミドルウェアを返す。
// IDはコンテキストに格納され、X-Request-IDヘッダーとして応答にも付与される。
// 後続のログ出力とリクエストの突き合わせに使用する。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set(contextKeyRequestID, id)
		c.Header(headerKeyRequestID, id)
		c.Next()
	}
}

// GetRequestID はGinコンテキストからリクエストIDを取得する。
// RequestIDミドルウェアが適用されていない場合は空文字列を返す。
func GetRequestID(c *gin.Context) string {
	id, _ := c.Get(contextKeyRequestID)
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}
