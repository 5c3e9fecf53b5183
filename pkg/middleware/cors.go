package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS は任意のオリジンからのクロスオリジンリクエストを許可するGinミドルウェアを返す。
// このゲートウェイはブラウザ上のクライアントアプリから直接呼び出されるため、
// オリジンを限定しない。認証はあくまでBearerトークンで行う。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
