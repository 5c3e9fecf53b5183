package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/promptgate/internal/credential"
	"github.com/nao1215/promptgate/internal/metrics"
)

// contextKeyAppName はGinコンテキストに認証済みアプリ名を格納するためのキー。
const contextKeyAppName = "app_name"

// 認証拒否理由の内部分類。ログとメトリクスにのみ使用し、応答には含めない。
const (
	reasonMissingHeader   = "missing_header"
	reasonMalformedHeader = "malformed_header"
	reasonInvalidKey      = "invalid_key"
)

// APIKeyAuth はAuthorizationヘッダーのBearerトークンをクレデンシャルストアと
// 照合するGinミドルウェアを返す。ヘッダー欠落・形式不正・未登録キーの
// いずれの場合もクライアントには同一の401応答を返し、どの失敗だったかを
// 外部から区別できないようにする。検証に成功した場合はコンテキストに
// アプリ名を設定する。トークンの値そのものは決してログに出力しない。
func APIKeyAuth(store *credential.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		verdict, reason := authorize(store, c.GetHeader("Authorization"))
		if !verdict.Authorized {
			metrics.AuthRequestsTotal.WithLabelValues("denied", reason).Inc()
			log.Printf("認証拒否: reason=%s method=%s path=%s request_id=%s",
				reason, c.Request.Method, c.Request.URL.Path, GetRequestID(c))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication Error",
				"error":   "invalid or missing credential",
			})
			return
		}

		metrics.AuthRequestsTotal.WithLabelValues("allowed", "ok").Inc()
		log.Printf("認証成功: app=%s method=%s path=%s request_id=%s",
			verdict.AppName, c.Request.Method, c.Request.URL.Path, GetRequestID(c))
		c.Set(contextKeyAppName, verdict.AppName)
		c.Next()
	}
}

// authorize はAuthorizationヘッダーを検証し、判定と内部分類を返す。
// スキームは大文字小文字を区別する"Bearer"、区切りは半角スペース1つのみ。
func authorize(store *credential.Store, authHeader string) (credential.Verdict, string) {
	if authHeader == "" {
		return credential.Verdict{}, reasonMissingHeader
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" || strings.HasPrefix(token, " ") {
		return credential.Verdict{}, reasonMalformedHeader
	}

	verdict := store.Lookup(token)
	if !verdict.Authorized {
		return credential.Verdict{}, reasonInvalidKey
	}
	return verdict, ""
}

// GetAppName はGinコンテキストから認証済みアプリ名を取得する。
// APIKeyAuthミドルウェアが事前に適用されている必要がある。
func GetAppName(c *gin.Context) string {
	appName, _ := c.Get(contextKeyAppName)
	if name, ok := appName.(string); ok {
		return name
	}
	return ""
}
