package ollama

import (
	"context"
	"log"
	"time"
)

// WaitForReady はOllamaが到達可能になるまで固定間隔でプローブを繰り返す。
// 最初に到達できた時点、またはmaxAttempts回試行した時点で、最後に観測した
// Healthを返す。最終試行の後には待機しない。試行回数の上限に達しても
// エラーにはしない（呼び出し元が警告ログを出してサービスを継続する）。
// コンテキストがキャンセルされた場合は待機を打ち切り、その時点の結果を返す。
func (c *Client) WaitForReady(ctx context.Context, maxAttempts int, delay time.Duration) Health {
	var h Health
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		h = c.Check(ctx)
		if h.Reachable {
			return h
		}

		log.Printf("ollamaに到達できません（%d/%d回目）: %s", attempt, maxAttempts, h.Detail)
		if attempt < maxAttempts {
			if ctx.Err() != nil {
				return h
			}
			log.Printf("%s後に再試行します...", delay)
			c.sleep(ctx, delay)
		}
	}
	return h
}
