// Package credential はAPIキー認証のためのクレデンシャルストアを提供する。
//
// クレデンシャルは環境変数API_KEYSのJSON配列から起動時に一度だけ
// パースされ、以降は読み取り専用となる。パース失敗時は空のストアに
// 縮退し、保護対象の全リクエストが拒否される（プロセスは落とさない）。
package credential
