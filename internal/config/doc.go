// Package config はゲートウェイの環境変数ベースの設定を提供する。
//
// 設定は起動時に一度だけ読み込まれ、以降は不変のオブジェクトとして
// 各コンポーネントに注入される。不正な値はデフォルト値にフォールバック
// するため、Loadが失敗することはない。
package config
