package credential

import (
	"encoding/json"
	"log"
)

// Credential は1つの呼び出し元アプリケーションのAPIキー。
type Credential struct {
	// AppName は呼び出し元を識別するラベル。
	AppName string `json:"appname"`
	// Key はBearerトークンとして提示される秘密文字列。
	Key string `json:"key"`
}

// Verdict は認証判定の結果。リクエストごとに導出され、保存されない。
type Verdict struct {
	// Authorized は認証に成功したかどうか。
	Authorized bool
	// AppName は一致したクレデンシャルのアプリケーション名。未認証時は空。
	AppName string
}

// Store はパース済みクレデンシャルの順序付き集合。
// Load以降は変更されないため、複数ゴルーチンから同期なしで参照できる。
type Store struct {
	// credentials はパース順のクレデンシャル列。
	credentials []Credential
}

// Load はAPI_KEYS形式のJSON文字列からStoreを生成する。
// 入力が空・不正なJSON・配列以外の形の場合はログを出力して空のStoreを
// 返す。appnameまたはkeyが空の要素はスキップする。同一キーが複数の
// クレデンシャルに現れた場合は警告を出力する（照合は先勝ち）。
func Load(raw string) *Store {
	s := &Store{}
	if raw == "" {
		log.Printf("API_KEYSが未設定のためクレデンシャルなしで起動します（全リクエストが拒否されます）")
		return s
	}

	var creds []Credential
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		log.Printf("API_KEYSのパースに失敗したためクレデンシャルなしで起動します: %v", err)
		return s
	}

	seen := make(map[string]string, len(creds))
	for _, c := range creds {
		if c.AppName == "" || c.Key == "" {
			log.Printf("appnameまたはkeyが空のクレデンシャルをスキップします")
			continue
		}
		if first, ok := seen[c.Key]; ok {
			log.Printf("アプリ%qのキーがアプリ%qと重複しています（先に定義された%qが優先されます）", c.AppName, first, first)
		} else {
			seen[c.Key] = c.AppName
		}
		s.credentials = append(s.credentials, c)
	}

	log.Printf("%d件のクレデンシャルを読み込みました", len(s.credentials))
	return s
}

// Len は登録されているクレデンシャル数を返す。
func (s *Store) Len() int {
	return len(s.credentials)
}

// Lookup は提示されたキーに一致するクレデンシャルを線形探索する。
// パース順で最初に一致したものが勝つ。キーが空、またはストアが空の
// 場合は常に未認証となる。
func (s *Store) Lookup(presentedKey string) Verdict {
	if presentedKey == "" {
		return Verdict{}
	}
	for _, c := range s.credentials {
		if c.Key == presentedKey {
			return Verdict{Authorized: true, AppName: c.AppName}
		}
	}
	return Verdict{}
}
