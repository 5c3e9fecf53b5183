package gateway

import (
	"encoding/json"
	"net/http"
	"testing"
)

// TestHandleQueryValidation は/queryの入力検証を検証する。
func TestHandleQueryValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "queryフィールドがない",
			body:    `{}`,
			wantErr: "query is required",
		},
		{
			name:    "queryが空文字列",
			body:    `{"query":""}`,
			wantErr: "query is required",
		},
		{
			name:    "ボディがJSONオブジェクトでない",
			body:    `not json`,
			wantErr: "request body must be a JSON object",
		},
		{
			name:    "許可されていないモデル",
			body:    `{"query":"hi","model":"gpt-4"}`,
			wantErr: "invalid model. allowed models: llama3:8b",
		},
		{
			name:    "temperatureが範囲外",
			body:    `{"query":"hi","temperature":2.5}`,
			wantErr: "temperature must be between 0.0 and 2.0",
		},
		{
			name:    "temperatureが負",
			body:    `{"query":"hi","temperature":-0.1}`,
			wantErr: "temperature must be between 0.0 and 2.0",
		},
		{
			name:    "top_pが範囲外",
			body:    `{"query":"hi","top_p":1.5}`,
			wantErr: "top_p must be between 0.0 and 1.0",
		},
		{
			name:    "top_kが負",
			body:    `{"query":"hi","top_k":-1}`,
			wantErr: "top_k must be non-negative",
		},
		{
			name:    "num_predictが負",
			body:    `{"query":"hi","num_predict":-1}`,
			wantErr: "num_predict must be non-negative",
		},
		{
			name:    "パストラバーサルを含むクエリ",
			body:    `{"query":"../etc/passwd"}`,
			wantErr: "invalid query",
		},
		{
			// モデルの検証が本文の検証より先に行われる
			name:    "不許可モデルと危険文字の両方に該当する場合はモデルエラー",
			body:    `{"query":"../etc/passwd; rm","model":"gpt-4"}`,
			wantErr: "invalid model. allowed models: llama3:8b",
		},
		{
			name:    "スラッシュで始まるクエリ",
			body:    `{"query":"/etc/passwd"}`,
			wantErr: "invalid query",
		},
		{
			name:    "シェルメタ文字を含むクエリ",
			body:    `{"query":"hi; rm -rf"}`,
			wantErr: "invalid characters in query",
		},
	}

	s := newTestServerWithUpstream(t, mockOllamaHandler(t, "hello"))

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := doJSONRequest(s, http.MethodPost, "/query", "Bearer abc", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusBadRequest, w.Body.String())
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("レスポンスボディのパースに失敗: %v", err)
			}
			if body["message"] != "Validation Error" {
				t.Errorf("message = %q, want %q", body["message"], "Validation Error")
			}
			if body["error"] != tc.wantErr {
				t.Errorf("error = %q, want %q", body["error"], tc.wantErr)
			}
		})
	}

	t.Run("境界値のパラメータは受理されること", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{
			`{"query":"hi","temperature":0.0}`,
			`{"query":"hi","temperature":2.0}`,
			`{"query":"hi","top_p":0.0}`,
			`{"query":"hi","top_p":1.0}`,
			`{"query":"hi","top_k":0}`,
			`{"query":"hi","num_predict":0}`,
		} {
			w := doJSONRequest(s, http.MethodPost, "/query", "Bearer abc", body)
			if w.Code != http.StatusOK {
				t.Errorf("body=%s: ステータスコード = %d, want %d", body, w.Code, http.StatusOK)
			}
		}
	})

	t.Run("modelが空文字列ならデフォルトモデルが使われること", func(t *testing.T) {
		t.Parallel()

		w := doJSONRequest(s, http.MethodPost, "/query", "Bearer abc", `{"query":"hi","model":""}`)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}

		var body struct {
			Parameters struct {
				Model string `json:"model"`
			} `json:"parameters"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body.Parameters.Model != "llama3:8b" {
			t.Errorf("parameters.model = %q, want %q", body.Parameters.Model, "llama3:8b")
		}
	})
}

// TestCleanQuery はクエリ本文の整形を検証する。
func TestCleanQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "そのまま", input: "hello world", want: "hello world"},
		{name: "ANSIエスケープの除去", input: "\x1b[31mhello\x1b[0m", want: "hello"},
		{name: "INFO行の除去", input: "hello\nINFO something\nworld", want: "hello world"},
		{name: "前後の空白の除去", input: "  hello  ", want: "hello"},
		{name: "改行をスペースに変換", input: "hello\nworld", want: "hello world"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := cleanQuery(tc.input); got != tc.want {
				t.Errorf("cleanQuery(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
