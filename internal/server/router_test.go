package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/shouni/creative-hub/internal/server/handlers"
	"github.com/shouni/creative-hub/internal/tools"
	"github.com/shouni/creative-hub/internal/workspace"
	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// --- Mocks ---

type stubClient struct {
	mu        sync.Mutex
	keys      []string
	imageErr  error
	// videoGate が nil でなければ、close されるまで動画ジョブの投入を止めます。
	videoGate chan struct{}
}

func (c *stubClient) GenerateContent(ctx context.Context, model string, parts []*genai.Part, opts gemini.ContentOptions) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{
				InlineData: &genai.Blob{Data: []byte{0, 0, 1, 0}, MIMEType: "audio/L16;codec=pcm;rate=24000"},
			}}},
		}},
	}, nil
}

func (c *stubClient) GenerateImages(ctx context.Context, model, prompt string, opts gemini.ImageOptions) ([]*domain.Media, error) {
	if c.imageErr != nil {
		return nil, c.imageErr
	}
	return []*domain.Media{{Data: []byte("image"), MimeType: "image/jpeg"}}, nil
}

func (c *stubClient) GenerateVideos(ctx context.Context, model string, req gemini.VideoRequest) (*genai.GenerateVideosOperation, error) {
	if c.videoGate != nil {
		<-c.videoGate
	}
	return &genai.GenerateVideosOperation{
		Name: "operations/1",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "https://example.com/v.mp4"}}},
		},
	}, nil
}

func (c *stubClient) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return op, nil
}

func (c *stubClient) Download(ctx context.Context, uri string) (*domain.Media, error) {
	return &domain.Media{Data: []byte("video-bytes"), MimeType: "video/mp4"}, nil
}

type stubLoader struct{}

func (stubLoader) Resolve(ctx context.Context, ref string) (*domain.Media, error) {
	switch ref {
	case "":
		return nil, nil
	case "broken":
		return nil, errors.New("fetch failed")
	default:
		return &domain.Media{Data: []byte(ref), MimeType: "image/png"}, nil
	}
}

// --- Helpers ---

type testServer struct {
	handler http.Handler
	client  *stubClient
	cookies []*http.Cookie
}

func newTestServer(t *testing.T, requireSelection bool) *testServer {
	t.Helper()
	client := &stubClient{}
	deps := tools.Deps{
		Factory: func(ctx context.Context, apiKey string) (gemini.Client, error) {
			client.mu.Lock()
			client.keys = append(client.keys, apiKey)
			client.mu.Unlock()
			return client, nil
		},
		Models: tools.Models{
			Text: "text", Flash: "flash", Image: "image", Edit: "edit",
			TTS: "tts", Video: "video", Voice: "Kore", SampleRate: 24000,
		},
		APIKey:              "static-key",
		RequireKeySelection: requireSelection,
		PollInterval:        time.Millisecond,
		Sleep:               func(ctx context.Context, d time.Duration) error { return nil },
	}
	ws, err := workspace.NewStore(deps, time.Hour)
	require.NoError(t, err)

	h, err := handlers.NewHandler(handlers.Params{
		Sessions:            sessions.NewCookieStore([]byte("test-session-secret")),
		Workspaces:          ws,
		Loader:              stubLoader{},
		Models:              deps.Models,
		RequireKeySelection: requireSelection,
		JobContext:          context.Background(),
	})
	require.NoError(t, err)

	return &testServer{handler: NewRouter(h), client: client}
}

// do はリクエストを送り、受け取ったセッションクッキーを次回以降に引き継ぎます。
func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		s.cookies = cookies
	}
	return rec
}

type toolBody struct {
	ID    string `json:"id"`
	Error string `json:"error"`
	State struct {
		Status   string          `json:"status"`
		Error    string          `json:"error"`
		Result   json.RawMessage `json:"result"`
		KeyReady bool            `json:"key_ready"`
	} `json:"state"`
}

func decodeTool(t *testing.T, rec *httptest.ResponseRecorder) toolBody {
	t.Helper()
	var b toolBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b), rec.Body.String())
	return b
}

// --- Tests ---

func TestRouter_Healthz(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","workspaces":0}`, rec.Body.String())
	assert.Empty(t, s.cookies, "ヘルスチェックではセッションを発行しない")

	s.do(t, http.MethodGet, "/api/tools", "")
	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","workspaces":1}`, rec.Body.String())
}

func TestRouter_Catalog(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodGet, "/api/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, s.cookies, "初回アクセスでセッションクッキーを発行する")

	var body struct {
		Sections []struct {
			Title string `json:"title"`
			Tools []struct {
				ID string `json:"id"`
			} `json:"tools"`
		} `json:"sections"`
		KeyAvailable bool `json:"key_available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Sections, 4)
	assert.True(t, body.KeyAvailable)

	total := 0
	for _, sec := range body.Sections {
		total += len(sec.Tools)
	}
	assert.Equal(t, 17, total)
}

func TestRouter_RunTool(t *testing.T) {
	t.Run("入力不足は 400 でリモート呼び出しなし", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodPost, "/api/tools/text-to-image", `{"prompt":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		b := decodeTool(t, rec)
		assert.Equal(t, "Please enter a prompt.", b.Error)
		assert.Equal(t, "failed", b.State.Status)
		assert.Empty(t, s.client.keys)
	})

	t.Run("空のボディも検証エラーになる", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodPost, "/api/tools/texture", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("成功すると結果がセッションに残るのだ", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodPost, "/api/tools/text-to-image", `{"prompt":"a red fox"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "success", decodeTool(t, rec).State.Status)

		rec = s.do(t, http.MethodGet, "/api/tools/text-to-image", "")
		require.Equal(t, http.StatusOK, rec.Code)
		b := decodeTool(t, rec)
		assert.Equal(t, "success", b.State.Status)
		assert.Contains(t, string(b.State.Result), "data:image/jpeg;base64,")

		// 別セッションからは見えない
		other := newTestServer(t, false)
		other.handler = s.handler
		rec = other.do(t, http.MethodGet, "/api/tools/text-to-image", "")
		assert.Equal(t, "idle", decodeTool(t, rec).State.Status)
	})

	t.Run("リモートの失敗は 502 とエラーメッセージ", func(t *testing.T) {
		s := newTestServer(t, false)
		s.client.imageErr = &domain.Error{Kind: domain.KindTransport, Message: "quota exceeded"}
		rec := s.do(t, http.MethodPost, "/api/tools/text-to-image", `{"prompt":"fox"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Failed to generate image. quota exceeded", decodeTool(t, rec).State.Error)
	})

	t.Run("存在しないツールは 404", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodPost, "/api/tools/nope", `{"prompt":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("不正な JSON と読めない参照は 400", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodPost, "/api/tools/image-editor", `{"prompt":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/tools/image-editor", `{"prompt":"x","image":"broken"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Could not read the image file.")
	})

	t.Run("リセットで初期状態に戻る", func(t *testing.T) {
		s := newTestServer(t, false)
		s.do(t, http.MethodPost, "/api/tools/text-to-image", `{"prompt":"fox"}`)
		rec := s.do(t, http.MethodDelete, "/api/tools/text-to-image", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/tools/text-to-image", "")
		assert.Equal(t, "idle", decodeTool(t, rec).State.Status)
	})
}

func TestRouter_GenerateItem(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/tools/text-to-image/items/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "バッチ以外のツールは項目を持たない")

	rec = s.do(t, http.MethodPost, "/api/tools/storyboard/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/tools/storyboard/items/3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "プロンプト生成前は範囲外")
}

func TestRouter_VideoTool(t *testing.T) {
	t.Run("開始は 202 で完了後に動画を取得できる", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodPost, "/api/tools/image-to-video", `{"prompt":"waves","image":"png-bytes"}`)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		require.Eventually(t, func() bool {
			rec := s.do(t, http.MethodGet, "/api/tools/image-to-video", "")
			return decodeTool(t, rec).State.Status == "success"
		}, 2*time.Second, 10*time.Millisecond)

		rec = s.do(t, http.MethodGet, "/api/tools/image-to-video/media", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
		assert.Equal(t, "video-bytes", rec.Body.String())
	})

	t.Run("ジョブ実行中のリセットは 409 で二重投入もできない", func(t *testing.T) {
		s := newTestServer(t, false)
		s.client.videoGate = make(chan struct{})
		body := `{"prompt":"waves","image":"png-bytes"}`

		rec := s.do(t, http.MethodPost, "/api/tools/image-to-video", body)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodDelete, "/api/tools/image-to-video", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		rec = s.do(t, http.MethodPost, "/api/tools/image-to-video", body)
		assert.Equal(t, http.StatusConflict, rec.Code)

		close(s.client.videoGate)
		require.Eventually(t, func() bool {
			rec := s.do(t, http.MethodGet, "/api/tools/image-to-video", "")
			return decodeTool(t, rec).State.Status == "success"
		}, 2*time.Second, 10*time.Millisecond)

		rec = s.do(t, http.MethodDelete, "/api/tools/image-to-video", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("生成前のメディアは 404", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodGet, "/api/tools/scene-interpolation/media", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/tools/text-to-image/media", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("キー選択が必要な場合は選択後に使用できるのだ", func(t *testing.T) {
		s := newTestServer(t, true)
		body := `{"prompt":"waves","image":"png-bytes"}`

		rec := s.do(t, http.MethodPost, "/api/tools/image-to-video", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please select an API key.", decodeTool(t, rec).Error)

		rec = s.do(t, http.MethodPost, "/api/tools/image-to-video/authorize", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "キーがなければ許可できない")

		rec = s.do(t, http.MethodPost, "/api/credential", `{"key":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/credential", `{"key":"session-key"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"available":true,"require_key_selection":true}`, rec.Body.String())

		rec = s.do(t, http.MethodPost, "/api/tools/image-to-video", body)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		require.Eventually(t, func() bool {
			rec := s.do(t, http.MethodGet, "/api/tools/image-to-video", "")
			return decodeTool(t, rec).State.Status == "success"
		}, 2*time.Second, 10*time.Millisecond)

		s.client.mu.Lock()
		assert.Contains(t, s.client.keys, "session-key")
		s.client.mu.Unlock()

		rec = s.do(t, http.MethodDelete, "/api/credential", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = s.do(t, http.MethodGet, "/api/credential", "")
		assert.JSONEq(t, `{"available":false,"require_key_selection":true}`, rec.Body.String())

		rec = s.do(t, http.MethodGet, "/api/tools/image-to-video", "")
		assert.False(t, decodeTool(t, rec).State.KeyReady, "キーを破棄したら動画ツールも使えなくなるのだ")
		rec = s.do(t, http.MethodPost, "/api/tools/image-to-video", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please select an API key.", decodeTool(t, rec).Error)
	})
}

func TestRouter_SoundscapeMedia(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodPost, "/api/tools/soundscape", `{"prompt":"rain on a tin roof"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/tools/soundscape/media", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "RIFF"))
}
