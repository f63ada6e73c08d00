package tools

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"github.com/shouni/creative-hub/pkg/media"
	"google.golang.org/genai"
)

// --- Mocks ---

// mockClient は gemini.Client のスタブです。未設定のメソッドは呼ばれたら失敗を返します。
type mockClient struct {
	mu    sync.Mutex
	calls []string

	contentFn  func(model string, parts []*genai.Part, opts gemini.ContentOptions) (*genai.GenerateContentResponse, error)
	imagesFn   func(model, prompt string, opts gemini.ImageOptions) ([]*domain.Media, error)
	videosFn   func(model string, req gemini.VideoRequest) (*genai.GenerateVideosOperation, error)
	getOpFn    func(op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	downloadFn func(uri string) (*domain.Media, error)
}

func (m *mockClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockClient) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockClient) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockClient) GenerateContent(ctx context.Context, model string, parts []*genai.Part, opts gemini.ContentOptions) (*genai.GenerateContentResponse, error) {
	m.record("GenerateContent")
	if m.contentFn == nil {
		return nil, &domain.Error{Kind: domain.KindTransport, Message: "unexpected GenerateContent"}
	}
	return m.contentFn(model, parts, opts)
}

func (m *mockClient) GenerateImages(ctx context.Context, model, prompt string, opts gemini.ImageOptions) ([]*domain.Media, error) {
	m.record("GenerateImages")
	if m.imagesFn == nil {
		return nil, &domain.Error{Kind: domain.KindTransport, Message: "unexpected GenerateImages"}
	}
	return m.imagesFn(model, prompt, opts)
}

func (m *mockClient) GenerateVideos(ctx context.Context, model string, req gemini.VideoRequest) (*genai.GenerateVideosOperation, error) {
	m.record("GenerateVideos")
	if m.videosFn == nil {
		return nil, &domain.Error{Kind: domain.KindTransport, Message: "unexpected GenerateVideos"}
	}
	return m.videosFn(model, req)
}

func (m *mockClient) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	m.record("GetVideosOperation")
	if m.getOpFn == nil {
		return &genai.GenerateVideosOperation{Name: op.Name, Done: true}, nil
	}
	return m.getOpFn(op)
}

func (m *mockClient) Download(ctx context.Context, uri string) (*domain.Media, error) {
	m.record("Download")
	if m.downloadFn == nil {
		return &domain.Media{Data: []byte("video"), MimeType: "video/mp4"}, nil
	}
	return m.downloadFn(uri)
}

// mockPlayer は Stop / Play の呼び出し順を記録します。
type mockPlayer struct {
	mu      sync.Mutex
	events  []string
	last    *media.AudioBuffer
	playing bool
}

func (p *mockPlayer) Play(buf *media.AudioBuffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "play")
	p.last = buf
	p.playing = true
	return nil
}

func (p *mockPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "stop")
	p.playing = false
}

func (p *mockPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

type mockFrames struct {
	frame *domain.Media
	err   error
	calls int
}

func (f *mockFrames) FirstFrame(ctx context.Context, video *domain.Media) (*domain.Media, error) {
	f.calls++
	return f.frame, f.err
}

type mockArchive struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (a *mockArchive) Save(ctx context.Context, workspaceID, tool string, m *domain.Media) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.saved = append(a.saved, tool)
	return "gs://bucket/" + workspaceID + "/" + tool, nil
}

// recordingSleep は待機時間を記録するだけで実際には待ちません。
type recordingSleep struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, d)
	return nil
}

// --- Helpers ---

func testModels() Models {
	return Models{
		Text:       "text-model",
		Flash:      "flash-model",
		Image:      "image-model",
		Edit:       "edit-model",
		TTS:        "tts-model",
		Video:      "video-model",
		Voice:      "Kore",
		SampleRate: 24000,
	}
}

func newTestEnv(client *mockClient) (*env, *recordingSleep) {
	sleep := &recordingSleep{}
	deps := Deps{
		Factory: func(ctx context.Context, apiKey string) (gemini.Client, error) {
			return client, nil
		},
		Models:       testModels(),
		APIKey:       "test-key",
		PollInterval: 10 * time.Second,
		Sleep:        sleep.Sleep,
	}
	return &env{deps: deps, cred: NewCredential(deps.APIKey, false), workspace: "ws"}, sleep
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func inlineResponse(data []byte, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}}}},
		}},
	}
}

func fakeImage() *domain.Media {
	return &domain.Media{Data: []byte("image"), MimeType: "image/jpeg"}
}

func doneOperation(uri string) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Name: "operations/1",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: uri}}},
		},
	}
}
