package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"github.com/shouni/creative-hub/pkg/poller"
	"google.golang.org/genai"
)

const (
	msgKeyError = "API Key error. Please select your key again."

	progressInitializing = "Initializing video generation..."
	progressFetching     = "Fetching generated video..."

	defaultInterpolationPrompt = "Animate a smooth transition between the start and end images."
	videoRestyleTemplate       = "Restyle this scene in the following artistic style: %s"
	styleTransferTemplate      = "%s, in the following artistic style: %s"
)

// VideoResult は完成した動画の情報です。動画データ自体は別途取得します。
type VideoResult struct {
	Video      *domain.Media `json:"-"`
	MimeType   string        `json:"mime_type"`
	Size       int           `json:"size"`
	Prompt     string        `json:"prompt"`
	ArchiveURI string        `json:"archive_uri,omitempty"`
}

// VideoSnapshot は動画ツールの状態です。KeyReady が false の間は実行できません。
type VideoSnapshot struct {
	action.Snapshot[VideoResult]
	KeyReady bool `json:"key_ready"`
}

// videoSpec は Veo のジョブを投げる動画ツールの定義です。
type videoSpec struct {
	id         string
	validation string
	valid      func(in Input) bool
	// starting は検証直後、processing はジョブ投入後に表示する進捗です。
	starting   string
	processing string
	// prepare は入力から Veo へのリクエストを組み立てます。
	prepare func(ctx context.Context, t *videoTool, client gemini.Client, in Input) (gemini.VideoRequest, error)
}

var (
	imageToVideoSpec = videoSpec{
		id:         IDImageToVideo,
		validation: "Please provide a prompt and an image.",
		valid: func(in Input) bool {
			return strings.TrimSpace(in.Prompt) != "" && !in.Image.IsEmpty()
		},
		starting:   "Converting image...",
		processing: "Processing video... This may take a few minutes.",
		prepare: func(_ context.Context, _ *videoTool, _ gemini.Client, in Input) (gemini.VideoRequest, error) {
			return gemini.VideoRequest{Prompt: in.Prompt, Image: in.Image}, nil
		},
	}
	sceneInterpolationSpec = videoSpec{
		id:         IDSceneInterpolation,
		validation: "Please provide both a start and an end image.",
		valid: func(in Input) bool {
			return !in.Image.IsEmpty() && !in.EndImage.IsEmpty()
		},
		starting:   "Converting images...",
		processing: "Interpolating scene... This can take a few minutes.",
		prepare: func(_ context.Context, _ *videoTool, _ gemini.Client, in Input) (gemini.VideoRequest, error) {
			prompt := in.Prompt
			if strings.TrimSpace(prompt) == "" {
				prompt = defaultInterpolationPrompt
			}
			return gemini.VideoRequest{Prompt: prompt, Image: in.Image, LastFrame: in.EndImage}, nil
		},
	}
	videoRestyleSpec = videoSpec{
		id:         IDVideoRestyle,
		validation: "Please provide a video and a style prompt.",
		valid: func(in Input) bool {
			return strings.TrimSpace(in.Prompt) != "" && !in.Video.IsEmpty()
		},
		starting:   "Extracting first frame...",
		processing: "Restyling video... This can take a few minutes.",
		prepare: func(ctx context.Context, t *videoTool, _ gemini.Client, in Input) (gemini.VideoRequest, error) {
			if t.env.deps.Frames == nil {
				return gemini.VideoRequest{}, fmt.Errorf("frame extractor is not configured")
			}
			frame, err := t.env.deps.Frames.FirstFrame(ctx, in.Video)
			if err != nil {
				return gemini.VideoRequest{}, err
			}
			return gemini.VideoRequest{Prompt: fmt.Sprintf(videoRestyleTemplate, in.Prompt), Image: frame}, nil
		},
	}
	videoStyleTransferSpec = videoSpec{
		id:         IDVideoStyleTransfer,
		validation: "Please provide a prompt and a style.",
		valid: func(in Input) bool {
			return strings.TrimSpace(in.Prompt) != "" && strings.TrimSpace(in.Style) != ""
		},
		starting:   progressInitializing,
		processing: "Processing video... This may take a few minutes.",
		prepare: func(_ context.Context, _ *videoTool, _ gemini.Client, in Input) (gemini.VideoRequest, error) {
			return gemini.VideoRequest{Prompt: fmt.Sprintf(styleTransferTemplate, in.Prompt, in.Style)}, nil
		},
	}
	textToVideoSpec = videoSpec{
		id:         IDTextToVideo,
		validation: "Please enter a prompt.",
		valid: func(in Input) bool {
			return strings.TrimSpace(in.Prompt) != ""
		},
		starting:   "Refining prompt...",
		processing: "Generating video... This may take a few minutes.",
		prepare: func(ctx context.Context, t *videoTool, client gemini.Client, in Input) (gemini.VideoRequest, error) {
			refined, err := refinePrompt(ctx, client, t.env.deps.Models.Text, in.Prompt)
			if err != nil {
				return gemini.VideoRequest{}, err
			}
			return gemini.VideoRequest{Prompt: refined}, nil
		},
	}
)

// videoTool は Veo の長時間ジョブを投入し、完了まで待って動画を取得するツールです。
type videoTool struct {
	env   *env
	spec  videoSpec
	state action.State[VideoResult]

	mu       sync.RWMutex
	keyReady bool
}

func newVideoTool(e *env, spec videoSpec) *videoTool {
	return &videoTool{env: e, spec: spec, keyReady: e.cred.Available()}
}

func (t *videoTool) ID() string { return t.spec.id }

// KeyReady は API キーが選択済みで、ツールが使用可能かどうかを返します。
func (t *videoTool) KeyReady() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.keyReady
}

// Authorize は使用可能なキーがあればツールを使用可能にします。
func (t *videoTool) Authorize() error {
	if !t.env.cred.Available() {
		return domain.NewValidationError(msgSelectKey)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keyReady = true
	return nil
}

// revoke はキーの選択が取り消された時にツールをキー選択前の状態に戻します。
func (t *videoTool) revoke() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keyReady = false
}

// Loading はジョブが実行中かどうかを返します。
func (t *videoTool) Loading() bool { return t.state.Loading() }

// Run はジョブの完了まで待ちます。
func (t *videoTool) Run(ctx context.Context, in Input) error {
	if err := t.begin(in); err != nil {
		return err
	}
	return t.execute(ctx, in)
}

// Start は検証と開始だけを行い、ジョブの完了はバックグラウンドで待ちます。
func (t *videoTool) Start(ctx context.Context, in Input) (<-chan struct{}, error) {
	if err := t.begin(in); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := t.execute(ctx, in); err != nil {
			slog.WarnContext(ctx, "動画の生成に失敗しました", "tool", t.spec.id, "error", err)
		}
	}()
	return done, nil
}

func (t *videoTool) begin(in Input) error {
	if !t.KeyReady() {
		return t.state.Invalid(msgSelectKey)
	}
	if !t.spec.valid(in) {
		return t.state.Invalid(t.spec.validation)
	}
	return t.state.Begin(t.spec.starting)
}

func (t *videoTool) execute(ctx context.Context, in Input) error {
	client, err := t.env.client(ctx)
	if err != nil {
		return t.fail(ctx, err)
	}
	req, err := t.spec.prepare(ctx, t, client, in)
	if err != nil {
		return t.fail(ctx, err)
	}
	t.state.Progress(progressInitializing)

	p := &poller.Poller[*genai.GenerateVideosOperation, *domain.Media]{
		Poll: client.GetVideosOperation,
		Done: func(op *genai.GenerateVideosOperation) bool {
			return op == nil || op.Done
		},
		Fetch: func(ctx context.Context, op *genai.GenerateVideosOperation) (*domain.Media, error) {
			if err := gemini.OperationError(op); err != nil {
				return nil, err
			}
			uri, err := gemini.VideoURI(op)
			if err != nil {
				return nil, err
			}
			return client.Download(ctx, uri)
		},
		Interval: t.env.deps.PollInterval,
		Sleep:    t.env.deps.Sleep,
		OnProgress: func(stage poller.Stage) {
			switch stage {
			case poller.StageSubmitted:
				t.state.Progress(t.spec.processing)
			case poller.StageFetching:
				t.state.Progress(progressFetching)
			}
		},
	}

	video, err := p.Run(ctx, func(ctx context.Context) (*genai.GenerateVideosOperation, error) {
		return client.GenerateVideos(ctx, t.env.deps.Models.Video, req)
	})
	if err != nil {
		return t.fail(ctx, err)
	}

	t.state.Succeed(VideoResult{
		Video:      video,
		MimeType:   video.MimeType,
		Size:       len(video.Data),
		Prompt:     req.Prompt,
		ArchiveURI: t.env.archive(ctx, t.spec.id, video),
	})
	slog.InfoContext(ctx, "動画を生成しました", "tool", t.spec.id, "size", len(video.Data))
	return nil
}

// fail は失敗を記録します。クレデンシャル失効の場合はツールをキー選択前の状態に戻します。
func (t *videoTool) fail(ctx context.Context, err error) error {
	if domain.IsCredentialExpired(err) {
		t.revoke()
		t.env.cred.Invalidate()
		t.state.Fail(msgKeyError)
		slog.WarnContext(ctx, "API キーが無効になりました", "tool", t.spec.id)
		return err
	}
	t.state.Fail(action.FailureMessage("generate video", err))
	return err
}

// Video は直近に生成した動画を返します。
func (t *videoTool) Video() (*domain.Media, bool) {
	r, ok := t.state.Result()
	if !ok || r.Video.IsEmpty() {
		return nil, false
	}
	return r.Video, true
}

func (t *videoTool) Snapshot() any {
	return VideoSnapshot{Snapshot: t.state.Snapshot(), KeyReady: t.KeyReady()}
}

// Reset は実行中のジョブがある間は ErrBusy を返します。
func (t *videoTool) Reset() error { return t.state.Reset() }
