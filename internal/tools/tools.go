package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"github.com/shouni/creative-hub/pkg/media"
	"google.golang.org/genai"
)

var (
	// ErrUnknownTool は存在しないツール ID が指定された場合のエラーです。
	ErrUnknownTool = errors.New("unknown tool")
	// ErrIndexOutOfRange はバッチ項目のインデックスが範囲外の場合のエラーです。
	ErrIndexOutOfRange = errors.New("batch item index out of range")
	// ErrNotSupported はツールが要求された操作を持たない場合のエラーです。
	ErrNotSupported = errors.New("operation not supported by this tool")
)

// Input は全ツール共通の入力です。ツールごとに必要なフィールドだけを参照します。
type Input struct {
	Prompt   string
	Style    string
	Items    string // アセットパックのカンマ区切りリスト
	Image    *domain.Media
	EndImage *domain.Media
	Video    *domain.Media
	Audio    *domain.Media
}

// Tool は 1 つのクリエイティブツールのコントローラーです。
type Tool interface {
	ID() string
	// Run は入力を検証し、生成を 1 回実行します。
	Run(ctx context.Context, in Input) error
	// Snapshot は JSON で返せる現在の状態です。
	Snapshot() any
	// Reset は初期状態に戻します。実行中は action.ErrBusy を返します。
	Reset() error
}

// ItemGenerator はバッチ項目を 1 件ずつ生成できるツールです。
type ItemGenerator interface {
	GenerateItem(ctx context.Context, index int) error
}

// Starter は検証と開始だけを同期的に行い、残りをバックグラウンドで実行できるツールです。
// 戻り値のチャネルはジョブ終了時に close されます。
type Starter interface {
	Start(ctx context.Context, in Input) (<-chan struct{}, error)
}

// KeyGated は API キーの選択が済むまで使用できないツールです。
type KeyGated interface {
	KeyReady() bool
	Authorize() error
}

// Models はツールが使用するモデル名と音声設定です。
type Models struct {
	Text       string
	Flash      string
	Image      string
	Edit       string
	TTS        string
	Video      string
	Voice      string
	SampleRate int
}

// Archiver は生成物を外部ストレージに保存します。
type Archiver interface {
	Save(ctx context.Context, workspaceID, tool string, m *domain.Media) (string, error)
}

// Deps はツール群に注入される依存関係です。起動時に一度だけ構築され、以降は読み取り専用です。
type Deps struct {
	Factory             gemini.Factory
	Models              Models
	APIKey              string
	RequireKeySelection bool
	Frames              media.FrameExtractor
	Archive             Archiver // nil なら保存しない
	PollInterval        time.Duration
	Sleep               func(ctx context.Context, d time.Duration) error // nil なら poller.Sleep
}

func (d Deps) validate() error {
	if d.Factory == nil {
		return fmt.Errorf("client factory is required")
	}
	if d.Models.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive")
	}
	return nil
}

// env は 1 つのワークスペース（セッション）内のツールが共有する実行環境です。
type env struct {
	deps      Deps
	cred      *Credential
	workspace string
}

func (e *env) client(ctx context.Context) (gemini.Client, error) {
	key, err := e.cred.Key()
	if err != nil {
		return nil, err
	}
	return e.deps.Factory(ctx, key)
}

// archive は生成物を保存し、その URI を返します。失敗はログに残すだけで生成結果には影響しません。
func (e *env) archive(ctx context.Context, tool string, m *domain.Media) string {
	if e.deps.Archive == nil || m.IsEmpty() {
		return ""
	}
	uri, err := e.deps.Archive.Save(ctx, e.workspace, tool, m)
	if err != nil {
		slog.WarnContext(ctx, "生成物の保存に失敗しました", "tool", tool, "workspace", e.workspace, "error", err)
		return ""
	}
	return uri
}

// ImageResult は画像 1 枚の生成結果です。
type ImageResult struct {
	Image      *domain.Media `json:"image"`
	Prompt     string        `json:"prompt"`
	ArchiveURI string        `json:"archive_uri,omitempty"`
}

// DescribedImageResult は説明文を経由して生成された画像です。
type DescribedImageResult struct {
	Description string        `json:"description"`
	Image       *domain.Media `json:"image"`
	ArchiveURI  string        `json:"archive_uri,omitempty"`
}

// TextResult はテキストの生成結果です。
type TextResult struct {
	Text string `json:"text"`
}

// paint は req.Prompt から画像を 1 枚生成します。MIME タイプが返らなければ req.OutputMime を使います。
func paint(ctx context.Context, client gemini.Client, req domain.GenerationRequest) (*domain.Media, error) {
	images, err := client.GenerateImages(ctx, req.Model, req.Prompt, gemini.ImageOptions{
		NumberOfImages: 1,
		AspectRatio:    req.AspectRatio,
		OutputMimeType: req.OutputMime,
	})
	if err != nil {
		return nil, err
	}
	img, err := firstImage(images)
	if err != nil {
		return nil, err
	}
	if img.MimeType == "" {
		img.MimeType = req.OutputMime
	}
	return img, nil
}

// repaint は req.Reference の画像を req.Prompt の指示で描き直します。画像が返らなければ notFound を返します。
func repaint(ctx context.Context, client gemini.Client, req domain.GenerationRequest, notFound string) (*domain.Media, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Reference.Data, req.Reference.MimeType),
		genai.NewPartFromText(req.Prompt),
	}
	resp, err := client.GenerateContent(ctx, req.Model, parts, gemini.ContentOptions{
		ResponseModalities: []genai.Modality{genai.ModalityImage},
	})
	if err != nil {
		return nil, err
	}
	// 画像パートがないことは通信エラーとは別の失敗として扱う
	return gemini.FirstInlineData(resp, notFound)
}

func firstImage(images []*domain.Media) (*domain.Media, error) {
	for _, img := range images {
		if !img.IsEmpty() {
			return img, nil
		}
	}
	return nil, domain.NewMalformedError("GenerateImages", "The model returned no images.")
}
