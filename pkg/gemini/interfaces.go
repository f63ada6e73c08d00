package gemini

import (
	"context"

	"github.com/shouni/creative-hub/pkg/domain"
	"google.golang.org/genai"
)

// Client はツール層が利用する生成 API の統合窓口です。
// 返すエラーはすべて *domain.Error に分類済みです。
type Client interface {
	// GenerateContent はテキスト・画像・音声を返す汎用の生成を行います。
	GenerateContent(ctx context.Context, model string, parts []*genai.Part, opts ContentOptions) (*genai.GenerateContentResponse, error)
	// GenerateImages は Imagen で画像を生成します。
	GenerateImages(ctx context.Context, model, prompt string, opts ImageOptions) ([]*domain.Media, error)
	// GenerateVideos は Veo の長時間ジョブを開始し、ジョブハンドルを返します。
	GenerateVideos(ctx context.Context, model string, req VideoRequest) (*genai.GenerateVideosOperation, error)
	// GetVideosOperation は同じハンドルでジョブの状態を再取得します。
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	// Download は完成した動画をクレデンシャル付きで取得します。
	Download(ctx context.Context, uri string) (*domain.Media, error)
}

// Factory は呼び出しごとに、渡されたクレデンシャルで新しい Client を生成します。
type Factory func(ctx context.Context, apiKey string) (Client, error)

// HTTPClient は URL からデータを取得するためのインターフェースです。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}
