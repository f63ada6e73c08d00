package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/utils"
	"google.golang.org/genai"
)

// GenAIClient は genai SDK を包み、エラーを domain.Error に分類して返す Client 実装です。
type GenAIClient struct {
	client     *genai.Client
	httpClient HTTPClient
	apiKey     string
}

// NewFactory は呼び出しごとに GenAIClient を生成する Factory を返します。
// hc は SDK 内部の通信に使われます。nil の場合は SDK の既定値です。
func NewFactory(httpClient HTTPClient, hc *http.Client) (Factory, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return func(ctx context.Context, apiKey string) (Client, error) {
		c, err := NewGenAIClient(ctx, apiKey, httpClient, hc)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, nil
}

// NewGenAIClient は API キーから GenAIClient を初期化します。
func NewGenAIClient(ctx context.Context, apiKey string, httpClient HTTPClient, hc *http.Client) (*GenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &domain.Error{
			Kind:    domain.KindCredentialExpired,
			Op:      "NewClient",
			Message: "API key is not set.",
		}
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	})
	if err != nil {
		return nil, classify("NewClient", err)
	}
	return &GenAIClient{client: client, httpClient: httpClient, apiKey: apiKey}, nil
}

// GenerateContent は Gemini にパーツを送り、生のレスポンスを返します。
func (c *GenAIClient) GenerateContent(ctx context.Context, model string, parts []*genai.Part, opts ContentOptions) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, buildContentConfig(opts))
	if err != nil {
		return nil, classify("GenerateContent", err)
	}
	return resp, nil
}

// GenerateImages は Imagen で画像を生成し、エンコード済み画像を返します。
func (c *GenAIClient) GenerateImages(ctx context.Context, model, prompt string, opts ImageOptions) ([]*domain.Media, error) {
	resp, err := c.client.Models.GenerateImages(ctx, model, prompt, buildImagesConfig(opts))
	if err != nil {
		return nil, classify("GenerateImages", err)
	}
	return imagesFromResponse(resp)
}

// GenerateVideos は Veo の生成ジョブを開始します。
func (c *GenAIClient) GenerateVideos(ctx context.Context, model string, req VideoRequest) (*genai.GenerateVideosOperation, error) {
	slog.InfoContext(ctx, "動画生成ジョブを開始します", "model", model, "has_image", !req.Image.IsEmpty(), "has_last_frame", !req.LastFrame.IsEmpty())

	op, err := c.client.Models.GenerateVideos(ctx, model, req.Prompt, toImage(req.Image), buildVideosConfig(req))
	if err != nil {
		return nil, classify("GenerateVideos", err)
	}
	return op, nil
}

// GetVideosOperation はジョブの最新状態を取得します。
func (c *GenAIClient) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	next, err := c.client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, classify("GetVideosOperation", err)
	}
	return next, nil
}

// Download は動画 URI に key クエリを付与して取得します。
func (c *GenAIClient) Download(ctx context.Context, uri string) (*domain.Media, error) {
	u, err := WithAPIKey(uri, c.apiKey)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindMalformedResponse, Op: "Download", Message: "invalid video URI.", Err: err}
	}

	data, err := c.httpClient.FetchBytes(ctx, u)
	if err != nil {
		return nil, classify("Download", err)
	}
	if len(data) == 0 {
		return nil, domain.NewMalformedError("Download", "Downloaded video is empty.")
	}
	return &domain.Media{Data: data, MimeType: videoMimeType(data)}, nil
}

func buildContentConfig(opts ContentOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Seed: utils.SeedToPtrInt32(opts.Seed),
	}
	if opts.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}
	if opts.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = opts.ResponseSchema
	}
	for _, m := range opts.ResponseModalities {
		cfg.ResponseModalities = append(cfg.ResponseModalities, string(m))
	}
	if opts.VoiceName != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: opts.VoiceName},
			},
		}
	}
	return cfg
}

func buildImagesConfig(opts ImageOptions) *genai.GenerateImagesConfig {
	n := opts.NumberOfImages
	if n <= 0 {
		n = 1
	}
	return &genai.GenerateImagesConfig{
		NumberOfImages: int32(n),
		AspectRatio:    opts.AspectRatio,
		OutputMIMEType: opts.OutputMimeType,
		Seed:           utils.SeedToPtrInt32(opts.Seed),
	}
}

func buildVideosConfig(req VideoRequest) *genai.GenerateVideosConfig {
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     req.Resolution,
		AspectRatio:    req.AspectRatio,
		Seed:           utils.SeedToPtrInt32(req.Seed),
		LastFrame:      toImage(req.LastFrame),
	}
	if cfg.Resolution == "" {
		cfg.Resolution = DefaultVideoResolution
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = DefaultVideoAspectRatio
	}
	return cfg
}

func toImage(m *domain.Media) *genai.Image {
	if m.IsEmpty() {
		return nil
	}
	return &genai.Image{ImageBytes: m.Data, MIMEType: m.MimeType}
}

func videoMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if strings.HasPrefix(mimeType, "video/") {
		return mimeType
	}
	return "video/mp4"
}
