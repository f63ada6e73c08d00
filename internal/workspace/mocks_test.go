package workspace

import (
	"context"
	"errors"

	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"google.golang.org/genai"
)

// gatedClient は gate が close されるまで動画ジョブの投入を止めます。それ以外の呼び出しは失敗します。
type gatedClient struct {
	gate    chan struct{}
	entered chan struct{}
}

func (c *gatedClient) GenerateContent(ctx context.Context, model string, parts []*genai.Part, opts gemini.ContentOptions) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("unexpected GenerateContent")
}

func (c *gatedClient) GenerateImages(ctx context.Context, model, prompt string, opts gemini.ImageOptions) ([]*domain.Media, error) {
	return nil, errors.New("unexpected GenerateImages")
}

func (c *gatedClient) GenerateVideos(ctx context.Context, model string, req gemini.VideoRequest) (*genai.GenerateVideosOperation, error) {
	close(c.entered)
	<-c.gate
	return nil, errors.New("job cancelled")
}

func (c *gatedClient) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return op, nil
}

func (c *gatedClient) Download(ctx context.Context, uri string) (*domain.Media, error) {
	return nil, errors.New("unexpected Download")
}
