package builder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/creative-hub/internal/app"
	"github.com/shouni/creative-hub/internal/archive"
	"github.com/shouni/creative-hub/internal/config"
	"github.com/shouni/creative-hub/internal/tools"
	"github.com/shouni/creative-hub/internal/workspace"
	"github.com/shouni/creative-hub/pkg/gemini"
	"github.com/shouni/creative-hub/pkg/media"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/remoteio"
)

// BuildContainer は外部サービスとの接続を確立し、依存関係を組み立てます。
func BuildContainer(ctx context.Context, cfg *config.Config) (*app.Container, error) {
	// 1. 基盤クライアントの初期化
	httpClient := httpkit.New(cfg.HTTPTimeout)

	// 2. I/O インフラ (GCS) の初期化
	var rio *app.RemoteIO
	if cfg.UseGCS() {
		var err error
		rio, err = buildRemoteIO(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	container, err := buildContainer(cfg, httpClient, rio)
	if err != nil {
		if rio != nil {
			_ = rio.Factory.Close()
		}
		return nil, err
	}
	return container, nil
}

// buildContainer は外部接続を伴わない部分の組み立てです。
func buildContainer(cfg *config.Config, httpClient media.HTTPClient, rio *app.RemoteIO) (*app.Container, error) {
	var reader remoteio.InputReader
	if rio != nil {
		reader = rio.Reader
	}

	// 3. 参照メディアのローダー
	refCache := cache.New(cfg.ReferenceCacheTTL, 2*cfg.ReferenceCacheTTL)
	loader, err := media.NewLoader(reader, httpClient, refCache, cfg.ReferenceCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create media loader: %w", err)
	}

	// 4. 生成クライアントのファクトリ
	factory, err := gemini.NewFactory(httpClient, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create client factory: %w", err)
	}

	deps := tools.Deps{
		Factory: factory,
		Models: tools.Models{
			Text:       cfg.TextModel,
			Flash:      cfg.FlashModel,
			Image:      cfg.ImageModel,
			Edit:       cfg.EditModel,
			TTS:        cfg.TTSModel,
			Video:      cfg.VideoModel,
			Voice:      cfg.Voice,
			SampleRate: cfg.SampleRate,
		},
		APIKey:              cfg.GeminiAPIKey,
		RequireKeySelection: cfg.RequireKeySelection,
		Frames:              media.NewFFmpegExtractor(cfg.FFmpegPath),
		PollInterval:        cfg.PollInterval,
	}

	// 5. 生成物の保存先 (任意)
	if rio != nil && rio.Writer != nil {
		store, err := archive.New(rio.Writer, cfg.GetArchivePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive store: %w", err)
		}
		deps.Archive = store
	}

	workspaces, err := workspace.NewStore(deps, cfg.WorkspaceTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace store: %w", err)
	}

	return &app.Container{
		Config:     cfg,
		RemoteIO:   rio,
		Loader:     loader,
		ToolDeps:   deps,
		Workspaces: workspaces,
	}, nil
}
