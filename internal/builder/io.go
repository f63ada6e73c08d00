package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/creative-hub/internal/app"
	"github.com/shouni/creative-hub/internal/config"
	gcsfactory "github.com/shouni/go-remote-io/remoteio/gcs"
)

// buildRemoteIO は gs:// の参照メディア読み込みと生成物の保存に使う GCS クライアントを用意します。
// 保存先バケットが未設定なら Writer は作りません。
func buildRemoteIO(ctx context.Context, cfg *config.Config) (*app.RemoteIO, error) {
	factory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS factory: %w", err)
	}
	rio := &app.RemoteIO{Factory: factory}

	if rio.Reader, err = factory.InputReader(); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to create reference reader: %w", err)
	}
	if cfg.ArchiveBucket == "" {
		slog.Info("GCS からの参照メディア読み込みを有効にしました (生成物は保存しません)")
		return rio, nil
	}
	if rio.Writer, err = factory.OutputWriter(); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to create archive writer: %w", err)
	}
	slog.Info("生成物を GCS に保存します", "bucket", cfg.ArchiveBucket, "prefix", cfg.ArchivePrefix)
	return rio, nil
}
