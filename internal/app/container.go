package app

import (
	"log/slog"

	"github.com/shouni/creative-hub/internal/config"
	"github.com/shouni/creative-hub/internal/tools"
	"github.com/shouni/creative-hub/internal/workspace"
	"github.com/shouni/creative-hub/pkg/media"
	"github.com/shouni/go-remote-io/remoteio"
)

// Container はアプリケーションの依存関係（DIコンテナ）を保持します。
// 起動時に一度だけ構築され、以降は読み取り専用です。
type Container struct {
	Config *config.Config

	// I/O and Storage (GCS を使わない場合は nil)
	RemoteIO *RemoteIO

	// External Adapters
	Loader *media.Loader

	// Business Logic
	ToolDeps   tools.Deps
	Workspaces *workspace.Store
}

// RemoteIO は GCS のクライアントです。Writer は生成物を保存する場合だけ設定されます。
type RemoteIO struct {
	Factory remoteio.IOFactory
	Reader  remoteio.InputReader
	Writer  remoteio.OutputWriter
}

// Close は、Container が保持するすべての外部接続リソースを解放します。
func (c *Container) Close() {
	if c.RemoteIO != nil && c.RemoteIO.Factory != nil {
		if err := c.RemoteIO.Factory.Close(); err != nil {
			slog.Error("failed to close IOFactory", "error", err)
		}
	}
}
