package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/creative-hub/internal/builder"
	"github.com/shouni/creative-hub/internal/config"
)

// デフォルトのシャットダウン猶予時間
const defaultShutdownTimeout = 30 * time.Second

// jobCounter は実行中のバックグラウンドジョブ数を返します。
type jobCounter interface {
	RunningJobs() int
}

// Run は、設定ロード、バリデーション、サーバーのライフサイクル管理を行います。
func Run(ctx context.Context) error {
	cfg := config.LoadConfig()
	if err := config.ValidateEssentialConfig(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	container, err := builder.BuildContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer func() {
		slog.Info("♻️ Closing container...")
		container.Close()
	}()

	// 動画ジョブはリクエストより長く生きる。シグナルでは止めず、HTTP の停止後に明示的に止める
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	h, err := builder.BuildHandler(jobCtx, container)
	if err != nil {
		return fmt.Errorf("failed to build handler: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("🚀 Server starting...", "port", cfg.Port, "service_url", cfg.ServiceURL, "require_key_selection", cfg.RequireKeySelection)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigCtx.Done():
		stop()
		slog.Info("⚠️ Starting graceful shutdown...")
	}

	timeout := cfg.ShutdownTimeout
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	return shutdown(srv, container.Workspaces, cancelJobs, timeout)
}

// shutdown は新しいリクエストの受付を止めてから、残っている動画ジョブを中断します。
// 中断したジョブはワークスペースに失敗として残ります。
func shutdown(srv *http.Server, jobs jobCounter, cancelJobs context.CancelFunc, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)

	if n := jobs.RunningJobs(); n > 0 {
		slog.Warn("実行中の動画ジョブを中断します", "jobs", n)
	}
	cancelJobs()

	if err != nil {
		slog.Error("Graceful shutdown failed, forcing close", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			return fmt.Errorf("could not stop server: shutdown error: %v, close error: %v", err, closeErr)
		}
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}

	slog.Info("✅ Server stopped cleanly")
	return nil
}
