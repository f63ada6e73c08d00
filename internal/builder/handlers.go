package builder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/shouni/creative-hub/internal/app"
	"github.com/shouni/creative-hub/internal/config"
	"github.com/shouni/creative-hub/internal/server/handlers"
)

// BuildHandler はセッションストアを構築し、API ハンドラーを組み立てます。
// jobCtx はバックグラウンドの動画ジョブに引き継がれ、サーバー停止時にキャンセルされます。
func BuildHandler(jobCtx context.Context, c *app.Container) (*handlers.Handler, error) {
	if c.Loader == nil || c.Workspaces == nil {
		return nil, fmt.Errorf("container is not fully initialized")
	}

	h, err := handlers.NewHandler(handlers.Params{
		Sessions:            newSessionStore(c.Config),
		Workspaces:          c.Workspaces,
		Loader:              c.Loader,
		Models:              c.ToolDeps.Models,
		RequireKeySelection: c.Config.RequireKeySelection,
		JobContext:          jobCtx,
	})
	if err != nil {
		return nil, fmt.Errorf("ハンドラーの初期化に失敗しました: %w", err)
	}
	return h, nil
}

func newSessionStore(cfg *config.Config) *sessions.CookieStore {
	keys := [][]byte{[]byte(cfg.SessionSecret)}
	if cfg.SessionEncryptKey != "" {
		keys = append(keys, []byte(cfg.SessionEncryptKey))
	}
	store := sessions.NewCookieStore(keys...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.WorkspaceTTL.Seconds()),
		HttpOnly: true,
		Secure:   config.IsSecureURL(cfg.ServiceURL),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
