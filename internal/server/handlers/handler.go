package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/shouni/creative-hub/internal/tools"
	"github.com/shouni/creative-hub/internal/workspace"
	"github.com/shouni/creative-hub/pkg/domain"
)

const (
	// SessionName はワークスペース ID を保持するクッキー名です。
	SessionName         = "creative-hub-session"
	sessionKeyWorkspace = "workspace_id"

	// data URL で動画を受け取るため大きめに取っています。
	maxRequestBytes = 64 << 20
)

// Resolver は JSON で受け取った参照文字列をメディアに変換します。
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Media, error)
}

type suiteKey struct{}

// Handler はツール API の HTTP ハンドラーです。ビジネスロジックは tools パッケージに委譲します。
type Handler struct {
	sessions            sessions.Store
	workspaces          *workspace.Store
	loader              Resolver
	models              tools.Models
	requireKeySelection bool
	// jobCtx はバックグラウンドで実行する動画ジョブの親 context です。
	jobCtx context.Context
}

// Params は NewHandler に渡す依存関係です。
type Params struct {
	Sessions            sessions.Store
	Workspaces          *workspace.Store
	Loader              Resolver
	Models              tools.Models
	RequireKeySelection bool
	JobContext          context.Context
}

// NewHandler は依存関係を検証して Handler を初期化します。
func NewHandler(p Params) (*Handler, error) {
	if p.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if p.Workspaces == nil {
		return nil, fmt.Errorf("workspace store is required")
	}
	if p.Loader == nil {
		return nil, fmt.Errorf("media loader is required")
	}
	jobCtx := p.JobContext
	if jobCtx == nil {
		jobCtx = context.Background()
	}
	return &Handler{
		sessions:            p.Sessions,
		workspaces:          p.Workspaces,
		loader:              p.Loader,
		models:              p.Models,
		requireKeySelection: p.RequireKeySelection,
		jobCtx:              jobCtx,
	}, nil
}

// WorkspaceMiddleware はセッションに紐づくワークスペースを context に設定します。
// 初回アクセスでは新しいワークスペース ID を発行してクッキーに保存します。
func (h *Handler) WorkspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := h.sessions.Get(r, SessionName)
		if err != nil {
			// 署名の合わない古いクッキーは新しいセッションで置き換える
			slog.WarnContext(r.Context(), "セッションの復元に失敗しました", "error", err)
		}

		id, _ := session.Values[sessionKeyWorkspace].(string)
		if id == "" {
			id = uuid.NewString()
			session.Values[sessionKeyWorkspace] = id
			if err := session.Save(r, w); err != nil {
				slog.ErrorContext(r.Context(), "セッションの保存に失敗しました", "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to start a session.")
				return
			}
		}

		suite, err := h.workspaces.Get(id)
		if err != nil {
			slog.ErrorContext(r.Context(), "ワークスペースの取得に失敗しました", "workspace", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load the workspace.")
			return
		}

		ctx := context.WithValue(r.Context(), suiteKey{}, suite)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func suiteFrom(ctx context.Context) (*tools.Suite, bool) {
	s, ok := ctx.Value(suiteKey{}).(*tools.Suite)
	return s, ok
}

// Healthz は死活監視用のエンドポイントです。保持しているワークスペースの数も返します。
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"workspaces": h.workspaces.Len(),
	})
}
