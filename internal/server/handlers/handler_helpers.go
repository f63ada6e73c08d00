package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shouni/creative-hub/internal/tools"
	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	State any    `json:"state,omitempty"`
}

// writeJSON は v を JSON で書き込みます。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeToolError はツールの失敗をステータスコードに変換し、ツールの状態と一緒に返します。
func writeToolError(w http.ResponseWriter, r *http.Request, tool tools.Tool, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		slog.WarnContext(r.Context(), "ツールの実行に失敗しました", "tool", tool.ID(), "error", err)
	}
	writeJSON(w, status, errorResponse{Error: domain.MessageOf(err), State: tool.Snapshot()})
}

// statusOf はエラーを HTTP ステータスに対応付けます。
func statusOf(err error) int {
	switch {
	case errors.Is(err, action.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrIndexOutOfRange), errors.Is(err, tools.ErrNotSupported):
		return http.StatusBadRequest
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindCredentialExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// decodeJSON はサイズ制限付きでリクエストボディを読み取ります。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
