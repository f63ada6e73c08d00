package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shouni/creative-hub/internal/tools"
	"github.com/shouni/creative-hub/pkg/domain"
)

// runRequest はツール実行のリクエストです。メディアは data URL、gs://、https:// のいずれかで指定します。
type runRequest struct {
	Prompt   string `json:"prompt"`
	Style    string `json:"style"`
	Items    string `json:"items"`
	Image    string `json:"image"`
	EndImage string `json:"end_image"`
	Video    string `json:"video"`
	Audio    string `json:"audio"`
}

type catalogResponse struct {
	Sections            []tools.Section `json:"sections"`
	KeyAvailable        bool            `json:"key_available"`
	RequireKeySelection bool            `json:"require_key_selection"`
}

type toolResponse struct {
	ID    string `json:"id"`
	State any    `json:"state"`
}

// Catalog はツールカタログを返します。
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	suite, ok := h.suite(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Sections:            tools.Catalog(h.models),
		KeyAvailable:        suite.KeyAvailable(),
		RequireKeySelection: h.requireKeySelection,
	})
}

// GetTool はツールの現在の状態を返します。動画ジョブの進捗確認にも使います。
func (h *Handler) GetTool(w http.ResponseWriter, r *http.Request) {
	tool, ok := h.tool(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{ID: tool.ID(), State: tool.Snapshot()})
}

// RunTool はツールを 1 回実行します。
// バックグラウンド実行に対応したツール (動画) は開始だけを行い 202 を返します。
func (h *Handler) RunTool(w http.ResponseWriter, r *http.Request) {
	tool, ok := h.tool(w, r)
	if !ok {
		return
	}

	var req runRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in, err := h.toInput(r, req)
	if err != nil {
		slog.WarnContext(r.Context(), "参照メディアの読み込みに失敗しました", "tool", tool.ID(), "error", err)
		writeError(w, http.StatusBadRequest, domain.MessageOf(err))
		return
	}

	if starter, ok := tool.(tools.Starter); ok {
		if _, err := starter.Start(h.jobCtx, in); err != nil {
			writeToolError(w, r, tool, err)
			return
		}
		writeJSON(w, http.StatusAccepted, toolResponse{ID: tool.ID(), State: tool.Snapshot()})
		return
	}

	if err := tool.Run(r.Context(), in); err != nil {
		writeToolError(w, r, tool, err)
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{ID: tool.ID(), State: tool.Snapshot()})
}

// ResetTool はツールを初期状態に戻します。
func (h *Handler) ResetTool(w http.ResponseWriter, r *http.Request) {
	tool, ok := h.tool(w, r)
	if !ok {
		return
	}
	if err := tool.Reset(); err != nil {
		writeToolError(w, r, tool, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateItem はバッチ項目 1 件の画像を生成します。
func (h *Handler) GenerateItem(w http.ResponseWriter, r *http.Request) {
	tool, ok := h.tool(w, r)
	if !ok {
		return
	}
	gen, ok := tool.(tools.ItemGenerator)
	if !ok {
		writeToolError(w, r, tool, fmt.Errorf("%w: %s", tools.ErrNotSupported, tool.ID()))
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item index.")
		return
	}
	if err := gen.GenerateItem(r.Context(), index); err != nil {
		writeToolError(w, r, tool, err)
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{ID: tool.ID(), State: tool.Snapshot()})
}

// AuthorizeTool はキー選択済みのセッションで動画ツールを使用可能にします。
func (h *Handler) AuthorizeTool(w http.ResponseWriter, r *http.Request) {
	tool, ok := h.tool(w, r)
	if !ok {
		return
	}
	gated, ok := tool.(tools.KeyGated)
	if !ok {
		writeToolError(w, r, tool, fmt.Errorf("%w: %s", tools.ErrNotSupported, tool.ID()))
		return
	}
	if err := gated.Authorize(); err != nil {
		writeToolError(w, r, tool, err)
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{ID: tool.ID(), State: tool.Snapshot()})
}

// ToolMedia は生成済みの動画、または再生中の音声 (WAV) をそのまま返します。
func (h *Handler) ToolMedia(w http.ResponseWriter, r *http.Request) {
	tool, ok := h.tool(w, r)
	if !ok {
		return
	}

	var m *domain.Media
	switch src := tool.(type) {
	case interface{ Video() (*domain.Media, bool) }:
		if v, ok := src.Video(); ok {
			m = v
		}
	case interface{ WAV() ([]byte, bool) }:
		if data, ok := src.WAV(); ok {
			m = &domain.Media{Data: data, MimeType: "audio/wav"}
		}
	default:
		writeToolError(w, r, tool, fmt.Errorf("%w: %s", tools.ErrNotSupported, tool.ID()))
		return
	}
	if m.IsEmpty() {
		writeError(w, http.StatusNotFound, "No media has been generated yet.")
		return
	}

	w.Header().Set("Content-Type", m.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(m.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(m.Data); err != nil {
		slog.WarnContext(r.Context(), "メディアの書き込みに失敗しました", "tool", tool.ID(), "error", err)
	}
}

func (h *Handler) suite(w http.ResponseWriter, r *http.Request) (*tools.Suite, bool) {
	suite, ok := suiteFrom(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Workspace is not available.")
		return nil, false
	}
	return suite, true
}

func (h *Handler) tool(w http.ResponseWriter, r *http.Request) (tools.Tool, bool) {
	suite, ok := h.suite(w, r)
	if !ok {
		return nil, false
	}
	tool, err := suite.Tool(chi.URLParam(r, "tool"))
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return nil, false
	}
	return tool, true
}

// toInput は参照文字列を読み込んでツールの入力を組み立てます。
func (h *Handler) toInput(r *http.Request, req runRequest) (tools.Input, error) {
	in := tools.Input{
		Prompt: req.Prompt,
		Style:  req.Style,
		Items:  req.Items,
	}
	refs := []struct {
		name string
		ref  string
		dst  **domain.Media
	}{
		{"image", req.Image, &in.Image},
		{"end_image", req.EndImage, &in.EndImage},
		{"video", req.Video, &in.Video},
		{"audio", req.Audio, &in.Audio},
	}
	for _, f := range refs {
		m, err := h.loader.Resolve(r.Context(), f.ref)
		if err != nil {
			return tools.Input{}, &domain.Error{
				Kind:    domain.KindValidation,
				Op:      f.name,
				Message: fmt.Sprintf("Could not read the %s file.", f.name),
				Err:     err,
			}
		}
		*f.dst = m
	}
	return in, nil
}
