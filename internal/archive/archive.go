package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/go-remote-io/remoteio"
)

// PathFunc はワークスペース ID とファイル名から保存先 URI を組み立てます。
type PathFunc func(workspaceID, file string) string

// Store は生成物をリモートストレージ (GCS) に書き出します。
type Store struct {
	writer remoteio.OutputWriter
	path   PathFunc
	newID  func() string
}

// New は Store を初期化します。
func New(writer remoteio.OutputWriter, path PathFunc) (*Store, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if path == nil {
		return nil, fmt.Errorf("path function is required")
	}
	return &Store{writer: writer, path: path, newID: uuid.NewString}, nil
}

// Save は m を "<tool>-<uuid>.<ext>" という名前で保存し、その URI を返します。
func (s *Store) Save(ctx context.Context, workspaceID, tool string, m *domain.Media) (string, error) {
	if m.IsEmpty() {
		return "", fmt.Errorf("保存するデータが空です")
	}
	file := fmt.Sprintf("%s-%s%s", tool, s.newID(), extension(m.MimeType))
	uri := s.path(workspaceID, file)
	if uri == "" {
		return "", fmt.Errorf("保存先が設定されていません")
	}

	if err := s.writer.Write(ctx, uri, bytes.NewReader(m.Data), m.MimeType); err != nil {
		return "", fmt.Errorf("生成物の書き込みに失敗しました (uri: %s): %w", uri, err)
	}
	slog.InfoContext(ctx, "生成物を保存しました", "uri", uri, "size", len(m.Data))
	return uri, nil
}

func extension(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(strings.ToLower(base)) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".bin"
	}
}
