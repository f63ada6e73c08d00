package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/imgutil"
)

// FrameJPEGQuality は抽出フレームを JPEG 化する際の品質です。
const FrameJPEGQuality = 92

// FrameExtractor は動画から静止画フレームを取り出します。
type FrameExtractor interface {
	FirstFrame(ctx context.Context, video *domain.Media) (*domain.Media, error)
}

// FFmpegExtractor は ffmpeg コマンドで先頭フレームを取り出す FrameExtractor です。
type FFmpegExtractor struct {
	binary string
}

// NewFFmpegExtractor は ffmpeg の実行パスを指定して初期化します。空なら PATH 上の "ffmpeg" を使います。
func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegExtractor{binary: binary}
}

// FirstFrame は動画の先頭フレームを JPEG として返します。
func (e *FFmpegExtractor) FirstFrame(ctx context.Context, video *domain.Media) (*domain.Media, error) {
	if video.IsEmpty() {
		return nil, fmt.Errorf("動画データが空です")
	}

	tempDir, err := os.MkdirTemp("", "frame_extractor")
	if err != nil {
		return nil, fmt.Errorf("一時ディレクトリの作成に失敗しました: %w", err)
	}
	defer os.RemoveAll(tempDir)

	input := filepath.Join(tempDir, "input"+videoExt(video.MimeType))
	if err := os.WriteFile(input, video.Data, 0o600); err != nil {
		return nil, fmt.Errorf("動画の書き出しに失敗しました: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary,
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.WarnContext(ctx, "ffmpeg によるフレーム抽出に失敗しました", "error", err, "stderr", stderr.String())
		return nil, fmt.Errorf("フレーム抽出に失敗しました: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("フレームが出力されませんでした")
	}

	jpg, err := imgutil.CompressToJPEG(stdout.Bytes(), FrameJPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("フレームの JPEG 変換に失敗しました: %w", err)
	}
	return &domain.Media{Data: jpg, MimeType: "image/jpeg"}, nil
}

func videoExt(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	case "video/x-matroska":
		return ".mkv"
	default:
		return ".mp4"
	}
}
