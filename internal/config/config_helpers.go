package config

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/netarmor/securenet"
)

// GetArchivePath は生成物の保存先 ("gs://<bucket>/<prefix>/<workspace>/<file>") を返します。
// ArchiveBucket が空の場合は空文字列を返します。
func (c Config) GetArchivePath(workspaceID, file string) string {
	if c.ArchiveBucket == "" {
		return ""
	}
	return fmt.Sprintf("gs://%s/%s", c.ArchiveBucket, path.Join(c.ArchivePrefix, workspaceID, file))
}

// UseGCS は GCS のクライアントが必要かどうかを返します。
func (c Config) UseGCS() bool {
	return c.EnableGCS || c.ArchiveBucket != ""
}

// --- バリデーション ---

// ValidateEssentialConfig はアプリケーション実行に不可欠な設定を検証します。
func ValidateEssentialConfig(cfg *Config) error {
	if !IsSecureURL(cfg.ServiceURL) {
		return fmt.Errorf("security error: SERVICE_URL ('%s') must be HTTPS in production", cfg.ServiceURL)
	}

	if !cfg.RequireKeySelection && cfg.GeminiAPIKey == "" {
		return fmt.Errorf("configuration error: GEMINI_API_KEY is not set")
	}

	if cfg.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET が設定されていません")
	}

	// SessionEncryptKey の長さチェック (AES要件: 16, 24, 32 bytes)
	if cfg.SessionEncryptKey != "" {
		keyLen := len([]byte(cfg.SessionEncryptKey))
		if keyLen != 16 && keyLen != 24 && keyLen != 32 {
			return fmt.Errorf("SESSION_ENCRYPT_KEY の長さが不正です (%d バイト)。16, 24, 32 バイトのいずれかにしてください", keyLen)
		}
	}

	if cfg.PollInterval <= 0 {
		return fmt.Errorf("configuration error: VIDEO_POLL_INTERVAL must be positive")
	}
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("configuration error: TTS_SAMPLE_RATE must be positive")
	}

	return nil
}

// IsSecureURL は指定された URL が HTTPS または localhost であるか判定します。
func IsSecureURL(rawURL string) bool {
	return securenet.IsSecureServiceURL(rawURL)
}

// --- 環境変数ヘルパー ---

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("真偽値として解釈できないため既定値を使用します", "key", key, "value", v)
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("整数として解釈できないため既定値を使用します", "key", key, "value", v)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("時間として解釈できないため既定値を使用します", "key", key, "value", v)
		return fallback
	}
	return d
}
