package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultTextModel  = "gemini-2.5-pro"
	DefaultFlashModel = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
	DefaultEditModel  = "gemini-2.5-flash-image"
	DefaultTTSModel   = "gemini-2.5-flash-preview-tts"
	DefaultVideoModel = "veo-3.1-fast-generate-preview"
	DefaultVoice      = "Kore"
	// DefaultSampleRate は TTS が返す PCM のサンプルレートです。
	DefaultSampleRate = 24000
	// DefaultPollInterval は動画ジョブの状態を再取得する間隔です。
	DefaultPollInterval = 10 * time.Second
	// DefaultHTTPTimeout は完成動画のダウンロードを考慮したタイムアウトです。
	DefaultHTTPTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	// DefaultWorkspaceTTL はセッションごとのツール状態を保持する時間です。
	DefaultWorkspaceTTL      = 2 * time.Hour
	DefaultReferenceCacheTTL = 30 * time.Minute
	DefaultArchivePrefix     = "creative-hub"
)

// Config は環境変数から読み込まれたアプリケーションの全設定を保持します。
type Config struct {
	ServiceURL      string
	Port            string
	ShutdownTimeout time.Duration
	HTTPTimeout     time.Duration

	// Credential
	GeminiAPIKey string
	// RequireKeySelection が true の場合、動画ツールはセッションごとにキーが選択されるまで使用できません。
	RequireKeySelection bool

	// Models
	TextModel  string // プロンプト整形・構造化出力
	FlashModel string // 音声の説明など軽量な処理
	ImageModel string // Imagen
	EditModel  string // 画像編集・リスタイル
	TTSModel   string
	VideoModel string
	Voice      string
	SampleRate int

	PollInterval time.Duration

	// Session Settings
	// SessionSecret はセッションデータのHMAC署名用シークレットキーです。
	SessionSecret string
	// SessionEncryptKey はセッションデータのAES暗号化用キーです。空の場合は暗号化しません。
	SessionEncryptKey string
	WorkspaceTTL      time.Duration

	// Storage
	// EnableGCS が true の場合、gs:// の参照メディアを読み込めます。ArchiveBucket が設定されていれば常に有効です。
	EnableGCS         bool
	ArchiveBucket     string // 生成物を保存する GCS バケット。空なら保存しない
	ArchivePrefix     string
	ReferenceCacheTTL time.Duration

	FFmpegPath string
}

// LoadConfig は環境変数（あれば .env も）から設定を読み込み、Config 構造体を生成します。
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(".env の読み込みに失敗しました", "error", err)
	}

	return &Config{
		ServiceURL:      getEnv("SERVICE_URL", "http://localhost:8080"),
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", DefaultHTTPTimeout),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		RequireKeySelection: getEnvBool("REQUIRE_KEY_SELECTION", false),

		TextModel:  getEnv("GEMINI_TEXT_MODEL", DefaultTextModel),
		FlashModel: getEnv("GEMINI_FLASH_MODEL", DefaultFlashModel),
		ImageModel: getEnv("IMAGE_MODEL", DefaultImageModel),
		EditModel:  getEnv("IMAGE_EDIT_MODEL", DefaultEditModel),
		TTSModel:   getEnv("TTS_MODEL", DefaultTTSModel),
		VideoModel: getEnv("VIDEO_MODEL", DefaultVideoModel),
		Voice:      getEnv("TTS_VOICE", DefaultVoice),
		SampleRate: getEnvInt("TTS_SAMPLE_RATE", DefaultSampleRate),

		PollInterval: getEnvDuration("VIDEO_POLL_INTERVAL", DefaultPollInterval),

		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionEncryptKey: getEnv("SESSION_ENCRYPT_KEY", ""),
		WorkspaceTTL:      getEnvDuration("WORKSPACE_TTL", DefaultWorkspaceTTL),

		EnableGCS:         getEnvBool("ENABLE_GCS", false),
		ArchiveBucket:     getEnv("GCS_ARCHIVE_BUCKET", ""),
		ArchivePrefix:     getEnv("ARCHIVE_PREFIX", DefaultArchivePrefix),
		ReferenceCacheTTL: getEnvDuration("REFERENCE_CACHE_TTL", DefaultReferenceCacheTTL),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
	}
}
