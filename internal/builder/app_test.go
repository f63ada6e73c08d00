package builder

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shouni/creative-hub/internal/app"
	"github.com/shouni/creative-hub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct{}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return []byte("data"), nil
}

type mockWriter struct{}

func (m *mockWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		GeminiAPIKey:      "key",
		TextModel:         config.DefaultTextModel,
		ImageModel:        config.DefaultImageModel,
		Voice:             config.DefaultVoice,
		SampleRate:        config.DefaultSampleRate,
		PollInterval:      config.DefaultPollInterval,
		HTTPTimeout:       time.Second,
		WorkspaceTTL:      time.Hour,
		ReferenceCacheTTL: time.Minute,
		FFmpegPath:        "ffmpeg",
	}
}

func TestBuildContainer_WithoutGCS(t *testing.T) {
	cfg := testConfig()

	c, err := buildContainer(cfg, nil, nil)
	assert.Error(t, err, "HTTP クライアントは必須")
	assert.Nil(t, c)

	c, err = buildContainer(cfg, &mockHTTPClient{}, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.RemoteIO)
	assert.Nil(t, c.ToolDeps.Archive, "保存先がなければ保存しない")
	assert.NotNil(t, c.ToolDeps.Frames)
	assert.Equal(t, config.DefaultTextModel, c.ToolDeps.Models.Text)
	assert.Equal(t, config.DefaultPollInterval, c.ToolDeps.PollInterval)

	suite, err := c.Workspaces.Get("ws")
	require.NoError(t, err)
	assert.Len(t, suite.Tools(), 17)
}

func TestBuildContainer_Archive(t *testing.T) {
	cfg := testConfig()
	cfg.ArchiveBucket = "bucket"

	t.Run("読み込み専用の GCS では保存しない", func(t *testing.T) {
		c, err := buildContainer(cfg, &mockHTTPClient{}, &app.RemoteIO{})
		require.NoError(t, err)
		assert.Nil(t, c.ToolDeps.Archive)
	})

	t.Run("Writer があれば生成物を保存するのだ", func(t *testing.T) {
		c, err := buildContainer(cfg, &mockHTTPClient{}, &app.RemoteIO{Writer: &mockWriter{}})
		require.NoError(t, err)
		assert.NotNil(t, c.ToolDeps.Archive)
	})
}

func TestBuildHandler(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = "secret"
	cfg.ServiceURL = "https://example.com"

	c, err := buildContainer(cfg, &mockHTTPClient{}, nil)
	require.NoError(t, err)

	h, err := BuildHandler(context.Background(), c)
	require.NoError(t, err)
	assert.NotNil(t, h)

	t.Run("未初期化のコンテナはエラー", func(t *testing.T) {
		_, err := BuildHandler(context.Background(), &app.Container{Config: cfg})
		assert.Error(t, err)
	})

	t.Run("HTTPS のサービスでは Secure クッキー", func(t *testing.T) {
		store := newSessionStore(cfg)
		assert.True(t, store.Options.Secure)
		assert.True(t, store.Options.HttpOnly)
		assert.Equal(t, int(time.Hour.Seconds()), store.Options.MaxAge)
	})
}
