package media

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000000000000000")

func TestNewLoader(t *testing.T) {
	_, err := NewLoader(nil, nil, nil, 0)
	assert.Error(t, err, "httpClient は必須なのだ")

	l, err := NewLoader(nil, &mockHTTPClient{}, nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLoader_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("空文字列は nil", func(t *testing.T) {
		l, _ := NewLoader(nil, &mockHTTPClient{}, nil, 0)
		m, err := l.Resolve(ctx, "  ")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("data URL はリモートに触れずに解析される", func(t *testing.T) {
		httpClient := &mockHTTPClient{}
		l, _ := NewLoader(nil, httpClient, nil, 0)
		m, err := l.Resolve(ctx, (&domain.Media{Data: []byte{9}, MimeType: "audio/mpeg"}).DataURL())
		require.NoError(t, err)
		assert.Equal(t, "audio/mpeg", m.MimeType)
		assert.Zero(t, httpClient.calls)
	})

	t.Run("gs:// はリーダーから読み込み MIME を判定するのだ", func(t *testing.T) {
		reader := &mockReader{data: pngHeader}
		cache := newMockCache()
		l, _ := NewLoader(reader, &mockHTTPClient{}, cache, 0)

		m, err := l.Resolve(ctx, "gs://bucket/ref.png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", m.MimeType)

		// 2 回目はキャッシュから返る
		_, err = l.Resolve(ctx, "gs://bucket/ref.png")
		require.NoError(t, err)
		assert.Len(t, reader.opened, 1)
	})

	t.Run("リーダー未設定の gs:// はエラー", func(t *testing.T) {
		l, _ := NewLoader(nil, &mockHTTPClient{}, nil, 0)
		_, err := l.Resolve(ctx, "gs://bucket/ref.png")
		assert.Error(t, err)
	})

	t.Run("リーダーのエラーは伝播する", func(t *testing.T) {
		l, _ := NewLoader(&mockReader{err: errors.New("denied")}, &mockHTTPClient{}, nil, 0)
		_, err := l.Resolve(ctx, "gs://bucket/ref.png")
		assert.ErrorContains(t, err, "denied")
	})

	t.Run("途中で読み込みに失敗したらエラーでキャッシュもしない", func(t *testing.T) {
		cache := newMockCache()
		l, _ := NewLoader(&mockReader{readErr: errors.New("disk gone")}, &mockHTTPClient{}, cache, 0)
		m, err := l.Resolve(ctx, "gs://bucket/ref.png")
		assert.ErrorContains(t, err, "disk gone")
		assert.Nil(t, m)
		assert.Empty(t, cache.data)
	})

	t.Run("プライベートIPはダウンロードせずに拒否するのだ", func(t *testing.T) {
		httpClient := &mockHTTPClient{data: pngHeader}
		l, _ := NewLoader(nil, httpClient, nil, 0)
		_, err := l.Resolve(ctx, "http://127.0.0.1/evil.png")
		assert.Error(t, err)
		assert.Zero(t, httpClient.calls)
	})

	t.Run("空のレスポンスはエラー", func(t *testing.T) {
		l, _ := NewLoader(&mockReader{data: nil}, &mockHTTPClient{}, nil, 0)
		_, err := l.Resolve(ctx, "gs://bucket/empty")
		assert.Error(t, err)
	})
}

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"パブリックIP直指定", "https://8.8.8.8/a.png", false},
		{"不正なスキーム", "gopher://example.com", true},
		{"ループバック", "http://127.0.0.1/admin", true},
		{"プライベートIP (クラスA)", "http://10.255.255.254/metadata", true},
		{"リンクローカル", "http://169.254.169.254/latest", true},
		{"パース不能", "::not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, err := IsSafeURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, safe)
				return
			}
			assert.NoError(t, err)
			assert.True(t, safe)
		})
	}
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "image/png", DetectMimeType(pngHeader))
	assert.Equal(t, "text/plain", DetectMimeType([]byte("hello world")))
}
