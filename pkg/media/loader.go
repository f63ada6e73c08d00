package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/go-remote-io/remoteio"
)

const cacheKeyReference = "ref:"

// HTTPClient は URL からデータを取得するためのインターフェースです。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Cacher は参照メディアをキャッシュするためのインターフェースです。
type Cacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// Loader は data URL、gs://、http(s):// で指定された参照メディアを読み込みます。
type Loader struct {
	reader     remoteio.InputReader
	httpClient HTTPClient
	cache      Cacher
	expiration time.Duration
}

// NewLoader は依存関係を注入して Loader を初期化します。
// reader が nil の場合、gs:// の参照はエラーになります。cache は nil を許容します。
func NewLoader(reader remoteio.InputReader, httpClient HTTPClient, cache Cacher, cacheTTL time.Duration) (*Loader, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Loader{
		reader:     reader,
		httpClient: httpClient,
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// Resolve は JSON で受け取った参照文字列をメディアに変換します。空文字列は nil を返します。
func (l *Loader) Resolve(ctx context.Context, ref string) (*domain.Media, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, nil
	case strings.HasPrefix(ref, "data:"):
		return ParseDataURL(ref)
	default:
		return l.Load(ctx, ref)
	}
}

// Load は URI からメディアを取得し、MIME タイプを判定して返します。
func (l *Loader) Load(ctx context.Context, rawURL string) (*domain.Media, error) {
	if l.cache != nil {
		if cached, found := l.cache.Get(cacheKeyReference + rawURL); found {
			if m, ok := cached.(*domain.Media); ok {
				return m, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", cached))
		}
	}

	data, err := l.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("参照メディアが空です: %s", rawURL)
	}

	m := &domain.Media{Data: data, MimeType: DetectMimeType(data)}
	if l.cache != nil {
		l.cache.Set(cacheKeyReference+rawURL, m, l.expiration)
	}
	return m, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		if l.reader == nil {
			return nil, fmt.Errorf("GCS リーダーが設定されていません: %s", rawURL)
		}
		rc, err := l.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("GCS オブジェクトのオープンに失敗しました: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("GCS オブジェクトの読み込みに失敗しました: %w", err)
		}
		return data, nil
	}

	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", err)
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return l.httpClient.FetchBytes(ctx, rawURL)
}

// DetectMimeType はデータ先頭からMIMEタイプを判定します。パラメータ部分は取り除きます。
func DetectMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// IsSafeURL は、SSRF (Server-Side Request Forgery) 対策として URL を検証します。
// 名前解決されたすべての IP アドレスに対してプライベート IP チェックを行います。
func IsSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolved, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", host, err)
		}
		ips = resolved
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
