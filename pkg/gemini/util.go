package gemini

import (
	"fmt"
	"net/url"
)

// WithAPIKey は URI に key クエリパラメータを付与します。既存のクエリは維持されます。
func WithAPIKey(rawURI, apiKey string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("URIパース失敗: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("不許可スキーム: %s", u.Scheme)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
