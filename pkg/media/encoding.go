package media

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/shouni/creative-hub/pkg/domain"
)

// Decode は base64 テキストを元のバイナリに戻します。
func Decode(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("base64 のデコードに失敗しました: %w", err)
	}
	return data, nil
}

// ParseDataURL は domain.Media.DataURL の逆変換です。base64 以外のエンコーディングは受け付けません。
func ParseDataURL(s string) (*domain.Media, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("data URL ではありません")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data URL にペイロードがありません")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, fmt.Errorf("base64 以外の data URL には対応していません")
	}
	data, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return &domain.Media{Data: data, MimeType: mimeType}, nil
}
