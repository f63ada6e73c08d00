package domain

import (
	"encoding/base64"
	"encoding/json"
)

// Media は生成、または入力として受け取ったバイナリメディアとその MIME タイプです。
type Media struct {
	Data     []byte
	MimeType string
}

// IsEmpty はメディアが実データを持たない場合に true を返します。
func (m *Media) IsEmpty() bool {
	return m == nil || len(m.Data) == 0
}

// DataURL は "data:<mime>;base64,<payload>" 形式の文字列を返します。空のメディアは空文字列です。
func (m *Media) DataURL() string {
	if m.IsEmpty() {
		return ""
	}
	return "data:" + m.MimeType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

// MarshalJSON はメディアを data URL 付きの JSON に変換します。
func (m Media) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MimeType string `json:"mime_type"`
		Size     int    `json:"size"`
		DataURL  string `json:"data_url"`
	}{
		MimeType: m.MimeType,
		Size:     len(m.Data),
		DataURL:  m.DataURL(),
	})
}

// GenerationRequest は 1 回の画像生成要求です。送信後は変更しません。
type GenerationRequest struct {
	Prompt      string
	Reference   *Media // 編集元の画像（任意）
	Model       string
	AspectRatio string
	OutputMime  string
}

// BatchItem はストーリーボード、スプライトシート、アセットパックの 1 要素です。
// 画像はユーザーの明示的な要求でのみ生成され、インデックス位置で上書きされます。
type BatchItem struct {
	Name    string `json:"name,omitempty"` // アセットパックのみ使用
	Prompt  string `json:"prompt"`
	Image   *Media `json:"image,omitempty"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`

	// ArchiveURI は保存先が設定されている場合の画像の保存先です。
	ArchiveURI string `json:"archive_uri,omitempty"`
}
