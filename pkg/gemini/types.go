package gemini

import (
	"github.com/shouni/creative-hub/pkg/domain"
	"google.golang.org/genai"
)

const (
	// DefaultVoice は TTS で使用するプリセット音声です。
	DefaultVoice = "Kore"
	// DefaultVideoResolution は Veo の出力解像度です。
	DefaultVideoResolution = "720p"
	// DefaultVideoAspectRatio は Veo の出力アスペクト比です。
	DefaultVideoAspectRatio = "16:9"
)

// ContentOptions は GenerateContent の追加設定です。
type ContentOptions struct {
	SystemInstruction  string
	ResponseSchema     *genai.Schema // 指定時は application/json で応答させる
	ResponseModalities []genai.Modality
	VoiceName          string
	Seed               *int64
}

// ImageOptions は GenerateImages の設定です。
type ImageOptions struct {
	NumberOfImages int
	AspectRatio    string
	OutputMimeType string
	Seed           *int64
}

// VideoRequest は GenerateVideos の入力です。
type VideoRequest struct {
	Prompt      string
	Image       *domain.Media // 開始フレーム（任意）
	LastFrame   *domain.Media // 終了フレーム（任意）
	AspectRatio string
	Resolution  string
	Seed        *int64
}

// StringArraySchema は文字列配列を返させるためのスキーマです。
func StringArraySchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: description,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

// StringMapSchema は keys を必須プロパティに持つ文字列オブジェクトのスキーマです。
func StringMapSchema(keys []string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(keys))
	for _, k := range keys {
		props[k] = &genai.Schema{
			Type:        genai.TypeString,
			Description: "A detailed image prompt for " + k,
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   keys,
	}
}
