package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shouni/creative-hub/pkg/domain"
	"google.golang.org/genai"
)

// Text はレスポンスのテキスト部分を連結して返します。空の場合は malformed エラーです。
func Text(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", domain.NewMalformedError("Text", "The model returned no response.")
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", domain.NewMalformedError("Text", "The model returned an empty text response.")
	}
	return text, nil
}

// FirstInlineData は最初の候補から最初のインラインデータ（画像・音声）を取り出します。
// 見つからない場合は notFound をメッセージとした malformed エラーを返します。
func FirstInlineData(resp *genai.GenerateContentResponse, notFound string) (*domain.Media, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, domain.NewMalformedError("FirstInlineData", notFound)
	}

	// 最初の候補 (Candidate) のみを利用する
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.Media{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロック
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, &domain.Error{
			Kind:    domain.KindMalformedResponse,
			Op:      "FirstInlineData",
			Message: fmt.Sprintf("%s (FinishReason: %s)", notFound, candidate.FinishReason),
		}
	}
	return nil, domain.NewMalformedError("FirstInlineData", notFound)
}

// DecodeJSON は構造化出力のテキストを v にデコードします。
// 形が合わない場合は mismatch をメッセージとした malformed エラーを返します。
func DecodeJSON(resp *genai.GenerateContentResponse, v any, mismatch string) error {
	text, err := Text(resp)
	if err != nil {
		return domain.NewMalformedError("DecodeJSON", mismatch)
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), v); err != nil {
		return &domain.Error{Kind: domain.KindMalformedResponse, Op: "DecodeJSON", Message: mismatch, Err: err}
	}
	return nil
}

// VideoURI は完了したジョブから最初の動画の URI を取り出します。
func VideoURI(op *genai.GenerateVideosOperation) (string, error) {
	if op == nil || op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return "", domain.NewMalformedError("VideoURI", "Video generation did not return a valid link.")
	}
	v := op.Response.GeneratedVideos[0]
	if v == nil || v.Video == nil || v.Video.URI == "" {
		return "", domain.NewMalformedError("VideoURI", "Video generation did not return a valid link.")
	}
	return v.Video.URI, nil
}

// OperationError は完了したジョブが持つエラー情報を domain.Error に変換します。エラーがなければ nil です。
func OperationError(op *genai.GenerateVideosOperation) error {
	if op == nil || len(op.Error) == 0 {
		return nil
	}
	msg, _ := op.Error["message"].(string)
	if msg == "" {
		msg = fmt.Sprintf("%v", op.Error)
	}
	kind := domain.KindTransport
	if strings.Contains(msg, domain.CredentialNotFoundMessage) {
		kind = domain.KindCredentialExpired
	}
	return &domain.Error{Kind: kind, Op: "GetVideosOperation", Message: msg}
}

func imagesFromResponse(resp *genai.GenerateImagesResponse) ([]*domain.Media, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, domain.NewMalformedError("GenerateImages", "The model returned no images.")
	}
	out := make([]*domain.Media, 0, len(resp.GeneratedImages))
	for _, gi := range resp.GeneratedImages {
		if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			continue
		}
		out = append(out, &domain.Media{Data: gi.Image.ImageBytes, MimeType: gi.Image.MIMEType})
	}
	if len(out) == 0 {
		reason := ""
		if gi := resp.GeneratedImages[0]; gi != nil {
			reason = gi.RAIFilteredReason
		}
		if reason == "" {
			reason = "The model returned no images."
		}
		return nil, domain.NewMalformedError("GenerateImages", reason)
	}
	return out, nil
}

// stripCodeFence は ```json ... ``` で囲まれた応答から中身を取り出します。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
