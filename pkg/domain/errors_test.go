package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"ドメインエラーはその種別を返す", &Error{Kind: KindMalformedResponse, Message: "x"}, KindMalformedResponse},
		{"ラップされたドメインエラー", fmt.Errorf("wrap: %w", &Error{Kind: KindCredentialExpired}), KindCredentialExpired},
		{"型なしでも失効文言なら失効扱い", errors.New("404: Requested entity was not found."), KindCredentialExpired},
		{"その他は通信エラー", errors.New("connection reset"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	t.Run("ドメインエラーは Message だけを返すのだ", func(t *testing.T) {
		err := &Error{Kind: KindTransport, Op: "GenerateImages", Message: "quota exceeded"}
		assert.Equal(t, "quota exceeded", MessageOf(err))
		assert.Equal(t, "GenerateImages: quota exceeded", err.Error())
	})

	t.Run("通常のエラーはそのまま", func(t *testing.T) {
		assert.Equal(t, "boom", MessageOf(errors.New("boom")))
	})
}

func TestMedia_IsEmpty(t *testing.T) {
	var m *Media
	assert.True(t, m.IsEmpty())
	assert.True(t, (&Media{MimeType: "image/png"}).IsEmpty())
	assert.False(t, (&Media{Data: []byte{1}}).IsEmpty())
}
