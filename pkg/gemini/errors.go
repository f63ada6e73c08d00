package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shouni/creative-hub/pkg/domain"
	"google.golang.org/genai"
)

// classify は SDK や HTTP のエラーを domain.Error に変換します。
// 既に分類済みのエラーはそのまま返します。
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.Error{Kind: domain.KindTransport, Op: op, Message: err.Error(), Err: err}
	}

	if apiErr, ok := asAPIError(err); ok {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		kind := domain.KindTransport
		if isCredentialError(apiErr.Code, msg) {
			kind = domain.KindCredentialExpired
		}
		return &domain.Error{Kind: kind, Op: op, Message: msg, Err: err}
	}

	kind := domain.KindTransport
	if strings.Contains(err.Error(), domain.CredentialNotFoundMessage) {
		kind = domain.KindCredentialExpired
	}
	return &domain.Error{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// isCredentialError はキーの失効・未選択を示す応答かどうかを判定します。
func isCredentialError(code int, msg string) bool {
	if code == http.StatusUnauthorized {
		return true
	}
	return code == http.StatusNotFound && strings.Contains(msg, domain.CredentialNotFoundMessage)
}
