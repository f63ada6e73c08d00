package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind はクライアントラッパー境界で分類されたエラーの種別です。
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindTransport         ErrorKind = "transport"
	KindCredentialExpired ErrorKind = "credential_expired"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// CredentialNotFoundMessage はキーが失効・未選択の時にリモートが返す文言です。
// 型付きエラーで届かなかった場合のフォールバック判定にのみ使用します。
const CredentialNotFoundMessage = "Requested entity was not found."

// Error は種別付きのドメインエラーです。
type Error struct {
	Kind    ErrorKind
	Op      string // 失敗した操作名 (例: "GenerateImages")
	Message string // ユーザーにそのまま見せてよい文言
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError は入力不足を表すエラーを生成します。
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewMalformedError はレスポンスの形が想定外の場合のエラーを生成します。
func NewMalformedError(op, message string) *Error {
	return &Error{Kind: KindMalformedResponse, Op: op, Message: message}
}

// KindOf は err の種別を返します。ドメインエラーでない場合は文言から推定します。
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if strings.Contains(err.Error(), CredentialNotFoundMessage) {
		return KindCredentialExpired
	}
	return KindTransport
}

// MessageOf はユーザー表示用のメッセージを取り出します。
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// IsCredentialExpired はクレデンシャル失効エラーかどうかを判定します。
func IsCredentialExpired(err error) bool {
	return KindOf(err) == KindCredentialExpired
}
